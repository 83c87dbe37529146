// Package catalog serves the bookable services with names resolved for the
// caller's locale.
package catalog

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"

	domain "github.com/NikolajSankovDev/zyron/internal/domain/appointment"
	"github.com/NikolajSankovDev/zyron/internal/models"
)

type ServiceView struct {
	ID              uint            `json:"id"`
	Slug            string          `json:"slug"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	Locale          string          `json:"locale"`
	DurationMinutes int             `json:"duration_minutes"`
	BasePrice       decimal.Decimal `json:"base_price"`
}

type ListServices struct {
	repo          domain.Repository
	defaultLocale language.Tag
}

func NewListServices(repo domain.Repository, defaultLocale string) *ListServices {
	tag, err := language.Parse(defaultLocale)
	if err != nil {
		tag = language.English
	}
	return &ListServices{repo: repo, defaultLocale: tag}
}

// Execute accepts a locale or an Accept-Language header value.
func (uc *ListServices) Execute(ctx context.Context, locale string) ([]ServiceView, error) {
	services, err := uc.repo.ListActiveServices(ctx)
	if err != nil {
		return nil, err
	}

	wanted, _, _ := language.ParseAcceptLanguage(locale)

	out := make([]ServiceView, 0, len(services))
	for _, svc := range services {
		view := ServiceView{
			ID:              svc.ID,
			Slug:            svc.Slug,
			Name:            svc.Slug,
			DurationMinutes: svc.DurationMinutes,
			BasePrice:       svc.BasePrice,
		}

		if tr, ok := uc.pick(svc.Translations, wanted); ok {
			view.Name = tr.Name
			view.Description = tr.Description
			view.Locale = tr.Locale
		}
		out = append(out, view)
	}
	return out, nil
}

// pick matches the caller's preferences against the available translations,
// falling back to the studio default locale and then to the first one.
func (uc *ListServices) pick(translations []models.ServiceTranslation, wanted []language.Tag) (models.ServiceTranslation, bool) {
	if len(translations) == 0 {
		return models.ServiceTranslation{}, false
	}

	// default first so the matcher falls back to it
	tags := make([]language.Tag, 0, len(translations)+1)
	index := make([]int, 0, len(translations)+1)

	tags = append(tags, uc.defaultLocale)
	index = append(index, -1)
	for i, tr := range translations {
		tag, err := language.Parse(tr.Locale)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
		index = append(index, i)
	}

	_, i, confidence := language.NewMatcher(tags).Match(wanted...)
	if confidence != language.No && index[i] >= 0 {
		return translations[index[i]], true
	}

	for i, tag := range tags {
		if index[i] >= 0 && tag == uc.defaultLocale {
			return translations[index[i]], true
		}
	}
	return translations[0], true
}
