package barber

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/NikolajSankovDev/zyron/internal/audit"
	domain "github.com/NikolajSankovDev/zyron/internal/domain/appointment"
	"github.com/NikolajSankovDev/zyron/internal/infra/objectstore"
	"github.com/NikolajSankovDev/zyron/internal/media"
)

const avatarDirectory = "avatars"

type UpdateAvatar struct {
	repo  domain.Repository
	store objectstore.Store
	audit *audit.Dispatcher
}

func NewUpdateAvatar(
	repo domain.Repository,
	store objectstore.Store,
	audit *audit.Dispatcher,
) *UpdateAvatar {
	return &UpdateAvatar{
		repo:  repo,
		store: store,
		audit: audit,
	}
}

// Execute stores a normalised copy of the picture and points the barber at it.
// The previous object is removed once the new URL is saved.
func (uc *UpdateAvatar) Execute(
	ctx context.Context,
	barberID uint,
	picture io.Reader,
	actorID *uint,
) (string, error) {

	barber, err := uc.repo.GetBarber(ctx, barberID)
	if err != nil {
		return "", err
	}

	data, err := media.NormalizeAvatar(picture)
	if err != nil {
		return "", err
	}

	fileName := fmt.Sprintf("barber-%d-%s.webp", barberID, uuid.NewString())
	url, err := uc.store.Put(ctx, avatarDirectory, fileName, media.AvatarContentType, data)
	if err != nil {
		return "", err
	}

	if err := uc.repo.UpdateBarberAvatar(ctx, barberID, url); err != nil {
		if delErr := uc.store.Delete(context.WithoutCancel(ctx), url); delErr != nil {
			log.Warn().Err(delErr).Str("url", url).Msg("orphaned avatar left in storage")
		}
		return "", err
	}

	if barber.AvatarURL != "" {
		if err := uc.store.Delete(ctx, barber.AvatarURL); err != nil {
			log.Warn().Err(err).Uint("barber_id", barberID).Msg("previous avatar not removed")
		}
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   actorID,
		Action:   audit.ActionBarberAvatarUpdated,
		Entity:   "barber",
		EntityID: &barberID,
		Metadata: map[string]any{"url": url},
	})

	return url, nil
}
