package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/NikolajSankovDev/zyron/internal/domain/account"
	"github.com/NikolajSankovDev/zyron/internal/models"
)

type AccountGormRepository struct {
	db *gorm.DB
}

func NewAccountGormRepository(db *gorm.DB) *AccountGormRepository {
	return &AccountGormRepository{db: db}
}

func (r *AccountGormRepository) CreateUser(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))

	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return account.ErrEmailTaken
		}
		return classify(err)
	}
	return nil
}

func (r *AccountGormRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, account.ErrUserNotFound
	}
	if err != nil {
		return nil, classify(err)
	}
	return &u, nil
}

func (r *AccountGormRepository) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, account.ErrUserNotFound
	}
	if err != nil {
		return nil, classify(err)
	}
	return &u, nil
}

var _ account.Repository = (*AccountGormRepository)(nil)
