package account

import (
	"context"

	"github.com/NikolajSankovDev/zyron/internal/httperr"
	"github.com/NikolajSankovDev/zyron/internal/models"
)

var (
	ErrEmailTaken   = httperr.ErrBusiness("email_already_registered")
	ErrUserNotFound = httperr.ErrBusiness("user_not_found")
)

type Repository interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, id uint) (*models.User, error)
}
