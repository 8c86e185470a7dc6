package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/stsapko/contacts-api/internal/models"
)

var ErrUserExists = errors.New("user already exists")

type UserRepo struct {
	DB *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{DB: db}
}

// FindByEmail matches the email exactly as stored. Returns (nil, nil)
// when no account exists.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Create persists a new user. The unique constraint on email is the
// authoritative duplicate guard; callers may pre-check FindByEmail but a
// concurrent registration still surfaces here as ErrUserExists.
func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	if err := r.DB.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUserExists
		}
		return err
	}
	return nil
}

func (r *UserRepo) SetRefreshToken(ctx context.Context, user *models.User, refreshToken string) error {
	return r.DB.WithContext(ctx).Model(user).Update("refresh_token", refreshToken).Error
}

func (r *UserRepo) ClearRefreshToken(ctx context.Context, user *models.User) error {
	return r.DB.WithContext(ctx).Model(user).Update("refresh_token", nil).Error
}

// Activate flips the activation flag. Unknown emails are a silent no-op
// and re-activation is idempotent.
func (r *UserRepo) Activate(ctx context.Context, email string) error {
	return r.DB.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ?", email).
		Update("is_activated", true).Error
}

func (r *UserRepo) SetAvatar(ctx context.Context, email, url string) (*models.User, error) {
	if err := r.DB.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ?", email).
		Update("avatar", url).Error; err != nil {
		return nil, err
	}
	return r.FindByEmail(ctx, email)
}

func (r *UserRepo) SetResetToken(ctx context.Context, user *models.User, resetToken string) error {
	return r.DB.WithContext(ctx).Model(user).Update("reset_token", resetToken).Error
}

// SetPassword stores a new password hash and invalidates the reset token
// that authorized the change.
func (r *UserRepo) SetPassword(ctx context.Context, email, passwordHash string) error {
	return r.DB.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ?", email).
		Updates(map[string]any{"password_hash": passwordHash, "reset_token": nil}).Error
}
