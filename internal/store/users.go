package store

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"matatu_manager/internal/models"
)

type UserStore struct {
	db *gorm.DB
}

func (r *UserStore) Create(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return translate(r.db.WithContext(ctx).Create(u).Error)
}

func (r *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserStore) List(ctx context.Context, p Page) ([]models.User, error) {
	var out []models.User
	err := p.apply(r.db.WithContext(ctx).Model(&models.User{})).Order("created_at ASC").Find(&out).Error
	return out, translate(err)
}

// Update writes the profile columns. Email and role are not changed here.
func (r *UserStore) Update(ctx context.Context, u *models.User) error {
	res := r.db.WithContext(ctx).Model(u).Select("full_name", "phone", "password").Updates(u)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
