package repositories

import (
	"context"
	"errors"
	"github.com/maxaizer/hh-search-bot/internal/domain/models"
	"gorm.io/gorm"
)

type Users struct {
	db *gorm.DB
}

func NewUsersRepository(db *gorm.DB) *Users {
	return &Users{db: db}
}

func (repo *Users) Get(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := repo.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetOrDefault returns an empty profile for unknown users.
func (repo *Users) GetOrDefault(ctx context.Context, id int64) (models.User, error) {
	user, err := repo.Get(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	if user == nil {
		return models.User{ID: id}, nil
	}
	return *user, nil
}

func (repo *Users) Save(ctx context.Context, user models.User) error {
	return repo.db.WithContext(ctx).Save(&user).Error
}
