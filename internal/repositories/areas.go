package repositories

import (
	"context"
	"errors"
	"github.com/maxaizer/hh-search-bot/internal/domain/models"
	"gorm.io/gorm"
)

type Areas struct {
	db *gorm.DB
}

func NewAreasRepository(db *gorm.DB) *Areas {
	return &Areas{db: db}
}

// GetIdByName matches the normalized area name and returns "" when nothing matches.
func (repo *Areas) GetIdByName(ctx context.Context, name string) (string, error) {

	var area models.Area
	err := repo.db.WithContext(ctx).
		Order("id").
		First(&area, "normalized_name = ?", models.NormalizeAreaName(name)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return area.ID, nil
}
