package repositories

import (
	"context"
	"github.com/maxaizer/hh-search-bot/internal/domain/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BotState keeps opaque blobs between restarts, e.g. unfinished dialogs.
type BotState struct {
	db *gorm.DB
}

func NewBotStateRepository(db *gorm.DB) *BotState {
	return &BotState{db: db}
}

func (repo *BotState) Save(ctx context.Context, id string, data []byte) error {
	return repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&models.ArbitraryData{ID: id, Value: data}).Error
}

// LoadAndRemove returns nil data when nothing was saved under id.
func (repo *BotState) LoadAndRemove(ctx context.Context, id string) ([]byte, error) {
	var data models.ArbitraryData

	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&data, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.ArbitraryData{}, "id = ?", id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return data.Value, nil
}
