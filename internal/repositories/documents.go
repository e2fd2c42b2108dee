package repositories

import (
	"context"
	"errors"
	"github.com/maxaizer/hh-search-bot/internal/domain/models"
	"gorm.io/gorm"
	"time"
)

type Documents struct {
	db *gorm.DB
}

func NewDocumentsRepository(db *gorm.DB) *Documents {
	return &Documents{db: db}
}

func (repo *Documents) Get(ctx context.Context, userID int64, vacancyID uint, docType models.DocumentType) (*models.Document, error) {
	var document models.Document
	err := repo.db.WithContext(ctx).
		Where("user_id = ? AND vacancy_id = ? AND type = ?", userID, vacancyID, docType).
		First(&document).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &document, nil
}

// Upsert writes text for the (user, vacancy, type) key, keeping the row id of an existing document.
func (repo *Documents) Upsert(ctx context.Context, userID int64, vacancyID uint, docType models.DocumentType,
	text string) (*models.Document, error) {

	var document models.Document
	now := time.Now()

	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND vacancy_id = ? AND type = ?", userID, vacancyID, docType).
			First(&document).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			document = models.Document{UserID: userID, VacancyID: vacancyID, Type: docType, Text: text, GeneratedAt: now}
			return tx.Create(&document).Error
		}
		if err != nil {
			return err
		}

		document.Text = text
		document.GeneratedAt = now
		return tx.Model(&models.Document{ID: document.ID}).
			Updates(map[string]any{"text": text, "generated_at": now}).Error
	})
	if err != nil {
		return nil, err
	}

	return &document, nil
}
