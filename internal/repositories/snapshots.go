package repositories

import (
	"context"
	"errors"
	"github.com/maxaizer/hh-search-bot/internal/domain/models"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"time"
)

type Snapshots struct {
	db *gorm.DB
}

func NewSnapshotsRepository(db *gorm.DB) *Snapshots {
	return &Snapshots{db: db}
}

// Create stores the snapshot and links vacancyIDs to it at positions 1..n in one transaction.
func (repo *Snapshots) Create(ctx context.Context, snapshot *models.SearchSnapshot, vacancyIDs []uint) error {
	return repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(snapshot).Error; err != nil {
			return err
		}

		if len(vacancyIDs) == 0 {
			return nil
		}

		links := lo.Map(vacancyIDs, func(vacancyID uint, i int) models.SearchResult {
			return models.SearchResult{SnapshotID: snapshot.ID, VacancyID: vacancyID, Position: i + 1}
		})
		return tx.CreateInBatches(links, insertBatchSize).Error
	})
}

// Latest returns the most recent snapshot for the exact (user, query) pair or nil.
func (repo *Snapshots) Latest(ctx context.Context, userID int64, query string) (*models.SearchSnapshot, error) {
	return repo.first(repo.db.WithContext(ctx).Where("user_id = ? AND query_text = ?", userID, query))
}

// LatestAny returns the most recent snapshot of the user regardless of the query or nil.
func (repo *Snapshots) LatestAny(ctx context.Context, userID int64) (*models.SearchSnapshot, error) {
	return repo.first(repo.db.WithContext(ctx).Where("user_id = ?", userID))
}

func (repo *Snapshots) first(query *gorm.DB) (*models.SearchSnapshot, error) {
	var snapshot models.SearchSnapshot
	err := query.Order("created_at DESC").Order("id DESC").First(&snapshot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &snapshot, nil
}

// Vacancies returns the vacancies linked to the snapshot ordered by position.
func (repo *Snapshots) Vacancies(ctx context.Context, snapshotID uint) ([]models.Vacancy, error) {
	var vacancies []models.Vacancy
	err := repo.db.WithContext(ctx).
		Model(&models.Vacancy{}).
		Select("vacancies.*").
		Joins("JOIN search_results ON search_results.vacancy_id = vacancies.id").
		Where("search_results.snapshot_id = ?", snapshotID).
		Order("search_results.position").
		Find(&vacancies).Error
	return vacancies, err
}

type PurgedQuery struct {
	UserID int64
	Query  string
}

// RemoveOlderThan deletes snapshots created before the given time together with their links.
// It returns the distinct (user, query) pairs that lost snapshots.
func (repo *Snapshots) RemoveOlderThan(ctx context.Context, before time.Time) ([]PurgedQuery, error) {
	var purged []PurgedQuery

	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var expired []models.SearchSnapshot
		if err := tx.Select("id", "user_id", "query_text").
			Where("created_at < ?", before).
			Find(&expired).Error; err != nil {
			return err
		}

		if len(expired) == 0 {
			return nil
		}

		ids := lo.Map(expired, func(s models.SearchSnapshot, _ int) uint { return s.ID })
		if err := tx.Where("snapshot_id IN ?", ids).Delete(&models.SearchResult{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", ids).Delete(&models.SearchSnapshot{}).Error; err != nil {
			return err
		}

		purged = lo.UniqBy(lo.Map(expired, func(s models.SearchSnapshot, _ int) PurgedQuery {
			return PurgedQuery{UserID: s.UserID, Query: s.QueryText}
		}), func(p PurgedQuery) PurgedQuery { return p })
		return nil
	})

	return purged, err
}
