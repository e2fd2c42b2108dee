package repositories

import (
	"context"
	"errors"
	"github.com/maxaizer/hh-search-bot/internal/domain/models"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

const insertBatchSize = 100

type Vacancies struct {
	db *gorm.DB
}

func NewVacanciesRepository(db *gorm.DB) *Vacancies {
	return &Vacancies{db: db}
}

type UpsertStats struct {
	Inserted int
	Updated  int
}

// UpsertBatch stores canonical records keyed by external id. Unknown ids are inserted, known ids get
// only their changed non-nil fields written. Records without an external id are ignored; for duplicate
// ids within the batch the first occurrence wins.
func (repo *Vacancies) UpsertBatch(ctx context.Context, records []models.Vacancy) (map[string]models.Vacancy, UpsertStats, error) {

	records = lo.Filter(records, func(v models.Vacancy, _ int) bool { return v.ExternalID != "" })
	records = lo.UniqBy(records, func(v models.Vacancy) string { return v.ExternalID })

	result := make(map[string]models.Vacancy, len(records))
	stats := UpsertStats{}
	if len(records) == 0 {
		return result, stats, nil
	}

	ids := lo.Map(records, func(v models.Vacancy, _ int) string { return v.ExternalID })

	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {

		var existing []models.Vacancy
		if err := tx.Where("external_id IN ?", ids).Find(&existing).Error; err != nil {
			return err
		}
		stored := lo.KeyBy(existing, func(v models.Vacancy) string { return v.ExternalID })

		var fresh []models.Vacancy
		for _, record := range records {
			current, found := stored[record.ExternalID]
			if !found {
				record.ID = 0
				fresh = append(fresh, record)
				continue
			}

			changes := mergeChanges(&current, record)
			if len(changes) > 0 {
				if err := tx.Model(&models.Vacancy{ID: current.ID}).Updates(changes).Error; err != nil {
					return err
				}
				stats.Updated++
			}
			result[current.ExternalID] = current
		}

		if len(fresh) > 0 {
			if err := tx.CreateInBatches(&fresh, insertBatchSize).Error; err != nil {
				return err
			}
			stats.Inserted = len(fresh)
			for _, created := range fresh {
				result[created.ExternalID] = created
			}
		}

		return nil
	})
	if err != nil {
		return nil, UpsertStats{}, err
	}

	return result, stats, nil
}

func (repo *Vacancies) GetByID(ctx context.Context, id uint) (*models.Vacancy, error) {
	var vacancy models.Vacancy
	if err := repo.db.WithContext(ctx).First(&vacancy, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &vacancy, nil
}

// mergeChanges copies changed non-nil fields of incoming into current and returns them by column.
func mergeChanges(current *models.Vacancy, incoming models.Vacancy) map[string]any {
	changes := make(map[string]any)

	mergeField(changes, "title", &current.Title, incoming.Title)
	mergeField(changes, "company", &current.Company, incoming.Company)
	mergeField(changes, "location", &current.Location, incoming.Location)
	mergeField(changes, "salary_from", &current.SalaryFrom, incoming.SalaryFrom)
	mergeField(changes, "salary_to", &current.SalaryTo, incoming.SalaryTo)
	mergeField(changes, "salary_currency", &current.SalaryCurrency, incoming.SalaryCurrency)
	mergeField(changes, "description", &current.Description, incoming.Description)
	mergeField(changes, "requirements", &current.Requirements, incoming.Requirements)
	mergeField(changes, "employment_type", &current.EmploymentType, incoming.EmploymentType)
	mergeField(changes, "experience", &current.Experience, incoming.Experience)
	mergeField(changes, "schedule", &current.Schedule, incoming.Schedule)
	mergeField(changes, "url", &current.Url, incoming.Url)

	return changes
}

func mergeField[T comparable](changes map[string]any, column string, current **T, incoming *T) {
	if incoming == nil {
		return
	}
	if *current != nil && **current == *incoming {
		return
	}

	value := *incoming
	changes[column] = value
	*current = &value
}
