package repositories

import (
	"context"
	"fmt"
	"github.com/glebarez/sqlite"
	"github.com/maxaizer/hh-search-bot/internal/clients/hh"
	"github.com/maxaizer/hh-search-bot/internal/domain/models"
	"github.com/samber/lo"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"strings"
)

type DbContext struct {
	DB *gorm.DB
}

type areaSource interface {
	GetAreas(ctx context.Context) ([]hh.Area, error)
}

// NewDbContext opens postgres for postgres:// urls and key=value dsns, and a sqlite file otherwise.
func NewDbContext(connectionString string) (*DbContext, error) {
	db, err := gorm.Open(dialector(connectionString), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, err
	}

	return &DbContext{DB: db}, nil
}

func dialector(connectionString string) gorm.Dialector {
	if isPostgres(connectionString) {
		return postgres.Open(connectionString)
	}
	return sqlite.Open(connectionString)
}

func isPostgres(connectionString string) bool {
	return strings.HasPrefix(connectionString, "postgres://") ||
		strings.HasPrefix(connectionString, "postgresql://") ||
		strings.Contains(connectionString, "host=")
}

func (c *DbContext) Migrate() error {
	entities := []struct {
		name  string
		value any
	}{
		{"Vacancy", &models.Vacancy{}},
		{"SearchSnapshot", &models.SearchSnapshot{}},
		{"SearchResult", &models.SearchResult{}},
		{"Document", &models.Document{}},
		{"User", &models.User{}},
		{"Area", &models.Area{}},
		{"ArbitraryData", &models.ArbitraryData{}},
	}

	for _, entity := range entities {
		if err := c.DB.AutoMigrate(entity.value); err != nil {
			return fmt.Errorf("failed to migrate %s entity: %w", entity.name, err)
		}
	}

	return nil
}

// PopulateAreas fills the areas table from the api when it is empty.
func (c *DbContext) PopulateAreas(ctx context.Context, source areaSource) error {
	var areasCount int64
	if err := c.DB.WithContext(ctx).Model(&models.Area{}).Count(&areasCount).Error; err != nil {
		return fmt.Errorf("failed to count areas: %w", err)
	}

	if areasCount > 0 {
		return nil
	}

	tree, err := source.GetAreas(ctx)
	if err != nil {
		return fmt.Errorf("failed to get areas from client: %w", err)
	}

	areas := lo.Map(hh.FlattenAreas(tree), func(area hh.Area, _ int) models.Area {
		return models.NewArea(area.ID, area.Name)
	})
	if len(areas) == 0 {
		return nil
	}

	if err = c.DB.WithContext(ctx).CreateInBatches(areas, 500).Error; err != nil {
		return fmt.Errorf("failed to create areas in the database: %w", err)
	}
	return nil
}

func (c *DbContext) Close() error {
	db, err := c.DB.DB()
	if err != nil {
		return err
	}

	return db.Close()
}

func (c *DbContext) SetMaxOpenConns(n int) error {
	db, err := c.DB.DB()
	if err != nil {
		return err
	}

	db.SetMaxOpenConns(n)
	return nil
}
