package models

import (
	"gorm.io/datatypes"
	"time"
)

// SearchSnapshot records one search execution. It is never updated after creation.
type SearchSnapshot struct {
	ID             uint   `gorm:"primaryKey"`
	UserID         int64  `gorm:"index:idx_snapshot_user_query,priority:1;not null"`
	QueryText      string `gorm:"index:idx_snapshot_user_query,priority:2;not null"`
	SearchParams   datatypes.JSON
	ResultsCount   int
	TotalFound     int
	ResponseTimeMs int64
	CreatedAt      time.Time `gorm:"index"`
}

// SearchResult links a vacancy to its 1-based position within a snapshot.
type SearchResult struct {
	ID         uint `gorm:"primaryKey"`
	SnapshotID uint `gorm:"uniqueIndex:idx_result_snapshot_position,priority:1;not null"`
	Position   int  `gorm:"uniqueIndex:idx_result_snapshot_position,priority:2;not null"`
	VacancyID  uint `gorm:"index;not null"`
}
