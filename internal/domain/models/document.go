package models

import (
	"fmt"
	"time"
)

type DocumentType int

const (
	DocumentCV          DocumentType = 1
	DocumentCoverLetter DocumentType = 2
)

func (t DocumentType) String() string {
	switch t {
	case DocumentCV:
		return "cv"
	case DocumentCoverLetter:
		return "cover_letter"
	default:
		return fmt.Sprintf("document_type(%d)", int(t))
	}
}

func (t DocumentType) Valid() bool {
	return t == DocumentCV || t == DocumentCoverLetter
}

// Document is a generated text for one (user, vacancy, type). Regeneration rewrites Text in place.
type Document struct {
	ID          uint         `gorm:"primaryKey"`
	UserID      int64        `gorm:"uniqueIndex:idx_document_key,priority:1;not null"`
	VacancyID   uint         `gorm:"uniqueIndex:idx_document_key,priority:2;not null"`
	Type        DocumentType `gorm:"uniqueIndex:idx_document_key,priority:3;not null"`
	Text        string       `gorm:"not null"`
	GeneratedAt time.Time
	CreatedAt   time.Time
}
