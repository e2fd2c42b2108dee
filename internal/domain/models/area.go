package models

import (
	"regexp"
	"strings"
)

type Area struct {
	ID             string `gorm:"primaryKey"`
	Name           string
	NormalizedName string `gorm:"index"`
}

func NewArea(id, name string) Area {
	return Area{
		ID:             id,
		Name:           name,
		NormalizedName: NormalizeAreaName(name),
	}
}

var nonLetters = regexp.MustCompile(`[^\wа-яА-Я]+`)

func NormalizeAreaName(name string) string {
	str := strings.ToLower(name)
	str = strings.ReplaceAll(str, "ё", "е")
	str = strings.ReplaceAll(str, "й", "и")
	return nonLetters.ReplaceAllString(str, "")
}
