package specification

import (
	"fmt"

	"gorm.io/gorm"
)

// OrderBy applies ordering
type OrderBy struct {
	Field string
	Desc  bool
}

func (s OrderBy) Apply(db *gorm.DB) *gorm.DB {
	direction := "ASC"
	if s.Desc {
		direction = "DESC"
	}
	return db.Order(fmt.Sprintf("%s %s", s.Field, direction))
}

// Pagination
type Pagination struct {
	Limit  int
	Offset int
}

func (s Pagination) Apply(db *gorm.DB) *gorm.DB {
	return db.Limit(s.Limit).Offset(s.Offset)
}

// TextRegex matches a column against a case-insensitive POSIX regex.
type TextRegex struct {
	Column  string
	Pattern string
}

func (s TextRegex) Apply(db *gorm.DB) *gorm.DB {
	return db.Where(fmt.Sprintf("%s ~* ?", s.Column), s.Pattern)
}
