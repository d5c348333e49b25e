package store

import (
	"context"

	"github.com/civicreport/api/internal/model"
	"gorm.io/gorm"
)

// Store groups the collections the application reads and writes.
type Store struct {
	db *gorm.DB

	Reports       *Table[model.Report]
	Users         *Table[model.User]
	Categories    *Table[model.Category]
	Subcategories *Table[model.Subcategory]
	Departments   *Table[model.Department]
	Backups       *Table[model.Backup]
}

func New(db *gorm.DB) (*Store, error) {
	s := &Store{db: db}
	var err error

	if s.Reports, err = NewTable[model.Report](db); err != nil {
		return nil, err
	}
	if s.Users, err = NewTable[model.User](db); err != nil {
		return nil, err
	}
	if s.Categories, err = NewTable[model.Category](db); err != nil {
		return nil, err
	}
	if s.Subcategories, err = NewTable[model.Subcategory](db); err != nil {
		return nil, err
	}
	if s.Departments, err = NewTable[model.Department](db); err != nil {
		return nil, err
	}
	if s.Backups, err = NewTable[model.Backup](db); err != nil {
		return nil, err
	}
	return s, nil
}

// DB exposes the underlying handle for callers that need a transaction or a
// query the collection surface does not cover.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Counts returns the number of records in each backed-up collection.
func (s *Store) Counts(ctx context.Context) (map[string]int64, error) {
	counters := []interface {
		Collection() string
		Count(context.Context, Filter) (int64, error)
	}{s.Reports, s.Users, s.Categories, s.Departments}

	counts := make(map[string]int64, len(counters))
	for _, c := range counters {
		n, err := c.Count(ctx, nil)
		if err != nil {
			return nil, err
		}
		counts[c.Collection()] = n
	}
	return counts, nil
}
