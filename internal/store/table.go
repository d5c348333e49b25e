package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/civicreport/api/internal/validator"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// Table is the CRUD surface over one collection. Field names in filters,
// orderings and patches must be column names of T; anything else is rejected
// before a query is issued. T must have an int64 primary key.
type Table[T any] struct {
	db         *gorm.DB
	collection string
	primaryKey string
	columns    map[string]struct{}
}

func NewTable[T any](db *gorm.DB) (*Table[T], error) {
	sch, err := schema.Parse(new(T), &sync.Map{}, db.NamingStrategy)
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	if sch.PrioritizedPrimaryField == nil {
		return nil, fmt.Errorf("%s has no primary key", sch.Table)
	}

	columns := make(map[string]struct{}, len(sch.DBNames))
	for _, name := range sch.DBNames {
		columns[name] = struct{}{}
	}

	return &Table[T]{
		db:         db,
		collection: sch.Table,
		primaryKey: sch.PrioritizedPrimaryField.DBName,
		columns:    columns,
	}, nil
}

func (t *Table[T]) Collection() string {
	return t.collection
}

func (t *Table[T]) Insert(ctx context.Context, record *T) (*T, error) {
	if err := t.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, t.backendErr("insert", err)
	}
	return record, nil
}

func (t *Table[T]) Select(ctx context.Context, filter Filter, order *Order) ([]T, error) {
	q, err := t.where(t.db.WithContext(ctx).Model(new(T)), filter)
	if err != nil {
		return nil, err
	}
	if order != nil {
		if err := t.checkField(order.Field); err != nil {
			return nil, err
		}
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: order.Field}, Desc: order.Desc})
	}

	records := make([]T, 0)
	if err := q.Find(&records).Error; err != nil {
		return nil, t.backendErr("select", err)
	}
	return records, nil
}

// First returns the first record matching filter or a *NotFoundError.
func (t *Table[T]) First(ctx context.Context, filter Filter) (*T, error) {
	q, err := t.where(t.db.WithContext(ctx).Model(new(T)), filter)
	if err != nil {
		return nil, err
	}

	var records []T
	if err := q.Limit(1).Find(&records).Error; err != nil {
		return nil, t.backendErr("select", err)
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Collection: t.collection}
	}
	return &records[0], nil
}

// Update applies patch to every record matching filter and returns the
// updated records. Only exact-match predicates are allowed.
func (t *Table[T]) Update(ctx context.Context, patch Patch, filter Filter) ([]T, error) {
	if len(patch) == 0 {
		return nil, validator.New("patch", "nothing to update")
	}
	if !filter.exactOnly() {
		return nil, validator.New("filter", "update accepts exact-match predicates only")
	}
	for field := range patch {
		if field == t.primaryKey {
			return nil, validator.New(field, "primary key cannot be updated")
		}
		if err := t.checkField(field); err != nil {
			return nil, err
		}
	}

	updated := make([]T, 0)
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q, err := t.where(tx.Model(new(T)), filter)
		if err != nil {
			return err
		}

		var ids []int64
		if err := q.Pluck(t.primaryKey, &ids).Error; err != nil {
			return t.backendErr("update", err)
		}
		if len(ids) == 0 {
			return nil
		}

		byID := clause.IN{Column: clause.Column{Name: t.primaryKey}, Values: int64Values(ids)}
		if err := tx.Model(new(T)).Where(byID).Updates(map[string]any(patch)).Error; err != nil {
			return t.backendErr("update", err)
		}
		if err := tx.Model(new(T)).Where(byID).Find(&updated).Error; err != nil {
			return t.backendErr("update", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes every record matching filter. Matching nothing is not an
// error; an empty filter is.
func (t *Table[T]) Delete(ctx context.Context, filter Filter) error {
	if len(filter) == 0 {
		return validator.New("filter", "delete requires at least one predicate")
	}
	q, err := t.where(t.db.WithContext(ctx), filter)
	if err != nil {
		return err
	}
	if err := q.Delete(new(T)).Error; err != nil {
		return t.backendErr("delete", err)
	}
	return nil
}

func (t *Table[T]) Count(ctx context.Context, filter Filter) (int64, error) {
	q, err := t.where(t.db.WithContext(ctx).Model(new(T)), filter)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, t.backendErr("count", err)
	}
	return n, nil
}

func (t *Table[T]) where(q *gorm.DB, filter Filter) (*gorm.DB, error) {
	for _, p := range filter {
		if err := t.checkField(p.Field); err != nil {
			return nil, err
		}
		col := clause.Column{Name: p.Field}

		switch p.Op {
		case OpEquals:
			q = q.Where(clause.Eq{Column: col, Value: p.Value})
		case OpContains:
			s, ok := p.Value.(string)
			if !ok {
				return nil, validator.New(p.Field, "contains expects a string value")
			}
			q = q.Where(clause.Expr{
				SQL:  "LOWER(?) LIKE ? ESCAPE '!'",
				Vars: []any{col, likePattern(s)},
			})
		default:
			return nil, validator.New(p.Field, "unsupported operator "+p.Op.String())
		}
	}
	return q, nil
}

func (t *Table[T]) checkField(field string) error {
	if _, ok := t.columns[field]; !ok {
		return validator.New(field, fmt.Sprintf("unknown field for %s", t.collection))
	}
	return nil
}

func (t *Table[T]) backendErr(op string, err error) error {
	return &BackendError{Op: op, Collection: t.collection, Err: err}
}

func int64Values(ids []int64) []any {
	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	return values
}
