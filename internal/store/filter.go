package store

import "strings"

// Op is the comparison applied by a Predicate.
type Op int

const (
	// OpEquals matches the exact value.
	OpEquals Op = iota
	// OpContains matches a case-insensitive substring.
	OpContains
)

func (o Op) String() string {
	switch o {
	case OpEquals:
		return "equals"
	case OpContains:
		return "contains"
	default:
		return "unknown"
	}
}

type Predicate struct {
	Field string
	Op    Op
	Value any
}

// Filter is an ordered set of predicates combined with AND. A nil Filter
// matches every record.
type Filter []Predicate

func Where() Filter {
	return nil
}

func (f Filter) Eq(field string, value any) Filter {
	return f.with(Predicate{Field: field, Op: OpEquals, Value: value})
}

func (f Filter) Contains(field, substr string) Filter {
	return f.with(Predicate{Field: field, Op: OpContains, Value: substr})
}

// with appends without sharing the backing array, so a base filter can be
// extended in several directions.
func (f Filter) with(p Predicate) Filter {
	out := make(Filter, len(f), len(f)+1)
	copy(out, f)
	return append(out, p)
}

func (f Filter) exactOnly() bool {
	for _, p := range f {
		if p.Op != OpEquals {
			return false
		}
	}
	return true
}

type Order struct {
	Field string
	Desc  bool
}

func Asc(field string) *Order {
	return &Order{Field: field}
}

func Desc(field string) *Order {
	return &Order{Field: field, Desc: true}
}

// Patch is a partial record keyed by column name.
type Patch map[string]any

// likePattern builds a LIKE pattern for a lower-cased substring match using
// '!' as the escape character.
func likePattern(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}
