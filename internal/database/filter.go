package database

import (
	"fmt"
	"strings"

	"github.com/realtyhub/messaging/internal/models"
)

// Field names a filterable message column
type Field string

const (
	FieldFromUserID Field = "from_user_id"
	FieldToUserID   Field = "to_user_id"
	FieldPropertyID Field = "property_id"
	FieldIsRead     Field = "is_read"
)

// Order is the sort order of a message query
type Order int

const (
	SentAtDesc Order = iota
	SentAtAsc
)

// Query describes a message listing: filter, order and an optional limit (<= 0 means no limit)
type Query struct {
	Filter Filter
	Order  Order
	Limit  int
}

// Filter is a predicate over messages. It can be rendered to SQL or evaluated in memory
type Filter interface {
	Match(m *models.Message) bool
	sql(b *sqlBuilder) string
}

type eqFilter struct {
	field Field
	value interface{}
}

// Eq matches messages whose field equals value
func Eq(field Field, value interface{}) Filter {
	return eqFilter{field: field, value: value}
}

func (f eqFilter) Match(m *models.Message) bool {
	switch f.field {
	case FieldFromUserID:
		return m.FromUserID == f.value
	case FieldToUserID:
		return m.ToUserID == f.value
	case FieldPropertyID:
		return m.PropertyID != nil && *m.PropertyID == f.value
	case FieldIsRead:
		return m.IsRead == f.value
	}
	return false
}

func (f eqFilter) sql(b *sqlBuilder) string {
	return fmt.Sprintf("%s = %s", f.field, b.arg(f.value))
}

type logicalFilter struct {
	op      string
	filters []Filter
}

// And matches messages accepted by every filter
func And(filters ...Filter) Filter {
	return logicalFilter{op: "AND", filters: filters}
}

// Or matches messages accepted by at least one filter
func Or(filters ...Filter) Filter {
	return logicalFilter{op: "OR", filters: filters}
}

func (f logicalFilter) Match(m *models.Message) bool {
	if f.op == "AND" {
		for _, sub := range f.filters {
			if !sub.Match(m) {
				return false
			}
		}
		return true
	}
	for _, sub := range f.filters {
		if sub.Match(m) {
			return true
		}
	}
	return false
}

func (f logicalFilter) sql(b *sqlBuilder) string {
	if len(f.filters) == 0 {
		// empty AND is true, empty OR is false
		if f.op == "AND" {
			return "1 = 1"
		}
		return "1 = 0"
	}
	parts := make([]string, 0, len(f.filters))
	for _, sub := range f.filters {
		parts = append(parts, "("+sub.sql(b)+")")
	}
	return strings.Join(parts, " "+f.op+" ")
}

// sqlBuilder collects positional arguments while a filter is rendered
type sqlBuilder struct {
	placeholder func(n int) string
	args        []interface{}
}

func (b *sqlBuilder) arg(v interface{}) string {
	b.args = append(b.args, v)
	return b.placeholder(len(b.args))
}

func dollarPlaceholder(n int) string { return fmt.Sprintf("$%d", n) }

func questionPlaceholder(int) string { return "?" }

// whereClause renders q's filter, order and limit into the tail of a SELECT statement
func (q Query) whereClause(placeholder func(n int) string) (string, []interface{}) {
	b := &sqlBuilder{placeholder: placeholder}

	var sb strings.Builder
	if q.Filter != nil {
		sb.WriteString(" WHERE ")
		sb.WriteString(q.Filter.sql(b))
	}

	sb.WriteString(" ORDER BY COALESCE(sent_at, created_at)")
	if q.Order == SentAtAsc {
		sb.WriteString(" ASC")
	} else {
		sb.WriteString(" DESC")
	}

	if q.Limit > 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(b.arg(q.Limit))
	}

	return sb.String(), b.args
}
