// Package tasktable holds the sort state of the task table and the per-row
// rendering decisions (status indicator, avatar, edit permission).
package tasktable

import (
	"cmp"
	"slices"
	"strings"

	"github.com/tgienger/taskdesk/internal/models"
)

// Order is the direction of the active sort
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Column is a sortable header key
type Column string

const (
	ColTask        Column = "task"
	ColStatus      Column = "status"
	ColCategory    Column = "category"
	ColEstimate    Column = "estimate"
	ColResponsible Column = "responsible"
	ColOwner       Column = "owner"
)

// Columns is the allow-list of sortable headers, in header order.
// No other row key is ever offered as a header.
var Columns = []Column{ColTask, ColStatus, ColCategory, ColEstimate, ColResponsible, ColOwner}

// ParseColumn returns the column named key if it is sortable
func ParseColumn(key string) (Column, bool) {
	for _, c := range Columns {
		if string(c) == key {
			return c, true
		}
	}
	return "", false
}

// Kind is the semantic type of a column's values
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindStatus
)

// Kind returns how values of the column compare
func (c Column) Kind() Kind {
	switch c {
	case ColTask:
		return KindText
	case ColStatus:
		return KindStatus
	}
	return KindInt
}

// Value is a typed cell value
type Value struct {
	Kind   Kind
	Text   string
	Int    int64
	Status models.Status
}

// ValueOf extracts the raw sort value of a row for a column
func ValueOf(row models.ReadTask, c Column) Value {
	switch c {
	case ColTask:
		return Value{Kind: KindText, Text: row.Task}
	case ColStatus:
		return Value{Kind: KindStatus, Status: row.Status}
	case ColCategory:
		return Value{Kind: KindInt, Int: row.Category}
	case ColEstimate:
		return Value{Kind: KindInt, Int: int64(row.Estimate)}
	case ColResponsible:
		return Value{Kind: KindInt, Int: row.Responsible}
	case ColOwner:
		return Value{Kind: KindInt, Int: row.Owner}
	}
	return Value{}
}

// Compare is a three-way comparison of two values of the same kind.
// Text compares lexicographically by bytes, integers numerically and
// statuses by workflow rank.
func Compare(a, b Value) int {
	switch a.Kind {
	case KindText:
		return strings.Compare(a.Text, b.Text)
	case KindStatus:
		if c := cmp.Compare(a.Status.Rank(), b.Status.Rank()); c != 0 {
			return c
		}
		return strings.Compare(string(a.Status), string(b.Status))
	}
	return cmp.Compare(a.Int, b.Int)
}

// Sort returns rows ordered by column in the given direction. The input is
// not modified. Rows with equal keys keep their relative order.
func Sort(rows []models.ReadTask, c Column, order Order) []models.ReadTask {
	out := slices.Clone(rows)
	slices.SortStableFunc(out, func(a, b models.ReadTask) int {
		r := Compare(ValueOf(a, c), ValueOf(b, c))
		if order == Desc {
			return -r
		}
		return r
	})
	return out
}

// State is the working copy of the table. Rows is always a permutation of
// the last list passed to New or Refresh; Order and ActiveKey only affect
// display order.
type State struct {
	Rows      []models.ReadTask
	Order     Order
	ActiveKey Column
}

// New returns the initial state for a freshly fetched list
func New(rows []models.ReadTask) State {
	return State{
		Rows:  slices.Clone(rows),
		Order: Desc,
	}
}

// Refresh replaces the rows with a newly fetched list. The sort column and
// direction are kept but the new rows are not re-sorted until the next click.
func (s State) Refresh(rows []models.ReadTask) State {
	s.Rows = slices.Clone(rows)
	return s
}

// Click applies a header click. Clicking the active column while descending
// flips to ascending; any other click sorts descending. The current rows are
// re-sorted, not the upstream list. Unknown columns leave the state unchanged.
func (s State) Click(c Column) State {
	if _, ok := ParseColumn(string(c)); !ok {
		return s
	}
	order := Desc
	if c == s.ActiveKey && s.Order == Desc {
		order = Asc
	}
	return State{
		Rows:      Sort(s.Rows, c, order),
		Order:     order,
		ActiveKey: c,
	}
}

// Visible reports whether the table should render at all. It only renders
// when the first row carries a title.
func Visible(rows []models.ReadTask) bool {
	return len(rows) > 0 && rows[0].Task != ""
}

// CanModify reports whether the login user may edit or delete the row.
// This is a display decision; the API enforces ownership itself.
func CanModify(row models.ReadTask, loginUserID int64) bool {
	return row.Owner == loginUserID
}
