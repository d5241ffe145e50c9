// Package taskform holds the edit-draft rules of the task form: field merges,
// submit gating and routing, and the inline category modal.
package taskform

import (
	"strconv"
	"strings"

	"github.com/tgienger/taskdesk/internal/models"
)

// Field names an editable text field of the draft
type Field string

const (
	FieldTask        Field = "task"
	FieldDescription Field = "description"
	FieldCriteria    Field = "criteria"
	FieldEstimate    Field = "estimate"
)

// Initial is the empty draft. Its empty status keeps the form closed.
func Initial() models.Task {
	return models.Task{}
}

// Active reports whether the draft is open in the form. "Add new" and
// editing a row both set a status; cancel and row selection clear it.
func Active(d models.Task) bool {
	return d.Status != ""
}

// NewDraft seeds the draft used by "add new"
func NewDraft(loginUserID int64) models.Task {
	return models.Task{
		Responsible: loginUserID,
		Status:      models.StatusNotStarted,
		Category:    1,
	}
}

// Set merges one text field into the draft and leaves every other field as
// it was. Estimate input is coerced to a number; anything unparsable or
// negative becomes 0.
func Set(d models.Task, f Field, raw string) models.Task {
	switch f {
	case FieldTask:
		d.Task = raw
	case FieldDescription:
		d.Description = raw
	case FieldCriteria:
		d.Criteria = raw
	case FieldEstimate:
		d.Estimate = ParseEstimate(raw)
	}
	return d
}

// ParseEstimate converts estimate input to days
func ParseEstimate(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// SetResponsible merges the responsible user into the draft
func SetResponsible(d models.Task, userID int64) models.Task {
	d.Responsible = userID
	return d
}

// SetStatus merges the status into the draft
func SetStatus(d models.Task, s models.Status) models.Task {
	d.Status = s
	return d
}

// SetCategory merges the category into the draft
func SetCategory(d models.Task, categoryID int64) models.Task {
	d.Category = categoryID
	return d
}

// SubmitDisabled reports whether submit is a no-op. Emptiness is exact: a
// field holding only spaces still counts as filled.
func SubmitDisabled(d models.Task) bool {
	return len(d.Task) == 0 || len(d.Description) == 0 || len(d.Criteria) == 0
}

// Action is what submitting the draft does
type Action int

const (
	ActionCreate Action = iota
	ActionUpdate
)

// Route picks update for drafts of existing tasks and create otherwise
func Route(d models.Task) Action {
	if d.IsNew() {
		return ActionCreate
	}
	return ActionUpdate
}

// Title is the form heading for the draft
func Title(d models.Task) string {
	if d.IsNew() {
		return "New Task"
	}
	return "Update Task"
}

// SubmitLabel is the submit button caption for the draft
func SubmitLabel(d models.Task) string {
	if Route(d) == ActionUpdate {
		return "Update"
	}
	return "Save"
}
