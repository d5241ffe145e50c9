package views

import (
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/taskdesk/internal/models"
	"github.com/tgienger/taskdesk/internal/store"
	"github.com/tgienger/taskdesk/internal/taskform"
	"github.com/tgienger/taskdesk/internal/ui/keys"
	"github.com/tgienger/taskdesk/internal/ui/styles"
)

// Focus order of the form
const (
	formFocusTask = iota
	formFocusDescription
	formFocusCriteria
	formFocusEstimate
	formFocusResponsible
	formFocusStatus
	formFocusCategory
	formFocusSubmit
	formFocusCancel
	formFocusCount
)

// TaskFormView edits the store's draft. Every change is dispatched as the
// whole draft with one field replaced.
type TaskFormView struct {
	ctl    *Controller
	styles *styles.Styles
	keys   keys.KeyMap
	width  int

	task        textinput.Model
	description textarea.Model
	criteria    textarea.Model
	estimate    textinput.Model
	focusIdx    int

	// last draft loaded into or written from the inputs
	last   models.Task
	loaded bool

	modal      taskform.CategoryModal
	modalInput textinput.Model
}

// NewTaskFormView creates the form
func NewTaskFormView(ctl *Controller) *TaskFormView {
	task := textinput.New()
	task.Placeholder = "Task"
	task.CharLimit = 200

	description := textarea.New()
	description.Placeholder = "Description"
	description.CharLimit = 1000
	description.SetWidth(50)
	description.SetHeight(3)
	description.ShowLineNumbers = false

	criteria := textarea.New()
	criteria.Placeholder = "Criteria"
	criteria.CharLimit = 1000
	criteria.SetWidth(50)
	criteria.SetHeight(3)
	criteria.ShowLineNumbers = false

	estimate := textinput.New()
	estimate.Placeholder = "Estimate (days)"
	estimate.CharLimit = 6

	modalInput := textinput.New()
	modalInput.Placeholder = "New category"
	modalInput.CharLimit = 100

	return &TaskFormView{
		ctl:         ctl,
		styles:      styles.NewStyles(),
		keys:        keys.DefaultKeyMap(),
		task:        task,
		description: description,
		criteria:    criteria,
		estimate:    estimate,
		modalInput:  modalInput,
	}
}

// Init initializes the form
func (v *TaskFormView) Init() tea.Cmd {
	return textinput.Blink
}

// SetWidth resizes the inputs
func (v *TaskFormView) SetWidth(width int) {
	v.width = width
	w := clamp(width-6, 20, 60)
	v.task.Width = w
	v.estimate.Width = w
	v.modalInput.Width = clamp(w-4, 16, 40)
	v.description.SetWidth(w)
	v.criteria.SetWidth(w)
}

// Sync reloads the inputs when the draft was replaced outside the form, by
// "add new", edit, cancel or a finished save.
func (v *TaskFormView) Sync() {
	d := v.ctl.State().EditedTask
	if v.loaded && d == v.last {
		return
	}
	v.focusIdx = formFocusTask
	v.task.SetValue(d.Task)
	v.description.SetValue(d.Description)
	v.criteria.SetValue(d.Criteria)
	v.estimate.SetValue(strconv.Itoa(d.Estimate))
	v.last = d
	v.loaded = true
	v.updateFocus()
}

// ModalOpen reports whether the category modal is shown
func (v *TaskFormView) ModalOpen() bool {
	return v.modal.Open
}

// Update handles key input while the form is shown
func (v *TaskFormView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return v, nil
	}
	v.Sync()

	if v.modal.Open {
		return v.updateModal(keyMsg)
	}

	switch {
	case keyMsg.String() == "ctrl+c":
		return v, tea.Quit

	case key.Matches(keyMsg, v.keys.Back):
		v.ctl.Dispatch(store.ResetEdit{})
		v.Sync()
		return v, nil

	case key.Matches(keyMsg, v.keys.Submit):
		return v, v.submit()

	case key.Matches(keyMsg, v.keys.NewCategory):
		return v, v.openModal()

	case key.Matches(keyMsg, v.keys.Tab):
		v.cycleFocus(1)
		return v, nil

	case key.Matches(keyMsg, v.keys.ShiftTab):
		v.cycleFocus(-1)
		return v, nil
	}

	switch v.focusIdx {
	case formFocusTask, formFocusEstimate:
		if key.Matches(keyMsg, v.keys.Enter) {
			v.cycleFocus(1)
			return v, nil
		}
	case formFocusResponsible, formFocusStatus, formFocusCategory:
		return v, v.updateSelector(keyMsg)
	case formFocusSubmit:
		if key.Matches(keyMsg, v.keys.Enter) {
			return v, v.submit()
		}
		return v, nil
	case formFocusCancel:
		if key.Matches(keyMsg, v.keys.Enter) {
			v.ctl.Dispatch(store.ResetEdit{})
			v.Sync()
		}
		return v, nil
	}

	return v, v.updateText(keyMsg)
}

func (v *TaskFormView) updateText(msg tea.KeyMsg) tea.Cmd {
	var (
		cmd   tea.Cmd
		field taskform.Field
		value string
	)
	switch v.focusIdx {
	case formFocusTask:
		v.task, cmd = v.task.Update(msg)
		field, value = taskform.FieldTask, v.task.Value()
	case formFocusDescription:
		v.description, cmd = v.description.Update(msg)
		field, value = taskform.FieldDescription, v.description.Value()
	case formFocusCriteria:
		v.criteria, cmd = v.criteria.Update(msg)
		field, value = taskform.FieldCriteria, v.criteria.Value()
	case formFocusEstimate:
		v.estimate, cmd = v.estimate.Update(msg)
		field, value = taskform.FieldEstimate, v.estimate.Value()
	default:
		return nil
	}

	v.edit(taskform.Set(v.ctl.State().EditedTask, field, value))
	return cmd
}

func (v *TaskFormView) edit(d models.Task) {
	v.ctl.Dispatch(store.EditTask{Task: d})
	v.last = d
}

func (v *TaskFormView) updateSelector(msg tea.KeyMsg) tea.Cmd {
	dir := 0
	switch {
	case key.Matches(msg, v.keys.Left):
		dir = -1
	case key.Matches(msg, v.keys.Right):
		dir = 1
	case key.Matches(msg, v.keys.Enter), key.Matches(msg, v.keys.Down):
		v.cycleFocus(1)
		return nil
	case key.Matches(msg, v.keys.Up):
		v.cycleFocus(-1)
		return nil
	case msg.String() == "+" && v.focusIdx == formFocusCategory:
		return v.openModal()
	default:
		return nil
	}

	st := v.ctl.State()
	d := st.EditedTask
	switch v.focusIdx {
	case formFocusResponsible:
		ids := make([]int64, len(st.Users))
		for i, u := range st.Users {
			ids[i] = u.ID
		}
		if id, ok := step(ids, d.Responsible, dir); ok {
			v.edit(taskform.SetResponsible(d, id))
		}
	case formFocusStatus:
		if s, ok := step(models.Statuses, d.Status, dir); ok {
			v.edit(taskform.SetStatus(d, s))
		}
	case formFocusCategory:
		ids := make([]int64, len(st.Categories))
		for i, c := range st.Categories {
			ids[i] = c.ID
		}
		if id, ok := step(ids, d.Category, dir); ok {
			v.edit(taskform.SetCategory(d, id))
		}
	}
	return nil
}

// step moves dir places from cur in opts, wrapping around. A value not in
// opts steps to the first option.
func step[T comparable](opts []T, cur T, dir int) (T, bool) {
	var zero T
	if len(opts) == 0 {
		return zero, false
	}
	for i, o := range opts {
		if o == cur {
			return opts[(i+dir+len(opts))%len(opts)], true
		}
	}
	return opts[0], true
}

// submit routes the draft to create or update. Nothing happens while a
// required field is empty.
func (v *TaskFormView) submit() tea.Cmd {
	d := v.ctl.State().EditedTask
	if taskform.SubmitDisabled(d) {
		return nil
	}
	if taskform.Route(d) == taskform.ActionUpdate {
		return v.ctl.UpdateTask(d)
	}
	return v.ctl.CreateTask(d)
}

func (v *TaskFormView) openModal() tea.Cmd {
	v.modal = v.modal.Show()
	v.modalInput.SetValue(v.modal.Text)
	return v.modalInput.Focus()
}

func (v *TaskFormView) updateModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		v.modal = v.modal.Hide()
		v.modalInput.Blur()
		return v, nil

	case key.Matches(msg, v.keys.Enter), key.Matches(msg, v.keys.Submit):
		item, next, ok := v.modal.Save()
		v.modal = next
		if !ok {
			return v, nil
		}
		v.modal.Text = ""
		v.modalInput.Blur()
		return v, v.ctl.CreateCategory(item)
	}

	var cmd tea.Cmd
	v.modalInput, cmd = v.modalInput.Update(msg)
	v.modal.Text = v.modalInput.Value()
	return v, cmd
}

func (v *TaskFormView) cycleFocus(dir int) {
	v.focusIdx = (v.focusIdx + dir + formFocusCount) % formFocusCount
	v.updateFocus()
}

func (v *TaskFormView) updateFocus() {
	v.task.Blur()
	v.description.Blur()
	v.criteria.Blur()
	v.estimate.Blur()
	switch v.focusIdx {
	case formFocusTask:
		v.task.Focus()
	case formFocusDescription:
		v.description.Focus()
	case formFocusCriteria:
		v.criteria.Focus()
	case formFocusEstimate:
		v.estimate.Focus()
	}
}

// View renders the form, or the category modal when it is open
func (v *TaskFormView) View() string {
	v.Sync()
	if v.modal.Open {
		return v.renderModal()
	}

	st := v.ctl.State()
	d := st.EditedTask

	field := func(idx int, label, view string) string {
		box := v.styles.Input
		if v.focusIdx == idx {
			box = v.styles.InputFocused
		}
		return lipgloss.JoinVertical(lipgloss.Left, v.styles.Label.Render(label), box.Render(view))
	}
	selector := func(idx int, label, value string) string {
		text := "‹ " + value + " ›"
		if v.focusIdx == idx {
			text = v.styles.HeaderActive.Render(text)
		}
		return v.styles.Label.Render(label) + text
	}

	responsible := "-"
	for _, u := range st.Users {
		if u.ID == d.Responsible {
			responsible = u.Username
		}
	}
	category := "-"
	for _, c := range st.Categories {
		if c.ID == d.Category {
			category = c.Item
		}
	}
	categoryLine := selector(formFocusCategory, "Category", category)
	if v.focusIdx == formFocusCategory {
		categoryLine += v.styles.HelpDesc.Render("  + new")
	}

	submit := v.styles.Button
	switch {
	case taskform.SubmitDisabled(d):
		submit = v.styles.ButtonDisabled
	case v.focusIdx == formFocusSubmit:
		submit = v.styles.ButtonFocused
	}
	cancel := v.styles.Button
	if v.focusIdx == formFocusCancel {
		cancel = v.styles.ButtonFocused
	}

	return v.styles.Panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		v.styles.Title.Render(taskform.Title(d)),
		"",
		field(formFocusTask, "Task", v.task.View()),
		field(formFocusDescription, "Description", v.description.View()),
		field(formFocusCriteria, "Criteria", v.criteria.View()),
		field(formFocusEstimate, "Estimate", v.estimate.View()),
		"",
		selector(formFocusResponsible, "Responsible", responsible),
		selector(formFocusStatus, "Status", d.Status.Label()),
		categoryLine,
		"",
		lipgloss.JoinHorizontal(lipgloss.Top,
			submit.Render(taskform.SubmitLabel(d)),
			" ",
			cancel.Render("Cancel"),
		),
	))
}

func (v *TaskFormView) renderModal() string {
	save := v.styles.ButtonFocused
	if v.modal.SaveDisabled() {
		save = v.styles.ButtonDisabled
	}
	return v.styles.Modal.Render(lipgloss.JoinVertical(lipgloss.Left,
		v.styles.Title.Render("New Category"),
		"",
		v.styles.InputFocused.Render(v.modalInput.View()),
		"",
		save.Render("Save"),
		v.styles.HelpDesc.Render("enter save · esc close"),
	))
}
