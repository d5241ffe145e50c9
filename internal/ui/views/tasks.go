package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/taskdesk/internal/models"
	"github.com/tgienger/taskdesk/internal/store"
	"github.com/tgienger/taskdesk/internal/taskform"
	"github.com/tgienger/taskdesk/internal/tasktable"
	"github.com/tgienger/taskdesk/internal/ui/keys"
	"github.com/tgienger/taskdesk/internal/ui/styles"
)

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// LogoutRequested asks the root model to end the session
type LogoutRequested struct{}

// column widths of the table; the actions column takes actionsWidth
var columnWidths = map[tasktable.Column]int{
	tasktable.ColTask:        24,
	tasktable.ColStatus:      13,
	tasktable.ColCategory:    12,
	tasktable.ColEstimate:    9,
	tasktable.ColResponsible: 14,
	tasktable.ColOwner:       14,
}

const actionsWidth = 5

// TaskListView shows the sortable task table with the form or the detail
// panel of the selected task below it
type TaskListView struct {
	ctl    *Controller
	styles *styles.Styles
	keys   keys.KeyMap
	form   *TaskFormView

	width  int
	height int

	table   tasktable.State
	seenRev int
	synced  bool
	cursor  int
	scrollY int

	// Help popup (shown with ?)
	showHelpPopup bool
}

// NewTaskListView creates the task view
func NewTaskListView(ctl *Controller) *TaskListView {
	v := &TaskListView{
		ctl:    ctl,
		styles: styles.NewStyles(),
		keys:   keys.DefaultKeyMap(),
		form:   NewTaskFormView(ctl),
	}
	v.Sync()
	return v
}

// Init initializes the view
func (v *TaskListView) Init() tea.Cmd {
	return nil
}

// Sync picks up a changed task list from the store. A refreshed list keeps
// the current sort column and direction.
func (v *TaskListView) Sync() {
	st := v.ctl.State()
	if v.synced && st.TasksRev == v.seenRev {
		return
	}
	if v.synced {
		v.table = v.table.Refresh(st.Tasks)
	} else {
		v.table = tasktable.New(st.Tasks)
	}
	v.seenRev = st.TasksRev
	v.synced = true
	v.cursor = clamp(v.cursor, 0, max(0, len(v.table.Rows)-1))
	v.ensureVisible()
}

// Table returns the current table state
func (v *TaskListView) Table() tasktable.State {
	v.Sync()
	return v.table
}

// Cursor is the index of the highlighted row
func (v *TaskListView) Cursor() int {
	return v.cursor
}

// Update handles messages
func (v *TaskListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	v.Sync()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.form.SetWidth(styles.ContentWidth(v.width))
		v.ensureVisible()
		return v, nil

	case tea.KeyMsg:
		// Any key closes the help popup
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		if taskform.Active(v.ctl.State().EditedTask) {
			return v.form.Update(msg)
		}

		return v.updateTable(msg)
	}

	return v, nil
}

func (v *TaskListView) updateTable(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := v.ctl.State()

	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		v.ctl.Dispatch(store.ResetEdit{})
		return v, nil

	case key.Matches(msg, v.keys.New):
		v.ctl.Dispatch(store.Batch{
			store.SelectTask{Task: models.ReadTask{}},
			store.EditTask{Task: taskform.NewDraft(st.LoginUser.ID)},
		})
		v.form.Sync()
		return v, nil

	case key.Matches(msg, v.keys.Refresh):
		return v, v.ctl.FetchTasks()

	case key.Matches(msg, v.keys.Logout):
		return v, func() tea.Msg { return LogoutRequested{} }

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil

	// row and sort keys only act on a table that is shown
	case !tasktable.Visible(st.Tasks):
		return v, nil

	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.table.Rows)-1 {
			v.cursor++
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if row, ok := v.current(); ok {
			v.ctl.Dispatch(store.Batch{
				store.SelectTask{Task: row},
				store.EditTask{Task: taskform.Initial()},
			})
		}
		return v, nil

	case key.Matches(msg, v.keys.Edit):
		if row, ok := v.current(); ok && tasktable.CanModify(row, st.LoginUser.ID) {
			v.ctl.Dispatch(store.EditTask{Task: row.Draft()})
			v.form.Sync()
		}
		return v, nil

	case key.Matches(msg, v.keys.Delete):
		if row, ok := v.current(); ok && tasktable.CanModify(row, st.LoginUser.ID) {
			return v, v.ctl.DeleteTask(row.ID)
		}
		return v, nil
	}

	if c, ok := v.sortColumn(msg); ok {
		v.sortBy(c)
		return v, nil
	}

	return v, nil
}

// sortBy applies a header click and keeps the highlighted task under the
// cursor
func (v *TaskListView) sortBy(c tasktable.Column) {
	prev, had := v.current()
	v.table = v.table.Click(c)
	if !had {
		return
	}
	for i, row := range v.table.Rows {
		if row.ID == prev.ID {
			v.cursor = i
			break
		}
	}
	v.ensureVisible()
}

func (v *TaskListView) sortColumn(msg tea.KeyMsg) (tasktable.Column, bool) {
	bindings := []key.Binding{
		v.keys.SortTask,
		v.keys.SortStatus,
		v.keys.SortCategory,
		v.keys.SortEstimate,
		v.keys.SortResponsible,
		v.keys.SortOwner,
	}
	for i, b := range bindings {
		if key.Matches(msg, b) {
			return tasktable.Columns[i], true
		}
	}
	return "", false
}

func (v *TaskListView) current() (models.ReadTask, bool) {
	if v.cursor < 0 || v.cursor >= len(v.table.Rows) {
		return models.ReadTask{}, false
	}
	return v.table.Rows[v.cursor], true
}

// visibleRows is how many table rows fit. Zero means no limit.
func (v *TaskListView) visibleRows() int {
	if v.height == 0 {
		return 0
	}
	return max(3, (v.height-10)/2)
}

func (v *TaskListView) ensureVisible() {
	n := v.visibleRows()
	if n == 0 {
		v.scrollY = 0
		return
	}
	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	}
	if v.cursor >= v.scrollY+n {
		v.scrollY = v.cursor - n + 1
	}
}

// View renders the view
func (v *TaskListView) View() string {
	v.Sync()

	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	st := v.ctl.State()

	var b strings.Builder
	b.WriteString(v.renderTitle(st))
	b.WriteString("\n\n")

	if tasktable.Visible(st.Tasks) {
		b.WriteString(v.renderTable(st))
	} else {
		b.WriteString(v.styles.EmptyState.Render("No tasks yet. Press n to add one."))
	}
	b.WriteString("\n")

	switch {
	case taskform.Active(st.EditedTask):
		b.WriteString(v.form.View())
	case st.SelectedTask.ID != 0:
		b.WriteString(v.renderDetail(st.SelectedTask))
	}

	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *TaskListView) renderTitle(st store.State) string {
	title := v.styles.Title.Render("Tasks")
	user := v.styles.TitleMuted.Render(fmt.Sprintf("  %d tasks · logged in as %s", len(st.Tasks), st.LoginUser.Username))
	return title + user
}

func (v *TaskListView) renderTable(st store.State) string {
	var b strings.Builder

	// header
	b.WriteString("  ")
	for i, c := range tasktable.Columns {
		label := fmt.Sprintf("%d %s", i+1, c)
		style := v.styles.Header
		if c == v.table.ActiveKey {
			style = v.styles.HeaderActive
			if v.table.Order == tasktable.Asc {
				label += " ▲"
			} else {
				label += " ▼"
			}
		}
		b.WriteString(pad(style.Render(fit(label, columnWidths[c])), columnWidths[c]))
	}
	b.WriteString("\n")

	rows := v.table.Rows
	start, end := 0, len(rows)
	if n := v.visibleRows(); n > 0 {
		start = v.scrollY
		end = min(len(rows), start+n)
	}

	for i := start; i < end; i++ {
		b.WriteString(v.renderRow(st, rows[i], i == v.cursor))
		b.WriteString("\n")
	}

	if end-start < len(rows) {
		b.WriteString(v.styles.TitleMuted.Render(fmt.Sprintf("  %d-%d of %d", start+1, end, len(rows))))
		b.WriteString("\n")
	}

	return b.String()
}

func (v *TaskListView) renderRow(st store.State, row models.ReadTask, selected bool) string {
	marker := "  "
	taskStyle := v.styles.Row
	if selected {
		marker = v.styles.HeaderActive.Render("▸ ")
		taskStyle = v.styles.RowSelected
	}

	cells := []string{
		pad(taskStyle.Render(fit(row.Task, columnWidths[tasktable.ColTask]-1)), columnWidths[tasktable.ColTask]),
		pad(v.renderStatus(row.StatusName), columnWidths[tasktable.ColStatus]),
		pad(v.styles.Row.Render(fit(row.CategoryItem, columnWidths[tasktable.ColCategory]-1)), columnWidths[tasktable.ColCategory]),
		pad(v.styles.Row.Render(fmt.Sprintf("%d", row.Estimate)), columnWidths[tasktable.ColEstimate]),
		pad(v.renderAvatar(st.Profiles, row.Responsible, row.ResponsibleUsername, columnWidths[tasktable.ColResponsible]-1), columnWidths[tasktable.ColResponsible]),
		pad(v.renderAvatar(st.Profiles, row.Owner, row.OwnerUsername, columnWidths[tasktable.ColOwner]-1), columnWidths[tasktable.ColOwner]),
	}

	actions := v.styles.Disabled.Render("✎ ✗")
	if tasktable.CanModify(row, st.LoginUser.ID) {
		actions = v.styles.Row.Render("✎ ✗")
	}
	cells = append(cells, pad(actions, actionsWidth))

	return marker + strings.Join(cells, "")
}

func (v *TaskListView) renderStatus(label string) string {
	switch tasktable.StatusIndicator(label) {
	case tasktable.IndicatorError:
		return v.styles.BadgeError.Render(label)
	case tasktable.IndicatorPrimary:
		return v.styles.BadgePrimary.Render(label)
	case tasktable.IndicatorSecondary:
		return v.styles.BadgeSecondary.Render(label)
	}
	return ""
}

// renderAvatar shows the image marker when the user has a profile image and
// a placeholder otherwise
func (v *TaskListView) renderAvatar(profiles []models.Profile, userID int64, username string, width int) string {
	if _, ok := tasktable.Avatar(profiles, userID); ok {
		return v.styles.Avatar.Render(fit("◉ "+username, width))
	}
	return v.styles.AvatarPlaceholder.Render(fit("○ "+username, width))
}

func (v *TaskListView) renderDetail(t models.ReadTask) string {
	line := func(label, value string) string {
		return v.styles.Label.Render(label) + value
	}
	return v.styles.Panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		v.styles.Title.Render(t.Task),
		"",
		line("Description", t.Description),
		line("Criteria", t.Criteria),
		line("Status", v.renderStatus(t.StatusName)),
		line("Category", t.CategoryItem),
		line("Estimate", fmt.Sprintf("%d days", t.Estimate)),
		line("Responsible", t.ResponsibleUsername),
		line("Owner", t.OwnerUsername),
		line("Created", t.CreatedAt),
		line("Updated", t.UpdatedAt),
	))
}

func (v *TaskListView) renderHelp() string {
	if taskform.Active(v.ctl.State().EditedTask) {
		return v.helpLine([]key.Binding{v.keys.Tab, v.keys.Left, v.keys.Right, v.keys.Submit, v.keys.NewCategory, v.keys.Back})
	}
	return v.helpLine([]key.Binding{v.keys.Up, v.keys.Down, v.keys.Enter, v.keys.New, v.keys.Edit, v.keys.Delete, v.keys.Help})
}

func (v *TaskListView) helpLine(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, v.styles.HelpKey.Render(h.Key)+" "+v.styles.HelpDesc.Render(h.Desc))
	}
	return v.styles.Help.Render(strings.Join(parts, "  "))
}

func (v *TaskListView) renderHelpPopup() string {
	bindings := []key.Binding{
		v.keys.Up, v.keys.Down, v.keys.Enter, v.keys.Back,
		v.keys.New, v.keys.Edit, v.keys.Delete, v.keys.Refresh,
		v.keys.SortTask, v.keys.SortStatus, v.keys.SortCategory,
		v.keys.SortEstimate, v.keys.SortResponsible, v.keys.SortOwner,
		v.keys.Logout, v.keys.Quit,
	}
	lines := make([]string, 0, len(bindings)+2)
	lines = append(lines, v.styles.Title.Render("Keys"), "")
	for _, b := range bindings {
		h := b.Help()
		lines = append(lines, v.styles.HelpKey.Render(fmt.Sprintf("%-8s", h.Key))+" "+v.styles.HelpDesc.Render(h.Desc))
	}
	lines = append(lines, "", v.styles.HelpDesc.Render("press any key to close"))

	content := v.styles.Modal.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	return styles.CenterView(content, v.width, v.height)
}

// fit truncates s to at most width runes
func fit(s string, width int) string {
	r := []rune(s)
	if width <= 0 {
		return ""
	}
	if len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

// pad right-pads an already styled string to width cells
func pad(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
