package views

import (
	"net/http"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/taskdesk/internal/api"
	"github.com/tgienger/taskdesk/internal/api/apitest"
	"github.com/tgienger/taskdesk/internal/models"
	"github.com/tgienger/taskdesk/internal/store"
	"github.com/tgienger/taskdesk/internal/taskform"
	"github.com/tgienger/taskdesk/internal/tasktable"
)

func newTestController(t *testing.T) (*Controller, *api.Client, *apitest.Server) {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)
	client := api.New(srv.URL, 5*time.Second)
	return NewController(store.New(), store.NewEffects(client), 5*time.Second), client, srv
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(m tea.Model, s string) {
	for _, r := range s {
		m.Update(runes(string(r)))
	}
}

// finish runs an effect command and feeds its result back like the root
// model does
func finish(t *testing.T, ctl *Controller, cmd tea.Cmd) store.Command {
	t.Helper()
	require.NotNil(t, cmd)
	res, ok := cmd().(Result)
	require.True(t, ok, "command should produce a Result")
	ctl.Done(res)
	return res.Command
}

// loggedIn prepares a session for a user with the given tasks loaded
func loggedIn(t *testing.T) (*Controller, *apitest.Server, models.User, models.User) {
	t.Helper()
	ctl, client, srv := newTestController(t)
	ada := srv.AddUser("ada", "pw")
	bob := srv.AddUser("bob", "pw")
	srv.AddCategory("infra")
	img := "https://img.example.com/ada.png"
	srv.SetProfileImage(ada.ID, &img)
	srv.AddTask(ada.ID, models.Task{Task: "alpha", Description: "d", Criteria: "c", Responsible: ada.ID, Status: models.StatusDone, Category: 1, Estimate: 3})
	srv.AddTask(bob.ID, models.Task{Task: "charlie", Description: "d", Criteria: "c", Responsible: bob.ID, Status: models.StatusNotStarted, Category: 1, Estimate: 1})
	srv.AddTask(ada.ID, models.Task{Task: "bravo", Description: "d", Criteria: "c", Responsible: bob.ID, Status: models.StatusOnGoing, Category: 1, Estimate: 2})

	client.SetToken(srv.Token(ada.ID, time.Hour))
	ctl.Dispatch(store.LoggedIn{Username: "ada"})
	finish(t, ctl, ctl.LoadAll())
	require.NoError(t, ctl.State().Err)
	return ctl, srv, ada, bob
}

func TestAuthLogin(t *testing.T) {
	ctl, _, srv := newTestController(t)
	srv.AddUser("ada", "secret")

	v := NewAuthView(ctl, "")
	typeText(v, "ada")
	v.Update(tea.KeyMsg{Type: tea.KeyTab})
	typeText(v, "secret")

	assert.Equal(t, models.Credential{Username: "ada", Password: "secret"}, v.Credential())
	assert.NotContains(t, v.View(), "secret", "password is masked")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	finish(t, ctl, cmd)

	st := ctl.State()
	assert.True(t, st.Authenticated)
	assert.NoError(t, st.Err)
}

func TestAuthLoginFailureKeepsView(t *testing.T) {
	ctl, _, srv := newTestController(t)
	srv.AddUser("ada", "secret")

	v := NewAuthView(ctl, "ada")
	typeText(v, "wrong")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	finish(t, ctl, cmd)

	st := ctl.State()
	assert.False(t, st.Authenticated)
	assert.True(t, st.IsLoginView)
	assert.Error(t, st.Err)
}

func TestAuthToggleKeepsInputs(t *testing.T) {
	ctl, _, _ := newTestController(t)

	v := NewAuthView(ctl, "")
	typeText(v, "ada")
	v.Update(tea.KeyMsg{Type: tea.KeyCtrlT})

	assert.False(t, ctl.State().IsLoginView)
	assert.Equal(t, "ada", v.Credential().Username)
	assert.Contains(t, v.View(), "Register")

	v.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.True(t, ctl.State().IsLoginView)
}

func TestAuthRegisterRunsPipeline(t *testing.T) {
	ctl, _, srv := newTestController(t)

	v := NewAuthView(ctl, "")
	v.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	typeText(v, "neo")
	v.Update(tea.KeyMsg{Type: tea.KeyTab})
	typeText(v, "pw")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	finish(t, ctl, cmd)

	assert.True(t, ctl.State().Authenticated)
	assert.Equal(t, 1, srv.Calls(http.MethodPost, "/api/register/"))
	assert.Equal(t, 1, srv.Calls(http.MethodPost, "/authen/jwt/create/"))
	assert.Equal(t, 1, srv.Calls(http.MethodPost, "/api/profile/"))
}

func TestAuthRegisterFailureSkipsLogin(t *testing.T) {
	ctl, _, srv := newTestController(t)
	srv.Fail(http.MethodPost, "/api/register/", 1)

	v := NewAuthView(ctl, "")
	v.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	typeText(v, "neo")
	v.Update(tea.KeyMsg{Type: tea.KeyTab})
	typeText(v, "pw")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	finish(t, ctl, cmd)

	assert.False(t, ctl.State().Authenticated)
	assert.Error(t, ctl.State().Err)
	assert.Equal(t, 0, srv.Calls(http.MethodPost, "/authen/jwt/create/"))
	assert.Equal(t, 0, srv.Calls(http.MethodPost, "/api/profile/"))
}

func TestTableSortToggle(t *testing.T) {
	ctl, _, _, _ := loggedIn(t)
	v := NewTaskListView(ctl)
	require.Len(t, v.Table().Rows, 3)
	assert.Equal(t, tasktable.Desc, v.Table().Order)
	assert.Equal(t, tasktable.Column(""), v.Table().ActiveKey)

	v.Update(runes("1"))
	assert.Equal(t, tasktable.ColTask, v.Table().ActiveKey)
	assert.Equal(t, tasktable.Desc, v.Table().Order)
	assert.Equal(t, "charlie", v.Table().Rows[0].Task)

	v.Update(runes("1"))
	assert.Equal(t, tasktable.Asc, v.Table().Order)
	assert.Equal(t, "alpha", v.Table().Rows[0].Task)

	v.Update(runes("4"))
	assert.Equal(t, tasktable.ColEstimate, v.Table().ActiveKey)
	assert.Equal(t, tasktable.Desc, v.Table().Order)
	assert.Equal(t, 3, v.Table().Rows[0].Estimate)
}

func TestSortKeepsHighlightedRow(t *testing.T) {
	ctl, _, _, _ := loggedIn(t)
	v := NewTaskListView(ctl)

	v.Update(tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, "charlie", v.Table().Rows[v.Cursor()].Task)

	v.Update(runes("1"))
	assert.Equal(t, 0, v.Cursor())
	assert.Equal(t, "charlie", v.Table().Rows[v.Cursor()].Task)

	v.Update(runes("1"))
	assert.Equal(t, 2, v.Cursor())
	assert.Equal(t, "charlie", v.Table().Rows[v.Cursor()].Task)
}

// loadTitles loads tasks for ada in the given fetch order
func loadTitles(t *testing.T, titles ...string) (*Controller, models.User) {
	t.Helper()
	ctl, client, srv := newTestController(t)
	ada := srv.AddUser("ada", "pw")
	srv.AddCategory("infra")
	for _, title := range titles {
		srv.AddTask(ada.ID, models.Task{Task: title, Description: "d", Criteria: "c", Responsible: ada.ID, Status: models.StatusDone, Category: 1})
	}
	client.SetToken(srv.Token(ada.ID, time.Hour))
	ctl.Dispatch(store.LoggedIn{Username: "ada"})
	finish(t, ctl, ctl.LoadAll())
	require.NoError(t, ctl.State().Err)
	return ctl, ada
}

func TestVisibilityFollowsFetchedList(t *testing.T) {
	ctl, _ := loadTitles(t, "Apollo", "")
	v := NewTaskListView(ctl)

	v.Update(runes("1"))
	v.Update(runes("1"))
	require.Equal(t, "", v.Table().Rows[0].Task, "ascending sort puts the untitled row first")

	out := v.View()
	assert.NotContains(t, out, "No tasks yet")
	assert.Contains(t, out, "Apollo")
}

func TestHiddenTableIgnoresRowKeys(t *testing.T) {
	ctl, _ := loadTitles(t, "", "Apollo")
	v := NewTaskListView(ctl)
	require.Contains(t, v.View(), "No tasks yet")

	_, cmd := v.Update(runes("d"))
	assert.Nil(t, cmd)
	v.Update(runes("e"))
	assert.False(t, taskform.Active(ctl.State().EditedTask))
	v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Zero(t, ctl.State().SelectedTask.ID)
	v.Update(runes("1"))
	assert.Equal(t, tasktable.Column(""), v.Table().ActiveKey)

	v.Update(runes("n"))
	assert.True(t, taskform.Active(ctl.State().EditedTask), "new task still works")
}

func TestResultOfEndedSessionIsDropped(t *testing.T) {
	ctl, srv, ada, _ := loggedIn(t)
	srv.AddTask(ada.ID, models.Task{Task: "delta", Description: "d", Criteria: "c", Status: models.StatusDone, Category: 1})

	cmd := ctl.FetchTasks()
	ctl.EndSession()
	res, ok := cmd().(Result)
	require.True(t, ok)

	assert.False(t, ctl.Done(res))
	assert.Empty(t, ctl.State().Tasks)
	assert.Zero(t, ctl.Pending())
}

func TestTableRefreshKeepsSort(t *testing.T) {
	ctl, srv, ada, _ := loggedIn(t)
	v := NewTaskListView(ctl)
	v.Update(runes("1"))
	v.Update(runes("1"))

	srv.AddTask(ada.ID, models.Task{Task: "aardvark", Description: "d", Criteria: "c", Status: models.StatusDone, Category: 1})
	_, cmd := v.Update(runes("r"))
	finish(t, ctl, cmd)
	v.Sync()

	tbl := v.Table()
	assert.Equal(t, tasktable.Asc, tbl.Order)
	assert.Equal(t, tasktable.ColTask, tbl.ActiveKey)
	require.Len(t, tbl.Rows, 4)
	assert.Equal(t, "aardvark", tbl.Rows[3].Task, "refresh does not re-sort")
}

func TestSelectRowClearsDraft(t *testing.T) {
	ctl, _, _, _ := loggedIn(t)
	v := NewTaskListView(ctl)

	v.Update(runes("n"))
	require.True(t, taskform.Active(ctl.State().EditedTask))
	v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	v.Update(tea.KeyMsg{Type: tea.KeyDown})
	v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	st := ctl.State()
	assert.Equal(t, v.Table().Rows[1], st.SelectedTask)
	assert.Equal(t, taskform.Initial(), st.EditedTask)
	assert.Contains(t, v.View(), st.SelectedTask.Task)
}

func TestAddNewSeedsDraft(t *testing.T) {
	ctl, _, ada, _ := loggedIn(t)
	v := NewTaskListView(ctl)
	v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotZero(t, ctl.State().SelectedTask.ID)

	v.Update(runes("n"))
	st := ctl.State()
	assert.Equal(t, taskform.NewDraft(ada.ID), st.EditedTask)
	assert.Equal(t, models.ReadTask{}, st.SelectedTask)
	assert.Contains(t, v.View(), "New Task")
}

func TestEditAndDeleteOnlyOwnRows(t *testing.T) {
	ctl, srv, ada, _ := loggedIn(t)
	v := NewTaskListView(ctl)

	// row 1 in fetch order belongs to bob
	v.Update(tea.KeyMsg{Type: tea.KeyDown})
	require.NotEqual(t, ada.ID, v.Table().Rows[v.Cursor()].Owner)

	v.Update(runes("e"))
	assert.False(t, taskform.Active(ctl.State().EditedTask))
	_, cmd := v.Update(runes("d"))
	assert.Nil(t, cmd)

	v.Update(tea.KeyMsg{Type: tea.KeyUp})
	row := v.Table().Rows[v.Cursor()]
	require.Equal(t, ada.ID, row.Owner)

	v.Update(runes("e"))
	assert.Equal(t, row.Draft(), ctl.State().EditedTask)
	assert.Contains(t, v.View(), "Update Task")
	v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	_, cmd = v.Update(runes("d"))
	finish(t, ctl, cmd)
	assert.Len(t, ctl.State().Tasks, 2)
	assert.Len(t, srv.Tasks(), 2)
	assert.Len(t, v.Table().Rows, 2)
}

func TestFormCreateTask(t *testing.T) {
	ctl, srv, ada, _ := loggedIn(t)
	v := NewTaskListView(ctl)
	v.Update(runes("n"))

	// submit stays disabled until task, description and criteria are set
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Nil(t, cmd)

	typeText(v, "delta")
	v.Update(tea.KeyMsg{Type: tea.KeyTab})
	typeText(v, "desc")
	v.Update(tea.KeyMsg{Type: tea.KeyTab})
	typeText(v, "crit")
	v.Update(tea.KeyMsg{Type: tea.KeyTab})
	v.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	typeText(v, "5")

	d := ctl.State().EditedTask
	assert.Equal(t, models.Task{
		Task: "delta", Description: "desc", Criteria: "crit",
		Responsible: ada.ID, Status: models.StatusNotStarted, Category: 1, Estimate: 5,
	}, d)

	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	out := finish(t, ctl, cmd)
	require.IsType(t, store.TaskCreated{}, out)

	st := ctl.State()
	assert.Equal(t, "delta", st.Tasks[0].Task)
	assert.Equal(t, taskform.Initial(), st.EditedTask)
	assert.Len(t, srv.Tasks(), 4)
}

func TestFormEstimateCoercion(t *testing.T) {
	ctl, _, _, _ := loggedIn(t)
	v := NewTaskListView(ctl)
	v.Update(runes("n"))
	for i := 0; i < 3; i++ {
		v.Update(tea.KeyMsg{Type: tea.KeyTab})
	}
	v.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	typeText(v, "x")
	assert.Equal(t, 0, ctl.State().EditedTask.Estimate)
}

func TestFormUpdateTask(t *testing.T) {
	ctl, srv, _, _ := loggedIn(t)
	v := NewTaskListView(ctl)
	row := v.Table().Rows[0]

	v.Update(runes("e"))
	typeText(v, "!")
	assert.Equal(t, row.Task+"!", ctl.State().EditedTask.Task)

	// status selector cycles through the three statuses
	for i := 0; i < 5; i++ {
		v.Update(tea.KeyMsg{Type: tea.KeyTab})
	}
	v.Update(tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, models.StatusNotStarted, ctl.State().EditedTask.Status)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	out := finish(t, ctl, cmd)
	require.IsType(t, store.TaskUpdated{}, out)

	st := ctl.State()
	assert.Equal(t, row.Task+"!", st.SelectedTask.Task)
	assert.Equal(t, "Not started", st.SelectedTask.StatusName)
	assert.Equal(t, row.Task+"!", srv.Tasks()[0].Task)
}

func TestFormCancelResetsDraftAndSelection(t *testing.T) {
	ctl, _, _, _ := loggedIn(t)
	v := NewTaskListView(ctl)
	v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	v.Update(runes("e"))
	require.True(t, taskform.Active(ctl.State().EditedTask))

	v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	st := ctl.State()
	assert.Equal(t, taskform.Initial(), st.EditedTask)
	assert.Equal(t, models.ReadTask{}, st.SelectedTask)
}

func TestCategoryModal(t *testing.T) {
	ctl, _, _, _ := loggedIn(t)
	v := NewTaskListView(ctl)
	v.Update(runes("n"))

	v.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	require.True(t, v.form.ModalOpen())
	assert.Contains(t, v.View(), "New Category")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd, "save is disabled while empty")
	assert.True(t, v.form.ModalOpen())

	typeText(v, "ops")
	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, v.form.ModalOpen())
	finish(t, ctl, cmd)

	cats := ctl.State().Categories
	require.Len(t, cats, 2)
	assert.Equal(t, "ops", cats[1].Item)
	assert.True(t, taskform.Active(ctl.State().EditedTask), "draft survives")
}

func TestCategoryModalClosesOnFailure(t *testing.T) {
	ctl, srv, _, _ := loggedIn(t)
	srv.Fail(http.MethodPost, "/api/category/", 1)
	v := NewTaskListView(ctl)
	v.Update(runes("n"))
	v.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	typeText(v, "ops")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, v.form.ModalOpen())
	finish(t, ctl, cmd)
	assert.Error(t, ctl.State().Err)
	assert.Len(t, ctl.State().Categories, 1)
}

func TestEmptyListShowsHint(t *testing.T) {
	ctl, _, _ := newTestController(t)
	ctl.Dispatch(store.LoggedIn{Username: "ada"})
	v := NewTaskListView(ctl)

	assert.Contains(t, v.View(), "No tasks yet")
	_, cmd := v.Update(runes("e"))
	assert.Nil(t, cmd)
}

func TestRowRendering(t *testing.T) {
	ctl, _, _, _ := loggedIn(t)
	v := NewTaskListView(ctl)
	out := v.View()

	assert.Contains(t, out, "Done")
	assert.Contains(t, out, "On going")
	assert.Contains(t, out, "Not started")
	assert.Contains(t, out, "◉ ada", "ada has a profile image")
	assert.Contains(t, out, "○ bob", "bob has none")
}

func TestLogoutKey(t *testing.T) {
	ctl, _, _, _ := loggedIn(t)
	v := NewTaskListView(ctl)

	_, cmd := v.Update(runes("L"))
	require.NotNil(t, cmd)
	assert.Equal(t, LogoutRequested{}, cmd())
}

func TestFit(t *testing.T) {
	assert.Equal(t, "abc", fit("abc", 5))
	assert.Equal(t, "ab…", fit("abcdef", 3))
	assert.Equal(t, "", fit("abc", 0))
}
