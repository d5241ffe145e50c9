package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	log "github.com/sirupsen/logrus"

	"github.com/tgienger/taskdesk/internal/api"
	"github.com/tgienger/taskdesk/internal/store"
	"github.com/tgienger/taskdesk/internal/ui/styles"
	"github.com/tgienger/taskdesk/internal/ui/views"
)

// Currently active view
type View int

const (
	ViewAuth View = iota
	ViewTasks
)

// Session persists the login between runs
type Session interface {
	SaveSession(token, username string) error
	ClearSession() error
	LastUsername() (string, error)
}

// TokenHolder is the API client's credential slot
type TokenHolder interface {
	SetToken(token string)
}

type App struct {
	ctl      *views.Controller
	session  Session
	tokens   TokenHolder
	styles   *styles.Styles
	auth     *views.AuthView
	taskList *views.TaskListView
	spinner  spinner.Model
	width    int
	height   int
}

// Creates a new application
func NewApp(ctl *views.Controller, session Session, tokens TokenHolder) *App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	a := &App{
		ctl:     ctl,
		session: session,
		tokens:  tokens,
		styles:  styles.NewStyles(),
		spinner: sp,
	}
	a.auth = views.NewAuthView(ctl, a.lastUsername())
	return a
}

// Resume restores a stored session. Tokens that cannot be parsed or have
// expired are dropped and the auth view is shown instead.
func (a *App) Resume(token, username string, now time.Time) bool {
	if token == "" {
		return false
	}
	claims, err := api.ParseClaims(token)
	if err != nil || claims.Expired(now) {
		log.WithError(err).Info("stored session not usable")
		a.clearSession()
		return false
	}

	a.tokens.SetToken(token)
	a.ctl.Dispatch(store.LoggedIn{Username: username, Token: token})
	a.taskList = views.NewTaskListView(a.ctl)
	return true
}

func (a *App) lastUsername() string {
	name, err := a.session.LastUsername()
	if err != nil {
		log.WithError(err).Warn("read last username")
		return ""
	}
	return name
}

func (a *App) clearSession() {
	a.tokens.SetToken("")
	if err := a.session.ClearSession(); err != nil {
		log.WithError(err).Warn("clear session")
	}
}

// Current returns the view being shown
func (a *App) Current() View {
	if a.ctl.State().Authenticated && a.taskList != nil {
		return ViewTasks
	}
	return ViewAuth
}

func (a *App) Init() tea.Cmd {
	if a.Current() == ViewTasks {
		return a.track(a.ctl.LoadAll())
	}
	return a.auth.Init()
}

// track starts the spinner for a command that launched an effect
func (a *App) track(cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	return tea.Batch(cmd, a.spinner.Tick)
}

func (a *App) resize() tea.Cmd {
	return func() tea.Msg {
		return tea.WindowSizeMsg{Width: a.width, Height: a.height}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.auth.Update(msg)
		if a.taskList != nil {
			a.taskList.Update(msg)
		}
		return a, nil

	case spinner.TickMsg:
		if a.ctl.Pending() == 0 {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case views.Result:
		return a, a.handleResult(msg)

	case views.LogoutRequested:
		a.ctl.EndSession()
		a.clearSession()
		a.taskList = nil
		a.auth = views.NewAuthView(a.ctl, a.lastUsername())
		return a, tea.Batch(a.auth.Init(), a.resize())

	case tea.KeyMsg:
		// Any key dismisses the error banner and is then handled as usual
		if a.ctl.State().Err != nil {
			a.ctl.Dispatch(store.ClearError{})
		}
	}

	before := a.ctl.Pending()
	var cmd tea.Cmd
	switch a.Current() {
	case ViewAuth:
		_, cmd = a.auth.Update(msg)
	case ViewTasks:
		_, cmd = a.taskList.Update(msg)
	}

	if before == 0 && a.ctl.Pending() > 0 {
		cmd = a.track(cmd)
	}
	return a, cmd
}

// handleResult applies an effect result and reacts to session changes
func (a *App) handleResult(r views.Result) tea.Cmd {
	wasAuthenticated := a.ctl.State().Authenticated
	if !a.ctl.Done(r) {
		log.Debug("dropped result of an earlier session")
		return nil
	}
	st := a.ctl.State()

	if in, ok := findLoggedIn(r.Command); ok && st.Authenticated {
		a.tokens.SetToken(in.Token)
		if err := a.session.SaveSession(in.Token, in.Username); err != nil {
			log.WithError(err).Warn("save session")
		}
		log.WithField("username", in.Username).Info("logged in")
		a.taskList = views.NewTaskListView(a.ctl)
		return tea.Batch(a.track(a.ctl.LoadAll()), a.resize())
	}

	if wasAuthenticated && !st.Authenticated {
		log.Info("session expired")
		a.ctl.Expire()
		a.clearSession()
		a.taskList = nil
		a.auth = views.NewAuthView(a.ctl, a.lastUsername())
		return tea.Batch(a.auth.Init(), a.resize())
	}

	if a.taskList != nil {
		a.taskList.Sync()
	}
	return nil
}

func findLoggedIn(cmd store.Command) (store.LoggedIn, bool) {
	switch c := cmd.(type) {
	case store.LoggedIn:
		return c, true
	case store.Batch:
		for _, sub := range c {
			if in, ok := findLoggedIn(sub); ok {
				return in, true
			}
		}
	}
	return store.LoggedIn{}, false
}

func (a *App) View() string {
	var body string
	switch a.Current() {
	case ViewTasks:
		body = a.taskList.View()
	default:
		body = a.auth.View()
	}

	parts := make([]string, 0, 3)
	if err := a.ctl.State().Err; err != nil {
		parts = append(parts, a.styles.Banner.Render("✗ "+err.Error()))
	}
	parts = append(parts, body)
	if a.ctl.Pending() > 0 {
		parts = append(parts, a.styles.StatusBar.Render(a.spinner.View()+" working..."))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
