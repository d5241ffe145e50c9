package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/taskdesk/internal/models"
	"github.com/tgienger/taskdesk/internal/store"
	"github.com/tgienger/taskdesk/internal/ui/keys"
	"github.com/tgienger/taskdesk/internal/ui/styles"
)

const (
	authFocusUsername = iota
	authFocusPassword
	authFocusSubmit
	authFocusToggle
	authFocusCount
)

// AuthView is the login and registration screen
type AuthView struct {
	ctl    *Controller
	styles *styles.Styles
	keys   keys.KeyMap

	width  int
	height int

	username textinput.Model
	password textinput.Model
	focusIdx int
}

// NewAuthView creates the auth view. lastUsername prefills the username.
func NewAuthView(ctl *Controller, lastUsername string) *AuthView {
	username := textinput.New()
	username.Placeholder = "Username"
	username.CharLimit = 150
	username.SetValue(lastUsername)

	password := textinput.New()
	password.Placeholder = "Password"
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	v := &AuthView{
		ctl:      ctl,
		styles:   styles.NewStyles(),
		keys:     keys.DefaultKeyMap(),
		username: username,
		password: password,
	}
	if lastUsername != "" {
		v.focusIdx = authFocusPassword
	}
	v.updateFocus()
	return v
}

// Init initializes the view
func (v *AuthView) Init() tea.Cmd {
	return textinput.Blink
}

// Credential is what submit would send
func (v *AuthView) Credential() models.Credential {
	return models.Credential{
		Username: v.username.Value(),
		Password: v.password.Value(),
	}
}

// Update handles messages
func (v *AuthView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case tea.KeyMsg:
		switch {
		case msg.String() == "ctrl+c":
			return v, tea.Quit

		case key.Matches(msg, v.keys.ToggleMode):
			v.ctl.Dispatch(store.ToggleMode{})
			return v, nil

		case key.Matches(msg, v.keys.Submit):
			return v, v.submit()

		case key.Matches(msg, v.keys.Tab), key.Matches(msg, v.keys.Down) && v.focusIdx >= authFocusSubmit:
			v.cycleFocus(1)
			return v, nil

		case key.Matches(msg, v.keys.ShiftTab), key.Matches(msg, v.keys.Up) && v.focusIdx >= authFocusSubmit:
			v.cycleFocus(-1)
			return v, nil

		case key.Matches(msg, v.keys.Enter):
			switch v.focusIdx {
			case authFocusUsername:
				v.cycleFocus(1)
				return v, nil
			case authFocusToggle:
				v.ctl.Dispatch(store.ToggleMode{})
				return v, nil
			}
			return v, v.submit()
		}

		var cmd tea.Cmd
		switch v.focusIdx {
		case authFocusUsername:
			v.username, cmd = v.username.Update(msg)
		case authFocusPassword:
			v.password, cmd = v.password.Update(msg)
		}
		return v, cmd
	}

	return v, nil
}

// submit sends the credential as typed. Empty fields are not rejected here;
// the server answers with an error.
func (v *AuthView) submit() tea.Cmd {
	cred := v.Credential()
	if v.ctl.State().IsLoginView {
		return v.ctl.Login(cred)
	}
	return v.ctl.Register(cred)
}

func (v *AuthView) cycleFocus(dir int) {
	v.focusIdx = (v.focusIdx + dir + authFocusCount) % authFocusCount
	v.updateFocus()
}

func (v *AuthView) updateFocus() {
	v.username.Blur()
	v.password.Blur()
	switch v.focusIdx {
	case authFocusUsername:
		v.username.Focus()
	case authFocusPassword:
		v.password.Focus()
	}
}

// View renders the view
func (v *AuthView) View() string {
	st := v.ctl.State()

	title, submit, toggle := "Login", "Login", "Create an account"
	if !st.IsLoginView {
		title, submit, toggle = "Register", "Register", "Back to login"
	}

	inputWidth := clamp(styles.ContentWidth(v.width)-10, 20, 40)
	v.username.Width = inputWidth
	v.password.Width = inputWidth

	input := func(m textinput.Model, focused bool) string {
		if focused {
			return v.styles.InputFocused.Render(m.View())
		}
		return v.styles.Input.Render(m.View())
	}
	button := func(label string, focused bool) string {
		if focused {
			return v.styles.ButtonFocused.Render(label)
		}
		return v.styles.Button.Render(label)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		v.styles.Title.Render(title),
		"",
		input(v.username, v.focusIdx == authFocusUsername),
		input(v.password, v.focusIdx == authFocusPassword),
		"",
		lipgloss.JoinHorizontal(lipgloss.Top,
			button(submit, v.focusIdx == authFocusSubmit),
			" ",
			button(toggle, v.focusIdx == authFocusToggle),
		),
		v.renderHelp(),
	)

	return styles.CenterView(content, v.width, v.height)
}

func (v *AuthView) renderHelp() string {
	items := []struct{ key, desc string }{
		{"tab", "next"},
		{"enter", "submit"},
		{"ctrl+t", "login/register"},
		{"ctrl+c", "quit"},
	}
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, v.styles.HelpKey.Render(it.key)+" "+v.styles.HelpDesc.Render(it.desc))
	}
	return v.styles.Help.Render(strings.Join(parts, "  "))
}
