// Package store owns the client-side application state. State changes only
// through Dispatch; API calls live in Effects and report back as Commands.
package store

import (
	"errors"
	"fmt"
	"slices"

	"github.com/tgienger/taskdesk/internal/api"
	"github.com/tgienger/taskdesk/internal/models"
	"github.com/tgienger/taskdesk/internal/taskform"
)

// ErrSessionExpired replaces a 401 on an authenticated call
var ErrSessionExpired = errors.New("session expired, please log in again")

// State is a snapshot of everything the views render from
type State struct {
	IsLoginView   bool
	Authenticated bool
	LoginUser     models.User
	Profiles      []models.Profile
	Users         []models.User
	Tasks         []models.ReadTask
	Categories    []models.Category
	EditedTask    models.Task
	SelectedTask  models.ReadTask
	Err           error

	// TasksRev changes whenever Tasks is replaced or modified
	TasksRev int
}

// Initial returns the state before any login
func Initial() State {
	return State{
		IsLoginView: true,
		EditedTask:  taskform.Initial(),
	}
}

// Store holds the single application state. It is owned by one goroutine
// (the UI event loop) and is not safe for concurrent use.
type Store struct {
	state State
}

// New creates a store in the initial state
func New() *Store {
	return &Store{state: Initial()}
}

// State returns the current snapshot
func (s *Store) State() State {
	return s.state
}

// Dispatch applies a command
func (s *Store) Dispatch(cmd Command) {
	s.state = reduce(s.state, cmd)
}

func reduce(st State, cmd Command) State {
	switch c := cmd.(type) {
	case Batch:
		for _, sub := range c {
			st = reduce(st, sub)
		}

	case ToggleMode:
		st.IsLoginView = !st.IsLoginView

	case EditTask:
		st.EditedTask = c.Task

	case SelectTask:
		st.SelectedTask = c.Task

	case ResetEdit:
		st.EditedTask = taskform.Initial()
		st.SelectedTask = models.ReadTask{}

	case ClearError:
		st.Err = nil

	case Failed:
		if st.Authenticated && api.IsUnauthorized(c.Err) {
			st = loggedOut(st)
			st.Err = ErrSessionExpired
			break
		}
		st.Err = fmt.Errorf("%s: %w", c.Op, c.Err)

	case LoggedIn:
		st.Authenticated = true
		st.Err = nil

	case LoggedOut:
		st = loggedOut(st)

	case Registered:
		// nothing to keep; login follows in the same pipeline

	case LoginUserFetched:
		st.LoginUser = c.User

	case ProfilesFetched:
		st.Profiles = c.Profiles

	case UsersFetched:
		st.Users = c.Users

	case TasksFetched:
		st.Tasks = c.Tasks
		st.TasksRev++

	case CategoriesFetched:
		st.Categories = c.Categories

	case TaskCreated:
		st.Tasks = append([]models.ReadTask{c.Task}, st.Tasks...)
		st.TasksRev++
		st.EditedTask = taskform.Initial()

	case TaskUpdated:
		tasks := slices.Clone(st.Tasks)
		for i := range tasks {
			if tasks[i].ID == c.Task.ID {
				tasks[i] = c.Task
			}
		}
		st.Tasks = tasks
		st.TasksRev++
		st.EditedTask = taskform.Initial()
		st.SelectedTask = c.Task

	case TaskDeleted:
		st.Tasks = slices.DeleteFunc(slices.Clone(st.Tasks), func(t models.ReadTask) bool {
			return t.ID == c.ID
		})
		st.TasksRev++
		st.EditedTask = taskform.Initial()
		st.SelectedTask = models.ReadTask{}

	case CategoryCreated:
		st.Categories = append(slices.Clone(st.Categories), c.Category)

	case ProfileCreated:
		st.Profiles = append(slices.Clone(st.Profiles), c.Profile)
	}
	return st
}

// loggedOut resets everything but keeps TasksRev moving so views notice
// the emptied list
func loggedOut(st State) State {
	rev := st.TasksRev + 1
	st = Initial()
	st.TasksRev = rev
	return st
}
