package store

import "github.com/tgienger/taskdesk/internal/models"

// Command is a typed action dispatched into the Store. The set is closed:
// only types in this package implement it.
type Command interface {
	command()
}

// ToggleMode flips the auth view between login and registration
type ToggleMode struct{}

// EditTask replaces the edit draft
type EditTask struct{ Task models.Task }

// SelectTask replaces the selected task
type SelectTask struct{ Task models.ReadTask }

// ResetEdit returns both the draft and the selected task to their initial values
type ResetEdit struct{}

// ClearError dismisses the current error banner
type ClearError struct{}

// Failed records a failed operation
type Failed struct {
	Op  string
	Err error
}

// LoggedIn records a successful login
type LoggedIn struct {
	Username string
	Token    string
}

// LoggedOut drops the session and returns to the login view
type LoggedOut struct{}

// Registered records a created account
type Registered struct{ User models.User }

type LoginUserFetched struct{ User models.User }

type ProfilesFetched struct{ Profiles []models.Profile }

type UsersFetched struct{ Users []models.User }

type TasksFetched struct{ Tasks []models.ReadTask }

type CategoriesFetched struct{ Categories []models.Category }

type TaskCreated struct{ Task models.ReadTask }

type TaskUpdated struct{ Task models.ReadTask }

type TaskDeleted struct{ ID int64 }

type CategoryCreated struct{ Category models.Category }

type ProfileCreated struct{ Profile models.Profile }

// Batch applies several commands in order
type Batch []Command

func (ToggleMode) command()        {}
func (EditTask) command()          {}
func (SelectTask) command()        {}
func (ResetEdit) command()         {}
func (ClearError) command()        {}
func (Failed) command()            {}
func (LoggedIn) command()          {}
func (LoggedOut) command()         {}
func (Registered) command()        {}
func (LoginUserFetched) command()  {}
func (ProfilesFetched) command()   {}
func (UsersFetched) command()      {}
func (TasksFetched) command()      {}
func (CategoriesFetched) command() {}
func (TaskCreated) command()       {}
func (TaskUpdated) command()       {}
func (TaskDeleted) command()       {}
func (CategoryCreated) command()   {}
func (ProfileCreated) command()    {}
func (Batch) command()             {}
