package store

import (
	"context"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/tgienger/taskdesk/internal/models"
)

// API is the subset of the remote API the store drives
type API interface {
	Login(ctx context.Context, cred models.Credential) (models.JWT, error)
	Register(ctx context.Context, cred models.Credential) (models.User, error)
	LoginUser(ctx context.Context) (models.User, error)
	CreateProfile(ctx context.Context) (models.Profile, error)
	Profiles(ctx context.Context) ([]models.Profile, error)
	Users(ctx context.Context) ([]models.User, error)
	Tasks(ctx context.Context) ([]models.ReadTask, error)
	CreateTask(ctx context.Context, t models.Task) (models.ReadTask, error)
	UpdateTask(ctx context.Context, t models.Task) (models.ReadTask, error)
	DeleteTask(ctx context.Context, id int64) error
	Categories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, item string) (models.Category, error)
}

// Effects performs API calls and turns their outcome into Commands. Effects
// never touch the Store, so they can run off the UI goroutine.
type Effects struct {
	api     API
	sfGroup singleflight.Group // overlapping refreshes share one request
}

// NewEffects creates effects bound to an API
func NewEffects(a API) *Effects {
	return &Effects{api: a}
}

func failed(op string, err error) Command {
	log.WithError(err).WithField("op", op).Warn("api call failed")
	return Failed{Op: op, Err: err}
}

func (e *Effects) loginStep(cred models.Credential) Step {
	return Step{Name: "login", Run: func(ctx context.Context) (Command, error) {
		tok, err := e.api.Login(ctx, cred)
		if err != nil {
			return nil, err
		}
		return LoggedIn{Username: cred.Username, Token: tok.Access}, nil
	}}
}

// Login logs in with cred
func (e *Effects) Login(ctx context.Context, cred models.Credential) Command {
	return e.logged(Pipeline{e.loginStep(cred)}.Run(ctx))
}

// Register creates an account, then logs in and creates the profile. Login
// and profile creation only run if the previous step succeeded.
func (e *Effects) Register(ctx context.Context, cred models.Credential) Command {
	return e.logged(Pipeline{
		{Name: "register", Run: func(ctx context.Context) (Command, error) {
			u, err := e.api.Register(ctx, cred)
			if err != nil {
				return nil, err
			}
			return Registered{User: u}, nil
		}},
		e.loginStep(cred),
		{Name: "create profile", Run: func(ctx context.Context) (Command, error) {
			p, err := e.api.CreateProfile(ctx)
			if err != nil {
				return nil, err
			}
			return ProfileCreated{Profile: p}, nil
		}},
	}.Run(ctx))
}

func (e *Effects) logged(b Batch) Batch {
	if f, ok := b.Failure(); ok {
		log.WithError(f.Err).WithField("op", f.Op).Warn("api call failed")
	}
	return b
}

// LoadAll fetches everything the task view needs. The fetches run in
// parallel; the first failure cancels the rest.
func (e *Effects) LoadAll(ctx context.Context) Command {
	var (
		user       models.User
		profiles   []models.Profile
		users      []models.User
		tasks      []models.ReadTask
		categories []models.Category
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { user, err = e.api.LoginUser(ctx); return })
	g.Go(func() (err error) { profiles, err = e.api.Profiles(ctx); return })
	g.Go(func() (err error) { users, err = e.api.Users(ctx); return })
	g.Go(func() (err error) { tasks, err = e.api.Tasks(ctx); return })
	g.Go(func() (err error) { categories, err = e.api.Categories(ctx); return })
	if err := g.Wait(); err != nil {
		return failed("load", err)
	}

	return Batch{
		LoginUserFetched{User: user},
		ProfilesFetched{Profiles: profiles},
		UsersFetched{Users: users},
		TasksFetched{Tasks: tasks},
		CategoriesFetched{Categories: categories},
	}
}

// FetchTasks reloads the task list. Calls made while a reload is in flight
// get its result. The shared request is bounded by the HTTP client timeout;
// each caller stops waiting when its own ctx is done.
func (e *Effects) FetchTasks(ctx context.Context) Command {
	ch := e.sfGroup.DoChan("tasks", func() (any, error) {
		return e.api.Tasks(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return failed("fetch tasks", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return failed("fetch tasks", res.Err)
		}
		return TasksFetched{Tasks: res.Val.([]models.ReadTask)}
	}
}

// CreateTask creates the draft as a new task
func (e *Effects) CreateTask(ctx context.Context, draft models.Task) Command {
	row, err := e.api.CreateTask(ctx, draft)
	if err != nil {
		return failed("create task", err)
	}
	return TaskCreated{Task: row}
}

// UpdateTask saves the draft over the existing task
func (e *Effects) UpdateTask(ctx context.Context, draft models.Task) Command {
	row, err := e.api.UpdateTask(ctx, draft)
	if err != nil {
		return failed("update task", err)
	}
	return TaskUpdated{Task: row}
}

// DeleteTask deletes a task
func (e *Effects) DeleteTask(ctx context.Context, id int64) Command {
	if err := e.api.DeleteTask(ctx, id); err != nil {
		return failed("delete task", err)
	}
	return TaskDeleted{ID: id}
}

// CreateCategory creates a category
func (e *Effects) CreateCategory(ctx context.Context, item string) Command {
	cat, err := e.api.CreateCategory(ctx, item)
	if err != nil {
		return failed("create category", err)
	}
	return CategoryCreated{Category: cat}
}
