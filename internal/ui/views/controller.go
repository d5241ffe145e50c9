package views

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tgienger/taskdesk/internal/models"
	"github.com/tgienger/taskdesk/internal/store"
)

// Result carries the outcome of an effect back into the event loop. The root
// model dispatches it into the store.
type Result struct {
	Command store.Command

	// session the effect was started in
	gen int
}

// Controller gives views read access to the store, synchronous dispatch for
// local edits, and async effects for API calls. It is only used from the
// event loop goroutine.
type Controller struct {
	store   *store.Store
	fx      *store.Effects
	timeout time.Duration
	pending int
	gen     int
}

// NewController creates a controller. timeout bounds every effect.
func NewController(s *store.Store, fx *store.Effects, timeout time.Duration) *Controller {
	return &Controller{store: s, fx: fx, timeout: timeout}
}

// State returns the current store snapshot
func (c *Controller) State() store.State {
	return c.store.State()
}

// Dispatch applies a command right away
func (c *Controller) Dispatch(cmd store.Command) {
	c.store.Dispatch(cmd)
}

// Pending is the number of effects still in flight
func (c *Controller) Pending() int {
	return c.pending
}

// Done marks one effect as finished and dispatches its result. Results of
// effects started before the last EndSession are dropped; it reports whether
// the result was applied.
func (c *Controller) Done(r Result) bool {
	if c.pending > 0 {
		c.pending--
	}
	if r.gen != c.gen {
		return false
	}
	c.store.Dispatch(r.Command)
	return true
}

// EndSession logs out of the store. Effects still in flight finish but their
// results are ignored.
func (c *Controller) EndSession() {
	c.gen++
	c.store.Dispatch(store.LoggedOut{})
}

// Expire marks the session as over after the store dropped it on its own
func (c *Controller) Expire() {
	c.gen++
}

func (c *Controller) run(op func(ctx context.Context) store.Command) tea.Cmd {
	c.pending++
	timeout, gen := c.timeout, c.gen
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		return Result{Command: op(ctx), gen: gen}
	}
}

func (c *Controller) Login(cred models.Credential) tea.Cmd {
	return c.run(func(ctx context.Context) store.Command { return c.fx.Login(ctx, cred) })
}

func (c *Controller) Register(cred models.Credential) tea.Cmd {
	return c.run(func(ctx context.Context) store.Command { return c.fx.Register(ctx, cred) })
}

func (c *Controller) LoadAll() tea.Cmd {
	return c.run(c.fx.LoadAll)
}

func (c *Controller) FetchTasks() tea.Cmd {
	return c.run(c.fx.FetchTasks)
}

func (c *Controller) CreateTask(draft models.Task) tea.Cmd {
	return c.run(func(ctx context.Context) store.Command { return c.fx.CreateTask(ctx, draft) })
}

func (c *Controller) UpdateTask(draft models.Task) tea.Cmd {
	return c.run(func(ctx context.Context) store.Command { return c.fx.UpdateTask(ctx, draft) })
}

func (c *Controller) DeleteTask(id int64) tea.Cmd {
	return c.run(func(ctx context.Context) store.Command { return c.fx.DeleteTask(ctx, id) })
}

func (c *Controller) CreateCategory(item string) tea.Cmd {
	return c.run(func(ctx context.Context) store.Command { return c.fx.CreateCategory(ctx, item) })
}
