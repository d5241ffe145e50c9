package api_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/taskdesk/internal/api"
	"github.com/tgienger/taskdesk/internal/api/apitest"
	"github.com/tgienger/taskdesk/internal/models"
)

func newClient(t *testing.T) (*api.Client, *apitest.Server) {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)
	return api.New(srv.URL, 5*time.Second), srv
}

func TestLoginStoresToken(t *testing.T) {
	c, srv := newClient(t)
	u := srv.AddUser("alice", "secret")
	ctx := context.Background()

	tok, err := c.Login(ctx, models.Credential{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	assert.NotEmpty(t, tok.Access)
	assert.Equal(t, tok.Access, c.Token())

	me, err := c.LoginUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, u, me)
}

func TestLoginRejected(t *testing.T) {
	c, srv := newClient(t)
	srv.AddUser("alice", "secret")

	_, err := c.Login(context.Background(), models.Credential{Username: "alice", Password: "wrong"})
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))
	assert.Empty(t, c.Token())
}

func TestUnauthenticatedFetch(t *testing.T) {
	c, _ := newClient(t)

	_, err := c.Tasks(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.MethodGet, apiErr.Method)
	assert.Equal(t, "/api/tasks/", apiErr.Path)
}

func TestTaskCRUD(t *testing.T) {
	c, srv := newClient(t)
	u := srv.AddUser("alice", "secret")
	cat := srv.AddCategory("backend")
	c.SetToken(srv.Token(u.ID, time.Hour))
	ctx := context.Background()

	created, err := c.CreateTask(ctx, models.Task{
		Task:        "write client",
		Description: "http",
		Criteria:    "tests pass",
		Responsible: u.ID,
		Status:      models.StatusOnGoing,
		Category:    cat.ID,
		Estimate:    3,
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, u.ID, created.Owner)
	assert.Equal(t, "On going", created.StatusName)
	assert.Equal(t, "backend", created.CategoryItem)

	draft := created.Draft()
	draft.Estimate = 5
	updated, err := c.UpdateTask(ctx, draft)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Estimate)
	assert.Equal(t, created.ID, updated.ID)

	tasks, err := c.Tasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, 5, tasks[0].Estimate)

	require.NoError(t, c.DeleteTask(ctx, created.ID))
	tasks, err = c.Tasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestDeleteForeignTaskForbidden(t *testing.T) {
	c, srv := newClient(t)
	owner := srv.AddUser("alice", "a")
	other := srv.AddUser("bob", "b")
	row := srv.AddTask(owner.ID, models.Task{Task: "t", Description: "d", Criteria: "c", Status: models.StatusDone})
	c.SetToken(srv.Token(other.ID, time.Hour))

	err := c.DeleteTask(context.Background(), row.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, api.StatusOf(err))
	assert.Len(t, srv.Tasks(), 1)
}

func TestRegisterProfileAndCategories(t *testing.T) {
	c, _ := newClient(t)
	ctx := context.Background()
	cred := models.Credential{Username: "carol", Password: "pw"}

	u, err := c.Register(ctx, cred)
	require.NoError(t, err)
	assert.Equal(t, "carol", u.Username)

	_, err = c.Register(ctx, cred)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, api.StatusOf(err))

	_, err = c.Login(ctx, cred)
	require.NoError(t, err)

	p, err := c.CreateProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, u.ID, p.UserProfile)
	assert.Nil(t, p.Img)

	cat, err := c.CreateCategory(ctx, "ops")
	require.NoError(t, err)
	cats, err := c.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Category{cat}, cats)

	users, err := c.Users(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.User{u}, users)

	profiles, err := c.Profiles(ctx)
	require.NoError(t, err)
	assert.Len(t, profiles, 1)
}

func TestParseClaims(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()

	claims, err := api.ParseClaims(srv.Token(42, time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.False(t, claims.Expired(time.Now()))
	assert.True(t, claims.Expired(time.Now().Add(2*time.Hour)))

	_, err = api.ParseClaims("not-a-token")
	assert.Error(t, err)
}
