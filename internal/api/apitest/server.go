// Package apitest runs an in-memory stand-in for the task tracker API.
package apitest

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/tgienger/taskdesk/internal/models"
)

var signingKey = []byte("apitest")

// Server is a fake API backed by maps. Zero or more failures can be injected
// per path with Fail.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	nextID     int64
	users      map[int64]models.User
	passwords  map[string]string
	profiles   []models.Profile
	tasks      []models.ReadTask
	categories []models.Category
	calls      map[string]int
	failures   map[string]int
}

// New starts a fake API server. Callers must Close it.
func New() *Server {
	s := &Server{
		nextID:    1,
		users:     make(map[int64]models.User),
		passwords: make(map[string]string),
		calls:     make(map[string]int),
		failures:  make(map[string]int),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(s.count)

	e.POST("/authen/jwt/create/", s.login)
	e.POST("/api/register/", s.register)

	authed := e.Group("/api", s.authenticate)
	authed.GET("/loginuser/", s.loginUser)
	authed.GET("/users/", s.listUsers)
	authed.GET("/profile/", s.listProfiles)
	authed.POST("/profile/", s.createProfile)
	authed.GET("/tasks/", s.listTasks)
	authed.POST("/tasks/", s.createTask)
	authed.PUT("/tasks/:id/", s.updateTask)
	authed.DELETE("/tasks/:id/", s.deleteTask)
	authed.GET("/category/", s.listCategories)
	authed.POST("/category/", s.createCategory)

	s.Server = httptest.NewServer(e)
	return s
}

// AddUser registers an account directly and returns it
func (s *Server) AddUser(username, password string) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(username, password)
}

// AddCategory creates a category directly
func (s *Server) AddCategory(item string) models.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := models.Category{ID: s.id(), Item: item}
	s.categories = append(s.categories, c)
	return c
}

// AddTask stores a task owned by owner and returns the row
func (s *Server) AddTask(owner int64, t models.Task) models.ReadTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.id()
	row := s.rowLocked(t, owner)
	s.tasks = append(s.tasks, row)
	return row
}

// SetProfileImage sets the avatar of a user, creating the profile if needed
func (s *Server) SetProfileImage(userID int64, img *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.profiles {
		if s.profiles[i].UserProfile == userID {
			s.profiles[i].Img = img
			return
		}
	}
	s.profiles = append(s.profiles, models.Profile{ID: s.id(), UserProfile: userID, Img: img})
}

// Token issues a valid access token for a user
func (s *Server) Token(userID int64, ttl time.Duration) string {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(ttl).Unix(),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		panic(err)
	}
	return tok
}

// Fail makes the next n requests to "METHOD path" answer 400
func (s *Server) Fail(method, path string, n int) {
	s.mu.Lock()
	s.failures[method+" "+path] += n
	s.mu.Unlock()
}

// Calls returns how many requests hit "METHOD path"
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

// Tasks returns a copy of the stored rows
func (s *Server) Tasks() []models.ReadTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ReadTask(nil), s.tasks...)
}

// Profiles returns a copy of the stored profiles
func (s *Server) Profiles() []models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Profile(nil), s.profiles...)
}

func (s *Server) id() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func (s *Server) addUserLocked(username, password string) models.User {
	u := models.User{ID: s.id(), Username: username}
	s.users[u.ID] = u
	s.passwords[username] = password
	return u
}

func (s *Server) rowLocked(t models.Task, owner int64) models.ReadTask {
	row := models.ReadTask{
		ID:                  t.ID,
		Task:                t.Task,
		Description:         t.Description,
		Criteria:            t.Criteria,
		Status:              t.Status,
		StatusName:          t.Status.Label(),
		Category:            t.Category,
		Estimate:            t.Estimate,
		Responsible:         t.Responsible,
		ResponsibleUsername: s.users[t.Responsible].Username,
		Owner:               owner,
		OwnerUsername:       s.users[owner].Username,
		CreatedAt:           time.Now().Format("2006-01-02 15:04"),
	}
	row.UpdatedAt = row.CreatedAt
	for _, c := range s.categories {
		if c.ID == t.Category {
			row.CategoryItem = c.Item
		}
	}
	return row
}

func (s *Server) count(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := c.Request().Method + " " + c.Request().URL.Path
		s.mu.Lock()
		s.calls[key]++
		fail := s.failures[key] > 0
		if fail {
			s.failures[key]--
		}
		s.mu.Unlock()
		if fail {
			return c.JSON(http.StatusBadRequest, map[string]string{"detail": "injected failure"})
		}
		return next(c)
	}
}

func (s *Server) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		h := c.Request().Header.Get("Authorization")
		tokenStr, ok := strings.CutPrefix(h, "JWT ")
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"detail": "missing credentials"})
		}
		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
			return signingKey, nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"detail": err.Error()})
		}
		claims := token.Claims.(jwt.MapClaims)
		uid, _ := claims["user_id"].(float64)
		c.Set("user_id", int64(uid))
		return next(c)
	}
}

func userID(c echo.Context) int64 {
	id, _ := c.Get("user_id").(int64)
	return id
}

func (s *Server) login(c echo.Context) error {
	var cred models.Credential
	if err := c.Bind(&cred); err != nil {
		return c.NoContent(http.StatusBadRequest)
	}
	s.mu.Lock()
	pw, ok := s.passwords[cred.Username]
	var uid int64
	for _, u := range s.users {
		if u.Username == cred.Username {
			uid = u.ID
		}
	}
	s.mu.Unlock()
	if !ok || pw != cred.Password {
		return c.JSON(http.StatusUnauthorized, map[string]string{"detail": "no active account"})
	}
	return c.JSON(http.StatusOK, models.JWT{Access: s.Token(uid, time.Hour), Refresh: s.Token(uid, 24*time.Hour)})
}

func (s *Server) register(c echo.Context) error {
	var cred models.Credential
	if err := c.Bind(&cred); err != nil {
		return c.NoContent(http.StatusBadRequest)
	}
	if cred.Username == "" || cred.Password == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"detail": "username and password required"})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.passwords[cred.Username]; taken {
		return c.JSON(http.StatusBadRequest, map[string]string{"username": "already exists"})
	}
	return c.JSON(http.StatusCreated, s.addUserLocked(cred.Username, cred.Password))
}

func (s *Server) loginUser(c echo.Context) error {
	s.mu.Lock()
	u, ok := s.users[userID(c)]
	s.mu.Unlock()
	if !ok {
		return c.NoContent(http.StatusNotFound)
	}
	return c.JSON(http.StatusOK, u)
}

func (s *Server) listUsers(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.User, 0, len(s.users))
	for id := int64(1); id < s.nextID; id++ {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) listProfiles(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, append([]models.Profile{}, s.profiles...))
}

func (s *Server) createProfile(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := models.Profile{ID: s.id(), UserProfile: userID(c)}
	s.profiles = append(s.profiles, p)
	return c.JSON(http.StatusCreated, p)
}

func (s *Server) listTasks(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, append([]models.ReadTask{}, s.tasks...))
}

func (s *Server) createTask(c echo.Context) error {
	var t models.Task
	if err := c.Bind(&t); err != nil {
		return c.NoContent(http.StatusBadRequest)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.id()
	row := s.rowLocked(t, userID(c))
	s.tasks = append(s.tasks, row)
	return c.JSON(http.StatusCreated, row)
}

func (s *Server) updateTask(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.NoContent(http.StatusNotFound)
	}
	var t models.Task
	if err := c.Bind(&t); err != nil {
		return c.NoContent(http.StatusBadRequest)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, row := range s.tasks {
		if row.ID != id {
			continue
		}
		if row.Owner != userID(c) {
			return c.NoContent(http.StatusForbidden)
		}
		t.ID = id
		s.tasks[i] = s.rowLocked(t, row.Owner)
		s.tasks[i].CreatedAt = row.CreatedAt
		return c.JSON(http.StatusOK, s.tasks[i])
	}
	return c.NoContent(http.StatusNotFound)
}

func (s *Server) deleteTask(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.NoContent(http.StatusNotFound)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, row := range s.tasks {
		if row.ID != id {
			continue
		}
		if row.Owner != userID(c) {
			return c.NoContent(http.StatusForbidden)
		}
		s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
		return c.NoContent(http.StatusNoContent)
	}
	return c.NoContent(http.StatusNotFound)
}

func (s *Server) listCategories(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, append([]models.Category{}, s.categories...))
}

func (s *Server) createCategory(c echo.Context) error {
	var body struct {
		Item string `json:"item"`
	}
	if err := c.Bind(&body); err != nil || body.Item == "" {
		return c.NoContent(http.StatusBadRequest)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cat := models.Category{ID: s.id(), Item: body.Item}
	s.categories = append(s.categories, cat)
	return c.JSON(http.StatusCreated, cat)
}
