package models

// Status is the workflow state of a task. The API carries it as "1", "2", "3".
type Status string

const (
	StatusNotStarted Status = "1"
	StatusOnGoing    Status = "2"
	StatusDone       Status = "3"
)

// Statuses lists the selectable statuses in display order
var Statuses = []Status{StatusNotStarted, StatusOnGoing, StatusDone}

// Label returns the human label the API uses for status_name
func (s Status) Label() string {
	switch s {
	case StatusNotStarted:
		return "Not started"
	case StatusOnGoing:
		return "On going"
	case StatusDone:
		return "Done"
	}
	return ""
}

// Rank orders statuses; unknown values sort before every known one
func (s Status) Rank() int {
	switch s {
	case StatusNotStarted:
		return 1
	case StatusOnGoing:
		return 2
	case StatusDone:
		return 3
	}
	return 0
}

// Task is the write shape of a task. ID 0 means the task has not been created yet.
type Task struct {
	ID          int64  `json:"id"`
	Task        string `json:"task"`
	Description string `json:"description"`
	Criteria    string `json:"criteria"`
	Responsible int64  `json:"responsible"`
	Status      Status `json:"status"`
	Category    int64  `json:"category"`
	Estimate    int    `json:"estimate"`
}

// IsNew reports whether the task still carries the "new" sentinel id
func (t Task) IsNew() bool { return t.ID == 0 }

// ReadTask is a task row as returned by the API
type ReadTask struct {
	ID                  int64  `json:"id"`
	Task                string `json:"task"`
	Description         string `json:"description"`
	Criteria            string `json:"criteria"`
	Status              Status `json:"status"`
	StatusName          string `json:"status_name"`
	Category            int64  `json:"category"`
	CategoryItem        string `json:"category_item"`
	Estimate            int    `json:"estimate"`
	Responsible         int64  `json:"responsible"`
	ResponsibleUsername string `json:"responsible_username"`
	Owner               int64  `json:"owner"`
	OwnerUsername       string `json:"owner_username"`
	CreatedAt           string `json:"created_at"`
	UpdatedAt           string `json:"updated_at"`
}

// Draft returns the editable part of a row
func (r ReadTask) Draft() Task {
	return Task{
		ID:          r.ID,
		Task:        r.Task,
		Description: r.Description,
		Criteria:    r.Criteria,
		Responsible: r.Responsible,
		Status:      r.Status,
		Category:    r.Category,
		Estimate:    r.Estimate,
	}
}

// Category is a task category label
type Category struct {
	ID   int64  `json:"id"`
	Item string `json:"item"`
}

// User is a registered account
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Profile holds the avatar of a user. Img is nil when no image was uploaded.
type Profile struct {
	ID          int64   `json:"id"`
	UserProfile int64   `json:"user_profile"`
	Img         *string `json:"img"`
}

// Credential is a username/password pair sent to the auth endpoints
type Credential struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// JWT is the token pair returned by login
type JWT struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}
