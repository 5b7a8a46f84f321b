package asana

// ErrorResponse is the error envelope returned by the Asana API.
type ErrorResponse struct {
	Errors []APIError `json:"errors"`
}

// APIError is a single error entry in an ErrorResponse.
type APIError struct {
	Message string `json:"message"`
	Help    string `json:"help,omitempty"`
}

// UserList is the response from GET /users.
type UserList struct {
	Data []User `json:"data"`
}

// UserEnvelope is the response from GET /users/{gid}.
type UserEnvelope struct {
	Data User `json:"data"`
}

// User represents an Asana user.
type User struct {
	GID   string `json:"gid"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// TaskList is the response from GET /tasks.
type TaskList struct {
	Data     []Task    `json:"data"`
	NextPage *NextPage `json:"next_page,omitempty"`
}

// TaskEnvelope is the response from GET or POST /tasks/{gid}.
type TaskEnvelope struct {
	Data Task `json:"data"`
}

// NextPage holds offset-based pagination state.
type NextPage struct {
	Offset string `json:"offset"`
	Path   string `json:"path"`
	URI    string `json:"uri"`
}

// Task represents an Asana task from the REST API.
type Task struct {
	GID          string           `json:"gid"`
	Name         string           `json:"name"`
	Notes        string           `json:"notes,omitempty"`
	Completed    bool             `json:"completed,omitempty"`
	CompletedAt  string           `json:"completed_at,omitempty"`
	CreatedAt    string           `json:"created_at,omitempty"`
	ModifiedAt   string           `json:"modified_at,omitempty"`
	DueOn        string           `json:"due_on,omitempty"`
	PermalinkURL string           `json:"permalink_url,omitempty"`
	Assignee     *User            `json:"assignee,omitempty"`
	Projects     []ProjectCompact `json:"projects,omitempty"`
}

// ProjectCompact is the compact project record nested in a task.
type ProjectCompact struct {
	GID  string `json:"gid"`
	Name string `json:"name"`
}

// StoryList is the response from GET /tasks/{gid}/stories.
type StoryList struct {
	Data []Story `json:"data"`
}

// Story represents an activity entry on a task. Only stories with
// resource_subtype "comment_added" are user comments; everything else is
// system activity.
type Story struct {
	GID             string `json:"gid"`
	ResourceSubtype string `json:"resource_subtype"`
	CreatedAt       string `json:"created_at"`
	CreatedBy       *User  `json:"created_by,omitempty"`
	Text            string `json:"text,omitempty"`
	HTMLText        string `json:"html_text,omitempty"`
}

// storyCommentAdded is the resource subtype of a user comment.
const storyCommentAdded = "comment_added"

// taskRequest is the request envelope for POST /tasks.
type taskRequest struct {
	Data taskData `json:"data"`
}

// taskData is the writable task payload.
type taskData struct {
	Name      string   `json:"name"`
	Notes     string   `json:"notes,omitempty"`
	Workspace string   `json:"workspace,omitempty"`
	Assignee  string   `json:"assignee,omitempty"`
	DueOn     string   `json:"due_on,omitempty"`
	Parent    string   `json:"parent,omitempty"`
	Projects  []string `json:"projects,omitempty"`
}

// followersRequest is the request envelope for POST /tasks/{gid}/removeFollowers.
type followersRequest struct {
	Data followersData `json:"data"`
}

type followersData struct {
	Followers []string `json:"followers"`
}
