package task

// User is a board member who can be assigned tasks.
type User struct {
	ID         int64  `json:"id"`
	Login      string `json:"login"`
	Name       string `json:"name"`
	Role       string `json:"role,omitempty"`
	TelegramID string `json:"telegramId,omitempty"`
	SuperAdmin bool   `json:"superAdmin,omitempty"`
}

// Board is a named collection of tasks.
type Board struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Tag is a board label that can be attached to tasks.
type Tag struct {
	ID    int64  `json:"id"`
	Board int64  `json:"boardId,omitempty"`
	Title string `json:"title"`
	Color string `json:"color,omitempty"`
}

// Settings holds the board's executors and tag names.
type Settings struct {
	Executors []User `json:"executors"`
	Tags      []Tag  `json:"tags"`
}

// Executor finds a user by id.
func (s Settings) Executor(id int64) (User, bool) {
	for _, u := range s.Executors {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// Tag finds a tag by title.
func (s Settings) Tag(title string) (Tag, bool) {
	for _, t := range s.Tags {
		if t.Title == title {
			return t, true
		}
	}
	return Tag{}, false
}
