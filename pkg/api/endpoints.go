package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"tableflip.dev/taskboard/pkg/history"
	"tableflip.dev/taskboard/pkg/task"
)

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Login authenticates with a login and password.
func (c *Client) Login(ctx context.Context, login, password string) (task.User, error) {
	var u User
	err := c.do(ctx, http.MethodPost, "/auth/login-password", map[string]string{
		"login":    login,
		"password": password,
	}, &u)
	if err != nil {
		return task.User{}, err
	}
	return ToUser(u), nil
}

// Register creates an account and returns it.
func (c *Client) Register(ctx context.Context, name, login, password, role string) (task.User, error) {
	var u User
	err := c.do(ctx, http.MethodPost, "/auth/register-password", map[string]string{
		"name":      name,
		"login":     login,
		"password":  password,
		"role_text": role,
	}, &u)
	if err != nil {
		return task.User{}, err
	}
	return ToUser(u), nil
}

// Me fetches the profile of userID.
func (c *Client) Me(ctx context.Context, userID int64) (task.User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/me"+query(map[string]string{"user_id": itoa(userID)}), nil, &u); err != nil {
		return task.User{}, err
	}
	return ToUser(u), nil
}

// RequestTelegramLink asks for a code that binds login to a Telegram account.
func (c *Client) RequestTelegramLink(ctx context.Context, login string) (TelegramLink, error) {
	var out TelegramLink
	err := c.do(ctx, http.MethodPost, "/auth/telegram/request", map[string]string{"login": login}, &out)
	return out, err
}

// Users lists every user.
func (c *Client) Users(ctx context.Context) ([]task.User, error) {
	var list []User
	if err := c.do(ctx, http.MethodGet, "/users", nil, &list); err != nil {
		return nil, err
	}
	out := make([]task.User, 0, len(list))
	for _, u := range list {
		out = append(out, ToUser(u))
	}
	return out, nil
}

// UpdateUser changes a user's name and role. Empty values are left alone.
func (c *Client) UpdateUser(ctx context.Context, id int64, name, role string) (task.User, error) {
	payload := map[string]string{}
	if name != "" {
		payload["name"] = name
	}
	if role != "" {
		payload["role_text"] = role
	}
	var u User
	if err := c.do(ctx, http.MethodPatch, "/users/"+itoa(id), payload, &u); err != nil {
		return task.User{}, err
	}
	return ToUser(u), nil
}

// DeleteUser removes a user.
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/users/"+itoa(id), nil, nil)
}

// Boards lists the boards visible to userID, or all boards when it is zero.
func (c *Client) Boards(ctx context.Context, userID int64) ([]task.Board, error) {
	q := map[string]string{}
	if userID != 0 {
		q["user_id"] = itoa(userID)
	}
	var list []Board
	if err := c.do(ctx, http.MethodGet, "/boards"+query(q), nil, &list); err != nil {
		return nil, err
	}
	out := make([]task.Board, 0, len(list))
	for _, b := range list {
		out = append(out, ToBoard(b))
	}
	return out, nil
}

// TaskQuery narrows a task listing on the server.
type TaskQuery struct {
	AssigneeID int64
	Status     task.APIStatus
	Priority   task.Priority
	TagID      int64
}

func (q TaskQuery) values() map[string]string {
	v := map[string]string{
		"status":   string(q.Status),
		"priority": string(q.Priority),
	}
	if q.AssigneeID != 0 {
		v["assignee_id"] = itoa(q.AssigneeID)
	}
	if q.TagID != 0 {
		v["tag_id"] = itoa(q.TagID)
	}
	return v
}

// Tasks lists a board's tasks.
func (c *Client) Tasks(ctx context.Context, board int64, q TaskQuery) ([]task.Task, error) {
	var list []Task
	path := fmt.Sprintf("/boards/%d/tasks%s", board, query(q.values()))
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	out := make([]task.Task, 0, len(list))
	for _, w := range list {
		out = append(out, ToTask(w))
	}
	return out, nil
}

// CreateTask creates t on board and returns its id.
func (c *Client) CreateTask(ctx context.Context, board int64, t task.Task, by int64) (int64, error) {
	var out struct {
		ID ID `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/boards/%d/tasks", board), FromTask(t, by), &out); err != nil {
		return 0, err
	}
	return int64(out.ID), nil
}

// UpdateTask applies a partial update. An empty patch is not sent.
func (c *Client) UpdateTask(ctx context.Context, id int64, p task.Patch, by int64) error {
	payload := FromPatch(p, by)
	if len(payload) == 0 {
		return nil
	}
	return c.do(ctx, http.MethodPatch, "/tasks/"+itoa(id), payload, nil)
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+itoa(id), nil, nil)
}

// History fetches a task's field-change log.
func (c *Client) History(ctx context.Context, id int64) ([]history.Entry, error) {
	var out []history.Entry
	if err := c.do(ctx, http.MethodGet, "/tasks/"+itoa(id)+"/history", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Tags lists a board's tags.
func (c *Client) Tags(ctx context.Context, board int64) ([]task.Tag, error) {
	var list []Tag
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/boards/%d/tags", board), nil, &list); err != nil {
		return nil, err
	}
	out := make([]task.Tag, 0, len(list))
	for _, t := range list {
		out = append(out, ToTag(t))
	}
	return out, nil
}

// CreateTag adds a tag to a board.
func (c *Client) CreateTag(ctx context.Context, board int64, title, color string) (task.Tag, error) {
	payload := map[string]string{"title": title}
	if color != "" {
		payload["color"] = color
	}
	var t Tag
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/boards/%d/tags", board), payload, &t); err != nil {
		return task.Tag{}, err
	}
	return ToTag(t), nil
}

// DeleteTag removes a tag from a board.
func (c *Client) DeleteTag(ctx context.Context, board, tag int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/boards/%d/tags/%d", board, tag), nil, nil)
}

// AttachTag links a tag to a task.
func (c *Client) AttachTag(ctx context.Context, taskID, tag int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/tasks/%d/tags", taskID), map[string]int64{"tag_id": tag}, nil)
}

// DetachTag unlinks a tag from a task.
func (c *Client) DetachTag(ctx context.Context, taskID, tag int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/tasks/%d/tags/%d", taskID, tag), nil, nil)
}
