package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"tableflip.dev/taskboard/pkg/task"
)

// ID decodes identifiers the API sends either as numbers or as strings.
type ID int64

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) || len(b) == 0 {
		*id = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*id = 0
			return nil
		}
		b = []byte(s)
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("api: bad id %s: %w", b, err)
	}
	*id = ID(n)
	return nil
}

// User is the wire shape of a user.
type User struct {
	ID           ID      `json:"id"`
	Login        string  `json:"login"`
	Name         string  `json:"name"`
	RoleText     *string `json:"role_text,omitempty"`
	TelegramID   *string `json:"telegram_id,omitempty"`
	IsSuperadmin bool    `json:"is_superadmin,omitempty"`
}

// Board is the wire shape of a board.
type Board struct {
	ID        ID     `json:"id"`
	Title     string `json:"title"`
	CreatedBy *ID    `json:"created_by,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Tag is the wire shape of a tag.
type Tag struct {
	ID      ID     `json:"id"`
	BoardID ID     `json:"board_id,omitempty"`
	Title   string `json:"title"`
	Color   string `json:"color,omitempty"`
}

// Task is the wire shape of a task. Timeline visibility is not part of it;
// the board keeps that flag locally.
type Task struct {
	ID             ID      `json:"id"`
	Title          string  `json:"title"`
	Description    *string `json:"description"`
	Status         *string `json:"status"`
	Priority       *string `json:"priority"`
	AssigneeUserID *ID     `json:"assignee_user_id"`
	AssigneeName   *string `json:"assignee_name,omitempty"`
	AssigneeRole   *string `json:"assignee_role,omitempty"`
	StartAt        *string `json:"start_at"`
	DueAt          *string `json:"due_at"`
	LinkURL        *string `json:"link_url"`
	CreatedAt      string  `json:"created_at,omitempty"`
	UpdatedAt      string  `json:"updated_at,omitempty"`
	Tags           []Tag   `json:"tags"`
}

// TelegramLink is the response of a Telegram link request.
type TelegramLink struct {
	OK       bool    `json:"ok"`
	UserID   ID      `json:"user_id"`
	Login    string  `json:"login"`
	Code     string  `json:"code"`
	DeepLink *string `json:"telegram_deeplink"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ToUser maps a wire user onto the board model.
func ToUser(u User) task.User {
	return task.User{
		ID:         int64(u.ID),
		Login:      u.Login,
		Name:       u.Name,
		Role:       deref(u.RoleText),
		TelegramID: deref(u.TelegramID),
		SuperAdmin: u.IsSuperadmin,
	}
}

// ToBoard maps a wire board onto the board model.
func ToBoard(b Board) task.Board {
	return task.Board{ID: int64(b.ID), Title: b.Title}
}

// ToTag maps a wire tag onto the board model.
func ToTag(t Tag) task.Tag {
	return task.Tag{ID: int64(t.ID), Board: int64(t.BoardID), Title: t.Title, Color: t.Color}
}

// ToTask maps a wire task onto the board model. Timestamps become calendar
// dates using the fields of their own offset, so a date never shifts.
func ToTask(w Task) task.Task {
	t := task.Task{
		ID:           int64(w.ID),
		Title:        w.Title,
		Description:  deref(w.Description),
		Link:         deref(w.LinkURL),
		Status:       task.StatusFromAPI(deref(w.Status)),
		Priority:     task.PriorityMedium,
		AssigneeName: deref(w.AssigneeName),
	}
	if p, err := task.ParsePriority(deref(w.Priority)); err == nil {
		t.Priority = p
	}
	if w.AssigneeUserID != nil && *w.AssigneeUserID != 0 {
		id := int64(*w.AssigneeUserID)
		t.AssigneeID = &id
	}
	if w.StartAt != nil {
		if d, err := task.ParseDate(*w.StartAt); err == nil {
			t.StartDate = &d
		}
	}
	if w.DueAt != nil {
		if d, err := task.ParseDate(*w.DueAt); err == nil {
			t.EndDate = &d
		}
	}
	for _, tag := range w.Tags {
		t.Tags = append(t.Tags, tag.Title)
	}
	return t
}

// FromTask builds the create payload for a task.
func FromTask(t task.Task, by int64) map[string]any {
	out := map[string]any{
		"title":    t.Title,
		"status":   string(t.Status.API()),
		"priority": string(t.Priority),
	}
	if t.ID != 0 {
		out["id"] = t.ID
	}
	if t.Description != "" {
		out["description"] = t.Description
	}
	if t.Link != "" {
		out["link_url"] = t.Link
	}
	if t.AssigneeID != nil {
		out["assignee_user_id"] = *t.AssigneeID
	}
	if t.StartDate != nil {
		out["start_at"] = t.StartDate.String()
	}
	if t.EndDate != nil {
		out["due_at"] = t.EndDate.String()
	}
	if by != 0 {
		out["created_by"] = by
	}
	return out
}

// FromPatch builds the PATCH payload for a partial update. Tags travel
// through their own endpoints and timeline visibility stays local, so
// neither is included.
func FromPatch(p task.Patch, by int64) map[string]any {
	out := map[string]any{}
	if p.Title != nil {
		out["title"] = *p.Title
	}
	if p.Description != nil {
		out["description"] = *p.Description
	}
	if p.Link != nil {
		out["link_url"] = *p.Link
	}
	if p.Status != nil {
		out["status"] = string(p.Status.API())
	}
	if p.Priority != nil {
		out["priority"] = string(*p.Priority)
	}
	if p.AssigneeID != nil {
		if *p.AssigneeID == nil {
			out["assignee_user_id"] = nil
		} else {
			out["assignee_user_id"] = **p.AssigneeID
		}
	}
	if p.StartDate != nil {
		if p.StartDate.IsZero() {
			out["start_at"] = nil
		} else {
			out["start_at"] = p.StartDate.String()
		}
	}
	if p.EndDate != nil {
		if p.EndDate.IsZero() {
			out["due_at"] = nil
		} else {
			out["due_at"] = p.EndDate.String()
		}
	}
	if by != 0 && len(out) > 0 {
		out["updated_by"] = by
	}
	return out
}
