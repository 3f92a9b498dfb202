package domain

import (
	"strings"
	"time"
)

// Mission is the payload of a task board card.
type Mission struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    int        `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

func (m Mission) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return required("title")
	}
	if m.Priority < 0 {
		return &FieldError{Field: "priority", Reason: "must not be negative"}
	}
	return nil
}

func (m Mission) Label() string {
	return m.Title
}
