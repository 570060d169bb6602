package domain

import (
	"errors"
	"time"
)

// Attachment is file metadata attached to a report. The file content lives in
// attachment storage under StoredName; Name is the client-supplied filename.
type Attachment struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	StoredName  string    `json:"stored_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// Report is a user-authored report with optional file attachments.
type Report struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Body        string       `json:"body"`
	AuthorID    string       `json:"author_id"`
	Attachments []Attachment `json:"attachments,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Validate validates the report for persistence.
func (r *Report) Validate() error {
	if r.ID == "" {
		return errors.New("report id is required")
	}
	if r.Title == "" {
		return errors.New("title is required")
	}
	if r.AuthorID == "" {
		return errors.New("author is required")
	}
	return nil
}
