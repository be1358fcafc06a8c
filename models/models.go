// Package models defines the submission portal's domain types.
package models

import (
	"time"
)

// Status represents the review state of a submission
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusInReview Status = "IN_REVIEW"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Valid reports whether s is a known submission status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInReview, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Artist represents a submitting artist, keyed by email
type Artist struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	Instagram  string `json:"instagram,omitempty"`
	Soundcloud string `json:"soundcloud,omitempty"`
	Spotify    string `json:"spotify,omitempty"`
	Bio        string `json:"bio,omitempty"`
}

// Track represents a single demo track within a submission
type Track struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Genre       string `json:"genre,omitempty"`
	BPM         int    `json:"bpm,omitempty"`
	MusicalKey  string `json:"key,omitempty"`
	Description string `json:"description,omitempty"`
	OriginalURL string `json:"originalUrl"`
	DurationSec int    `json:"durationSec,omitempty"`
}

// Reviewer carries the display name of the staff member who wrote a review
type Reviewer struct {
	Name string `json:"name,omitempty"`
}

// Review represents an A&R review attached to a submission
type Review struct {
	ID                string    `json:"id"`
	Score             int       `json:"score"`
	InternalNotes     string    `json:"internalNotes,omitempty"`
	FeedbackForArtist string    `json:"feedbackForArtist,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	Reviewer          Reviewer  `json:"reviewer"`
}

// Submission is the fully-joined record as stored and as carried by events.
// Tracks and Reviews preserve insertion order.
type Submission struct {
	ID           string    `json:"id"`
	Status       Status    `json:"status"`
	NotesForTeam string    `json:"notesForTeam,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Artist       Artist    `json:"artist"`
	Tracks       []Track   `json:"tracks"`
	Reviews      []Review  `json:"reviews"`
}

// EmailTemplate is a database-stored notification template. Subject and
// HTMLBody may contain {{variable}} placeholders.
type EmailTemplate struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Name      string    `json:"name,omitempty"`
	Subject   string    `json:"subject"`
	HTMLBody  string    `json:"htmlBody"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// User is a label staff account for the admin dashboard
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}
