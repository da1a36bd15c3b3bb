// internal/domain/request/entity.go
package request

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"anusswar/internal/domain/identity"
)

const StatusPending = "pending"

var (
	ErrMissingField  = errors.New("request: required field missing")
	ErrInvalidEmail  = errors.New("request: invalid email")
	ErrNotSignedIn   = errors.New("request: sign in to submit a custom instrument request")
	ErrEmptyDesc     = errors.New("request: description is required")
	ErrTooManyImages = errors.New("request: too many reference images")
)

// MaxReferenceImages bounds the images attached to one workshop request.
const MaxReferenceImages = 5

// ========================================
// Lesson request (contact form)
// ========================================

// Lesson is stored in learning_requests/{auto}.
type Lesson struct {
	ID         string    `json:"id,omitempty"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Instrument string    `json:"instrument"`
	Experience string    `json:"experience"`
	LessonType string    `json:"lessonType"`
	Message    string    `json:"message,omitempty"`
	UserID     string    `json:"userId,omitempty"`
	UserEmail  string    `json:"userEmail"`
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewLesson validates form input. who is optional; without it the contact
// email stands in as userEmail.
func NewLesson(in Lesson, who *identity.Identity, now time.Time) (*Lesson, error) {
	l := Lesson{
		Name:       strings.TrimSpace(in.Name),
		Email:      strings.TrimSpace(in.Email),
		Phone:      strings.TrimSpace(in.Phone),
		Instrument: strings.TrimSpace(in.Instrument),
		Experience: strings.TrimSpace(in.Experience),
		LessonType: strings.TrimSpace(in.LessonType),
		Message:    strings.TrimSpace(in.Message),
		Status:     StatusPending,
		Timestamp:  now,
	}

	for _, f := range []struct{ name, v string }{
		{"name", l.Name},
		{"email", l.Email},
		{"phone", l.Phone},
		{"instrument", l.Instrument},
		{"experience", l.Experience},
		{"lessonType", l.LessonType},
	} {
		if f.v == "" {
			return nil, errors.Wrapf(ErrMissingField, "%s", f.name)
		}
	}
	if !identity.ValidEmail(l.Email) {
		return nil, ErrInvalidEmail
	}

	l.UserEmail = l.Email
	if who != nil && who.UID != "" {
		l.UserID = who.UID
		if who.Email != "" {
			l.UserEmail = who.Email
		}
	}
	return &l, nil
}

// ========================================
// Workshop request (custom instrument)
// ========================================

// Image is a reference picture supplied with a workshop request.
type Image struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Workshop is stored in users/{uid}/custom_instrument_orders/{auto}.
type Workshop struct {
	ID              string    `json:"id,omitempty"`
	Description     string    `json:"description"`
	UserID          string    `json:"userId"`
	UserEmail       string    `json:"userEmail"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
	LastUpdatedAt   time.Time `json:"lastUpdatedAt"`
	ReferenceImages []string  `json:"referenceImages,omitempty"`
}

func NewWorkshop(description string, who *identity.Identity, images int, now time.Time) (*Workshop, error) {
	if who == nil || strings.TrimSpace(who.UID) == "" {
		return nil, ErrNotSignedIn
	}
	d := strings.TrimSpace(description)
	if d == "" {
		return nil, ErrEmptyDesc
	}
	if images > MaxReferenceImages {
		return nil, ErrTooManyImages
	}
	return &Workshop{
		Description:   d,
		UserID:        who.UID,
		UserEmail:     who.Email,
		Status:        StatusPending,
		CreatedAt:     now,
		LastUpdatedAt: now,
	}, nil
}

// IsOpen reports whether status still needs attention on the dashboard.
func IsOpen(status string) bool {
	switch strings.TrimSpace(status) {
	case "", StatusPending, "processing":
		return true
	}
	return false
}
