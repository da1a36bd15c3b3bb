// internal/domain/request/repository_port.go
package request

import (
	"context"
	"io"
)

// Repository persists lesson and workshop requests.
type Repository interface {
	CreateLesson(ctx context.Context, l *Lesson) (string, error)
	CreateWorkshop(ctx context.Context, w *Workshop) (string, error)

	// ListOpenLessons and ListOpenWorkshops return requests whose status IsOpen, newest first.
	ListOpenLessons(ctx context.Context) ([]Lesson, error)
	ListOpenWorkshops(ctx context.Context) ([]Workshop, error)
}

// ImageStore uploads reference images and returns their public URLs.
type ImageStore interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}
