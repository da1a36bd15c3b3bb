// internal/application/usecase/ports.go
package usecase

import (
	"context"

	"anusswar/internal/domain/order"
	"anusswar/internal/domain/request"
)

// Notifier sends shop and customer emails. Failures never undo the
// operation that triggered them.
type Notifier interface {
	OrderPlaced(ctx context.Context, o *order.Order) error
	LessonRequested(ctx context.Context, l *request.Lesson) error
	WorkshopRequested(ctx context.Context, w *request.Workshop) error
}

type nopNotifier struct{}

func (nopNotifier) OrderPlaced(context.Context, *order.Order) error            { return nil }
func (nopNotifier) LessonRequested(context.Context, *request.Lesson) error     { return nil }
func (nopNotifier) WorkshopRequested(context.Context, *request.Workshop) error { return nil }
