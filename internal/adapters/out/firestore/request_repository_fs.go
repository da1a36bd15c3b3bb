// internal/adapters/out/firestore/request_repository_fs.go
package firestore

import (
	"context"
	"sort"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"

	reqdom "anusswar/internal/domain/request"
)

// RequestRepositoryFS implements request.Repository.
//
// - learning_requests/{auto}: lesson requests
// - users/{uid}/custom_instrument_orders/{auto}: workshop requests
type RequestRepositoryFS struct {
	Client *firestore.Client
}

var _ reqdom.Repository = (*RequestRepositoryFS)(nil)

func NewRequestRepositoryFS(client *firestore.Client) *RequestRepositoryFS {
	return &RequestRepositoryFS{Client: client}
}

func (r *RequestRepositoryFS) CreateLesson(ctx context.Context, l *reqdom.Lesson) (string, error) {
	if r == nil || r.Client == nil {
		return "", errors.New("request_repository_fs: firestore client is nil")
	}
	if l == nil {
		return "", errors.New("request_repository_fs: lesson is nil")
	}

	ref, _, err := r.Client.Collection("learning_requests").Add(ctx, map[string]any{
		"name":       l.Name,
		"email":      l.Email,
		"phone":      l.Phone,
		"instrument": l.Instrument,
		"experience": l.Experience,
		"lessonType": l.LessonType,
		"message":    l.Message,
		"userId":     l.UserID,
		"userEmail":  l.UserEmail,
		"status":     l.Status,
		"timestamp":  timeOrServer(l.Timestamp),
	})
	if err != nil {
		return "", errors.Wrap(err, "request_repository_fs: create lesson")
	}
	return ref.ID, nil
}

func (r *RequestRepositoryFS) CreateWorkshop(ctx context.Context, w *reqdom.Workshop) (string, error) {
	if r == nil || r.Client == nil {
		return "", errors.New("request_repository_fs: firestore client is nil")
	}
	if w == nil || strings.TrimSpace(w.UserID) == "" {
		return "", reqdom.ErrNotSignedIn
	}

	col := r.Client.Collection("users").Doc(w.UserID).Collection("custom_instrument_orders")
	ref, _, err := col.Add(ctx, map[string]any{
		"description":     w.Description,
		"userId":          w.UserID,
		"userEmail":       w.UserEmail,
		"status":          w.Status,
		"createdAt":       timeOrServer(w.CreatedAt),
		"lastUpdatedAt":   timeOrServer(w.LastUpdatedAt),
		"referenceImages": nonNil(w.ReferenceImages),
	})
	if err != nil {
		return "", errors.Wrapf(err, "request_repository_fs: create workshop uid=%s", w.UserID)
	}
	return ref.ID, nil
}

func (r *RequestRepositoryFS) ListOpenLessons(ctx context.Context) ([]reqdom.Lesson, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("request_repository_fs: firestore client is nil")
	}

	snaps, err := r.Client.Collection("learning_requests").Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Wrap(err, "request_repository_fs: list lessons")
	}

	out := make([]reqdom.Lesson, 0, len(snaps))
	for _, s := range snaps {
		l := lessonFromData(s.Ref.ID, s.Data())
		if reqdom.IsOpen(l.Status) {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (r *RequestRepositoryFS) ListOpenWorkshops(ctx context.Context) ([]reqdom.Workshop, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("request_repository_fs: firestore client is nil")
	}

	snaps, err := r.Client.CollectionGroup("custom_instrument_orders").Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Wrap(err, "request_repository_fs: list workshops")
	}

	out := make([]reqdom.Workshop, 0, len(snaps))
	for _, s := range snaps {
		w := workshopFromData(s.Ref.ID, s.Data())
		if w.UserID == "" && s.Ref.Parent != nil && s.Ref.Parent.Parent != nil {
			w.UserID = s.Ref.Parent.Parent.ID
		}
		if reqdom.IsOpen(w.Status) {
			out = append(out, w)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ----------------------------
// Helpers
// ----------------------------

func lessonFromData(docID string, m map[string]any) reqdom.Lesson {
	l := reqdom.Lesson{
		ID:         docID,
		Name:       asString(m["name"]),
		Email:      asString(m["email"]),
		Phone:      asString(m["phone"]),
		Instrument: asString(m["instrument"]),
		Experience: asString(m["experience"]),
		LessonType: asString(m["lessonType"]),
		Message:    asString(m["message"]),
		UserID:     asString(m["userId"]),
		UserEmail:  asString(m["userEmail"]),
		Status:     asString(m["status"]),
	}
	if t, ok := asTime(m["timestamp"]); ok {
		l.Timestamp = t.UTC()
	}
	return l
}

func workshopFromData(docID string, m map[string]any) reqdom.Workshop {
	w := reqdom.Workshop{
		ID:              docID,
		Description:     asString(m["description"]),
		UserID:          asString(m["userId"]),
		UserEmail:       asString(m["userEmail"]),
		Status:          asString(m["status"]),
		ReferenceImages: asStrings(m["referenceImages"]),
	}
	if t, ok := asTime(m["createdAt"]); ok {
		w.CreatedAt = t.UTC()
	}
	if t, ok := asTime(m["lastUpdatedAt"]); ok {
		w.LastUpdatedAt = t.UTC()
	} else {
		w.LastUpdatedAt = w.CreatedAt
	}
	return w
}
