// internal/application/usecase/request_usecase.go
package usecase

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"anusswar/internal/domain/identity"
	reqdom "anusswar/internal/domain/request"
	"anusswar/internal/pkg/clock"
)

var ErrImagesUnsupported = errors.New("request_usecase: reference images need an image store")

// RequestUsecase accepts lesson and custom instrument requests.
type RequestUsecase struct {
	repo     reqdom.Repository
	images   reqdom.ImageStore
	notifier Notifier
	clock    clock.Clock
	log      *logrus.Logger
}

// NewRequestUsecase builds the usecase. images may be nil when no bucket is configured.
func NewRequestUsecase(repo reqdom.Repository, images reqdom.ImageStore, notifier Notifier, clk clock.Clock, logger *logrus.Logger) *RequestUsecase {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RequestUsecase{repo: repo, images: images, notifier: notifier, clock: clk, log: logger}
}

// SubmitLesson stores a lesson request. who is optional.
func (uc *RequestUsecase) SubmitLesson(ctx context.Context, in reqdom.Lesson, who *identity.Identity) (*reqdom.Lesson, error) {
	l, err := reqdom.NewLesson(in, who, uc.clock.Now())
	if err != nil {
		return nil, err
	}

	id, err := uc.repo.CreateLesson(ctx, l)
	if err != nil {
		return nil, errors.Wrap(err, "request_usecase: create lesson request")
	}
	l.ID = id

	if err := uc.notifier.LessonRequested(ctx, l); err != nil {
		uc.log.WithField("request", id).WithError(err).Warn("[request] shop notification failed")
	}
	uc.log.WithFields(logrus.Fields{"request": id, "instrument": l.Instrument}).Info("[request] lesson request stored")
	return l, nil
}

// SubmitWorkshop uploads reference images, then stores the request with their URLs.
func (uc *RequestUsecase) SubmitWorkshop(ctx context.Context, description string, who *identity.Identity, images []reqdom.Image) (*reqdom.Workshop, error) {
	w, err := reqdom.NewWorkshop(description, who, len(images), uc.clock.Now())
	if err != nil {
		return nil, err
	}
	if len(images) > 0 && uc.images == nil {
		return nil, ErrImagesUnsupported
	}

	for i, img := range images {
		obj := workshopObjectPath(who.UID, i, img.FileName)
		url, err := uc.images.Upload(ctx, obj, img.ContentType, bytes.NewReader(img.Data))
		if err != nil {
			return nil, errors.Wrapf(err, "request_usecase: upload %s", obj)
		}
		w.ReferenceImages = append(w.ReferenceImages, url)
	}

	id, err := uc.repo.CreateWorkshop(ctx, w)
	if err != nil {
		return nil, errors.Wrap(err, "request_usecase: create workshop request")
	}
	w.ID = id

	if err := uc.notifier.WorkshopRequested(ctx, w); err != nil {
		uc.log.WithField("request", id).WithError(err).Warn("[request] shop notification failed")
	}
	uc.log.WithFields(logrus.Fields{"request": id, "uid": w.UserID, "images": len(w.ReferenceImages)}).Info("[request] workshop request stored")
	return w, nil
}

// workshopObjectPath is custom_instruments/{uid}/{uuid}-{i}{ext}.
func workshopObjectPath(uid string, i int, fileName string) string {
	ext := strings.ToLower(path.Ext(strings.TrimSpace(fileName)))
	return fmt.Sprintf("custom_instruments/%s/%s-%d%s", uid, uuid.NewString(), i, ext)
}
