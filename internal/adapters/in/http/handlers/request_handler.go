// internal/adapters/in/http/handlers/request_handler.go
package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"anusswar/internal/adapters/in/http/middleware"
	usecase "anusswar/internal/application/usecase"
	"anusswar/internal/domain/identity"
	reqdom "anusswar/internal/domain/request"
)

// maxUpload bounds one multipart workshop request.
const maxUpload = 20 << 20

// RequestHandler accepts lesson and custom instrument requests.
type RequestHandler struct {
	uc  *usecase.RequestUsecase
	log *logrus.Logger
}

func NewRequestHandler(uc *usecase.RequestUsecase, log *logrus.Logger) *RequestHandler {
	return &RequestHandler{uc: uc, log: log}
}

// Lesson handles POST /lesson-requests. Sign-in is optional.
func (h *RequestHandler) Lesson(w http.ResponseWriter, r *http.Request) {
	var in reqdom.Lesson
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	l, err := h.uc.SubmitLesson(r.Context(), in, middleware.CurrentIdentity(r.Context()))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

// Workshop handles POST /workshop-requests as JSON {"description": ...} or
// multipart with a description field and "images" files.
func (h *RequestHandler) Workshop(w http.ResponseWriter, r *http.Request) {
	who := middleware.CurrentIdentity(r.Context())
	if who == nil {
		writeError(w, r, h.log, identity.ErrNotSignedIn)
		return
	}

	var (
		desc   string
		images []reqdom.Image
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		var err error
		desc, images, err = readMultipart(w, r)
		if err != nil {
			writeError(w, r, h.log, err)
			return
		}
	} else {
		var body struct {
			Description string `json:"description"`
		}
		if err := decodeJSON(w, r, &body); err != nil {
			writeError(w, r, h.log, err)
			return
		}
		desc = body.Description
	}

	ws, err := h.uc.SubmitWorkshop(r.Context(), desc, who, images)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, ws)
}

func readMultipart(w http.ResponseWriter, r *http.Request) (string, []reqdom.Image, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		return "", nil, errors.Wrap(errBadRequest, err.Error())
	}

	var images []reqdom.Image
	for _, fh := range r.MultipartForm.File["images"] {
		f, err := fh.Open()
		if err != nil {
			return "", nil, errors.Wrap(errBadRequest, err.Error())
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return "", nil, errors.Wrap(errBadRequest, err.Error())
		}
		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = http.DetectContentType(data)
		}
		images = append(images, reqdom.Image{FileName: fh.Filename, ContentType: ct, Data: data})
	}
	return r.FormValue("description"), images, nil
}
