// internal/adapters/in/http/handlers/product_handler.go
package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	usecase "anusswar/internal/application/usecase"
)

// ProductHandler serves the public catalog.
type ProductHandler struct {
	uc  *usecase.CatalogUsecase
	log *logrus.Logger
}

func NewProductHandler(uc *usecase.CatalogUsecase, log *logrus.Logger) *ProductHandler {
	return &ProductHandler{uc: uc, log: log}
}

// List handles GET /products?category=xxx.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ps, err := h.uc.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": ps})
}

// Get handles GET /products/{id}.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.uc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
