// internal/adapters/in/http/handlers/dashboard_handler.go
package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"anusswar/internal/adapters/in/http/middleware"
	usecase "anusswar/internal/application/usecase"
)

type DashboardHandler struct {
	uc  *usecase.DashboardUsecase
	log *logrus.Logger
}

func NewDashboardHandler(uc *usecase.DashboardUsecase, log *logrus.Logger) *DashboardHandler {
	return &DashboardHandler{uc: uc, log: log}
}

// Get handles GET /dashboard.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.uc.Load(r.Context(), middleware.CurrentIdentity(r.Context()))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	orders := make([]orderResponse, 0, len(d.Orders))
	for i := range d.Orders {
		orders = append(orders, toOrderResponse(&d.Orders[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"orders":    orders,
		"workshops": d.Workshops,
		"lessons":   d.Lessons,
	})
}
