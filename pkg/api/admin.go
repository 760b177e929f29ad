package api

import (
	"net/http"

	appotel "storefront/pkg/otel"
)

// summary reports order counts and revenue for the dashboard.
// @Summary Order dashboard
// @Produce json
// @Success 200 {object} order.Summary
// @Failure 401 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Security SessionCookie
// @Router /admin/summary [get]
func (h *handlers) summary(w http.ResponseWriter, r *http.Request) {
	ctx, span := appotel.AddSpan(r.Context(), "api.summary")
	defer span.End()

	s, err := h.Orders.Summary(ctx)
	if err != nil {
		h.fail(ctx, w, "order summary", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
