package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"storefront/pkg/order"
	appotel "storefront/pkg/otel"
	"storefront/pkg/validation"
)

// transitionRequest moves an order to a new status.
type transitionRequest struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

// listOrders lists orders. Customers only ever see their own; admins may
// filter by owner with ?userId=.
// @Summary List orders
// @Produce json
// @Param userId query string false "Owner filter (admin only)"
// @Success 200 {array} order.Order
// @Failure 401 {object} errorResponse
// @Security SessionCookie
// @Router /orders [get]
func (h *handlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, span := appotel.AddSpan(r.Context(), "api.listOrders")
	defer span.End()

	s, _ := sessionFrom(ctx)
	userID := s.UserID
	if isAdmin(s) {
		userID = r.URL.Query().Get("userId")
	}

	orders, err := h.Orders.List(ctx, userID)
	if err != nil {
		h.fail(ctx, w, "list orders", err)
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

// createOrder places an order.
// @Summary Create order
// @Accept json
// @Produce json
// @Param order body order.NewOrder true "Order"
// @Success 201 {object} order.Order
// @Failure 400 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Security SessionCookie
// @Router /orders [post]
func (h *handlers) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := appotel.AddSpan(r.Context(), "api.createOrder")
	defer span.End()

	var in order.NewOrder
	if err := decode(w, r, &in); err != nil {
		h.fail(ctx, w, "create order", err)
		return
	}

	s, _ := sessionFrom(ctx)
	if !isAdmin(s) {
		if in.UserID == "" {
			in.UserID = s.UserID
		}
		if in.UserID != s.UserID {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
	}

	o, err := h.Orders.Create(ctx, in)
	if err != nil {
		h.fail(ctx, w, "create order", err)
		return
	}
	h.Log.Info(ctx, "order created", "order_id", o.ID, "user_id", o.UserID, "total", o.Total.String())
	writeJSON(w, http.StatusCreated, o)
}

// getOrder retrieves an order by ID.
// @Summary Get order
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} order.Order
// @Failure 404 {object} errorResponse
// @Security SessionCookie
// @Router /orders/{id} [get]
func (h *handlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := appotel.AddSpan(r.Context(), "api.getOrder")
	defer span.End()

	o, err := h.Orders.Get(ctx, mux.Vars(r)["id"])
	if err != nil {
		h.fail(ctx, w, "get order", err)
		return
	}
	// Someone else's order looks the same as a missing one.
	if s, _ := sessionFrom(ctx); !isAdmin(s) && o.UserID != s.UserID {
		h.fail(ctx, w, "get order", order.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// updateOrder replaces non-status fields of an order.
// @Summary Update order
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param order body order.Patch true "Fields to change"
// @Success 200 {object} order.Order
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Security SessionCookie
// @Router /orders/{id} [put]
func (h *handlers) updateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := appotel.AddSpan(r.Context(), "api.updateOrder")
	defer span.End()

	var patch order.Patch
	if err := decode(w, r, &patch); err != nil {
		h.fail(ctx, w, "update order", err)
		return
	}
	o, err := h.Orders.Update(ctx, mux.Vars(r)["id"], patch)
	if err != nil {
		h.fail(ctx, w, "update order", err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// transitionOrder moves an order to a new status and records it in the
// history.
// @Summary Change order status
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param body body transitionRequest true "Status and optional note"
// @Success 200 {object} order.Order
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Security SessionCookie
// @Router /orders/{id} [patch]
func (h *handlers) transitionOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := appotel.AddSpan(r.Context(), "api.transitionOrder")
	defer span.End()

	var req transitionRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(ctx, w, "transition order", err)
		return
	}
	if req.Status == "" {
		h.fail(ctx, w, "transition order", validation.Required("status"))
		return
	}
	status, err := order.ParseStatus(req.Status)
	if err != nil {
		h.fail(ctx, w, "transition order", err)
		return
	}

	id := mux.Vars(r)["id"]
	o, err := h.Orders.Transition(ctx, id, status, req.Note)
	if err != nil {
		h.fail(ctx, w, "transition order", err)
		return
	}
	h.Log.Info(ctx, "order status changed", "order_id", id, "status", string(status))
	writeJSON(w, http.StatusOK, o)
}

// deleteOrder removes an order.
// @Summary Delete order
// @Param id path string true "Order ID"
// @Success 204
// @Failure 404 {object} errorResponse
// @Security SessionCookie
// @Router /orders/{id} [delete]
func (h *handlers) deleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := appotel.AddSpan(r.Context(), "api.deleteOrder")
	defer span.End()

	if err := h.Orders.Delete(ctx, mux.Vars(r)["id"]); err != nil {
		h.fail(ctx, w, "delete order", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
