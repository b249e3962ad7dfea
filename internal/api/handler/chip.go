package handler

import (
	"errors"
	"net/http"

	"github.com/mihuella/pettrack/internal/api/respond"
	"github.com/mihuella/pettrack/internal/chip"
)

// GetAddress returns the saved shipping address.
// @Summary Get shipping address
// @Tags chip
// @Produce json
// @Param X-User-ID header string true "User id"
// @Success 200 {object} chip.AddressForm
// @Router /chip/address [get]
func (h *Handler) GetAddress(w http.ResponseWriter, r *http.Request) {
	addr, err := h.chip.Address(r.Context(), UserID(r.Context()))
	if err != nil {
		internalError(w, r, "get address", err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, chip.AddressForm{Address: addr})
}

// PutAddress saves the shipping address.
// @Summary Save shipping address
// @Tags chip
// @Accept json
// @Param X-User-ID header string true "User id"
// @Param body body chip.AddressForm true "Address"
// @Success 204
// @Failure 422 {object} respond.ErrorResponse
// @Router /chip/address [put]
func (h *Handler) PutAddress(w http.ResponseWriter, r *http.Request) {
	var form chip.AddressForm
	if !decodeBody(w, r, &form) {
		return
	}
	if err := h.chip.SetAddress(r.Context(), UserID(r.Context()), form); err != nil {
		if chip.FieldErrors(err) != nil {
			writeValidation(w, err)
			return
		}
		internalError(w, r, "set address", err)
		return
	}
	respond.WriteNoContent(w)
}

// PlaceOrder buys a chip. The card is checked, never charged.
// @Summary Order a tracking chip
// @Tags chip
// @Accept json
// @Produce json
// @Param X-User-ID header string true "User id"
// @Param body body chip.OrderRequest true "Order"
// @Success 201 {object} chip.Order
// @Failure 409 {object} respond.ErrorResponse
// @Failure 422 {object} respond.ErrorResponse
// @Router /chip/orders [post]
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req chip.OrderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	order, err := h.chip.PlaceOrder(r.Context(), UserID(r.Context()), req)
	switch {
	case err == nil:
		respond.WriteJSONObject(w, http.StatusCreated, order)
	case errors.Is(err, chip.ErrNoAddress):
		respond.WriteError(w, http.StatusConflict, "NO_ADDRESS", "Save a shipping address before ordering")
	case chip.FieldErrors(err) != nil:
		writeValidation(w, err)
	default:
		internalError(w, r, "place order", err)
	}
}

// ListOrders returns the caller's chip orders.
// @Summary List chip orders
// @Tags chip
// @Produce json
// @Param X-User-ID header string true "User id"
// @Success 200 {array} chip.Order
// @Router /chip/orders [get]
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.chip.Orders(r.Context(), UserID(r.Context()))
	if err != nil {
		internalError(w, r, "list orders", err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, orders)
}
