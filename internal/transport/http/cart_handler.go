package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type addCartItemRequest struct {
	ProductID string `json:"product_id"`
	Qty       int32  `json:"qty"`
}

type updateCartItemRequest struct {
	Qty int32 `json:"qty"`
}

func (h *handlers) getCart(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	view, err := h.Carts.Get(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartDTO(view))
}

func (h *handlers) addCartItem(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	var req addCartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.Carts.AddItem(r.Context(), claims.UserID, req.ProductID, req.Qty)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartDTO(view))
}

func (h *handlers) updateCartItem(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	var req updateCartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.Carts.UpdateItemQty(r.Context(), claims.UserID, chi.URLParam(r, "itemID"), req.Qty)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartDTO(view))
}

func (h *handlers) removeCartItem(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	view, err := h.Carts.RemoveItem(r.Context(), claims.UserID, chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartDTO(view))
}

func (h *handlers) clearCart(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	if err := h.Carts.Clear(r.Context(), claims.UserID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
