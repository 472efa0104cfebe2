package http

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

const idempotencyKeyHeader = "Idempotency-Key"

// idempotencyTTL ограничивает срок хранения ключа: повтор позже этого окна
// считается новым запросом.
const idempotencyTTL = 24 * time.Hour

type updateOrderStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// createOrder оформляет заказ из корзины. Заголовок Idempotency-Key
// опционален: повтор с тем же ключом возвращает сохранённый ответ,
// а не второй заказ.
func (h *handlers) createOrder(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	key := r.Header.Get(idempotencyKeyHeader)
	if key == "" {
		order, err := h.Checkout.CreateOrder(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toOrderDTO(order))
		return
	}
	requestHash := checkoutRequestHash(claims.UserID)

	record, err := h.Store.Idempotency().CreateProcessing(r.Context(), key, requestHash, time.Now().Add(idempotencyTTL))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists):
			h.replayIdempotent(w, record)
		default:
			writeError(w, err)
		}
		return
	}

	order, err := h.Checkout.CreateOrder(r.Context(), claims.UserID)
	if err != nil {
		body, _ := json.Marshal(errorResponse{Error: idempotentErrorMessage(err)})
		if markErr := h.Store.Idempotency().MarkFailed(r.Context(), key, body, statusFor(err)); markErr != nil {
			h.Logger.WithError(markErr).Warn("failed to persist idempotency failure")
		}
		writeError(w, err)
		return
	}

	body, _ := json.Marshal(toOrderDTO(order))
	if markErr := h.Store.Idempotency().MarkDone(r.Context(), key, body, http.StatusCreated); markErr != nil {
		h.Logger.WithError(markErr).Warn("failed to persist idempotency result")
	}
	writeJSON(w, http.StatusCreated, toOrderDTO(order))
}

// replayIdempotent отдаёт сохранённый результат повторного запроса.
// Если первый запрос ещё обрабатывается, клиент получает 409 и должен
// повторить позже с тем же ключом.
func (h *handlers) replayIdempotent(w http.ResponseWriter, record domain.IdempotencyRecord) {
	if record.Status == domain.IdempotencyStatusProcessing {
		writeErrorMessage(w, http.StatusConflict, "request with this idempotency key is still processing")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(record.HTTPStatus)
	_, _ = w.Write(record.ResponseBody)
}

func (h *handlers) listMyOrders(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	orders, err := h.Checkout.ListUserOrders(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTOs(orders))
}

func (h *handlers) getOrder(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	order, err := h.Checkout.GetOrder(r.Context(), chi.URLParam(r, "id"), claims.UserID, claims.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(order))
}

func (h *handlers) cancelOrder(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	order, err := h.Checkout.CancelOrder(r.Context(), chi.URLParam(r, "id"), claims.UserID, claims.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(order))
}

func (h *handlers) getOrderTimeline(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	events, err := h.Checkout.GetOrderTimeline(r.Context(), chi.URLParam(r, "id"), claims.UserID, claims.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTimelineDTOs(events))
}

func (h *handlers) listAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Checkout.ListAllOrders(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTOs(orders))
}

func (h *handlers) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateOrderStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.Checkout.UpdateOrderStatus(r.Context(), chi.URLParam(r, "id"), domain.OrderStatus(req.Status), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(order))
}

// checkoutRequestHash привязывает ключ идемпотентности к пользователю:
// тот же ключ от другого пользователя — это другой запрос.
func checkoutRequestHash(userID string) string {
	sum := sha256.Sum256([]byte("checkout:" + userID))
	return hex.EncodeToString(sum[:])
}

func idempotentErrorMessage(err error) string {
	if statusFor(err) == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}
