package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/shop/internal/auth"
	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/service/authsvc"
	"github.com/vladislavdragonenkov/shop/internal/service/cart"
	"github.com/vladislavdragonenkov/shop/internal/service/catalog"
	"github.com/vladislavdragonenkov/shop/internal/service/checkout"
	"github.com/vladislavdragonenkov/shop/internal/service/user"
	"github.com/vladislavdragonenkov/shop/internal/storage/memory"
)

type testEnv struct {
	server *httptest.Server
	store  *memory.Store
	tokens *auth.TokenManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	tokens, err := auth.NewTokenManager("test-secret-for-router", time.Hour)
	require.NoError(t, err)

	router := NewRouter(Services{
		Auth:     authsvc.NewService(store, tokens, nil),
		Users:    user.NewService(store, nil),
		Catalog:  catalog.NewService(store, nil, nil),
		Carts:    cart.NewService(store, nil),
		Checkout: checkout.NewServiceWithoutMetrics(store, nil),
		Store:    store,
		Tokens:   tokens,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, store: store, tokens: tokens}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any, headers map[string]string) *nethttp.Response {
	t.Helper()

	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewReader(raw)
	}

	req, err := nethttp.NewRequest(method, e.server.URL+path, payload)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *nethttp.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (e *testEnv) registerUser(t *testing.T, email string) sessionDTO {
	t.Helper()
	resp := e.do(t, nethttp.MethodPost, "/api/auth/register", "", registerRequest{
		Email:    email,
		Name:     "Test User",
		Password: "correct-horse",
	}, nil)
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)
	return decodeBody[sessionDTO](t, resp)
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()

	hash, err := auth.HashPassword("admin-password")
	require.NoError(t, err)

	admin, err := e.store.Users().Create(context.Background(), domain.User{
		Email:        "admin@shop.local",
		Name:         "Admin",
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
	})
	require.NoError(t, err)

	token, err := e.tokens.Issue(admin)
	require.NoError(t, err)
	return token
}

func (e *testEnv) createProduct(t *testing.T, adminToken, name string, priceMinor int64, stock int32) productDTO {
	t.Helper()
	resp := e.do(t, nethttp.MethodPost, "/api/products", adminToken, productRequest{
		Name:       name,
		PriceMinor: priceMinor,
		Stock:      stock,
	}, nil)
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)
	return decodeBody[productDTO](t, resp)
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t)

	session := env.registerUser(t, "alice@example.com")
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "alice@example.com", session.User.Email)
	assert.Equal(t, "user", session.User.Role)

	t.Run("duplicate email", func(t *testing.T) {
		resp := env.do(t, nethttp.MethodPost, "/api/auth/register", "", registerRequest{
			Email:    "Alice@Example.com",
			Name:     "Imposter",
			Password: "another-pass",
		}, nil)
		assert.Equal(t, nethttp.StatusConflict, resp.StatusCode)
	})

	t.Run("login", func(t *testing.T) {
		resp := env.do(t, nethttp.MethodPost, "/api/auth/login", "", loginRequest{
			Email:    "alice@example.com",
			Password: "correct-horse",
		}, nil)
		require.Equal(t, nethttp.StatusOK, resp.StatusCode)
		got := decodeBody[sessionDTO](t, resp)
		assert.NotEmpty(t, got.Token)
	})

	t.Run("login wrong password", func(t *testing.T) {
		resp := env.do(t, nethttp.MethodPost, "/api/auth/login", "", loginRequest{
			Email:    "alice@example.com",
			Password: "wrong",
		}, nil)
		assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("profile", func(t *testing.T) {
		resp := env.do(t, nethttp.MethodGet, "/api/auth/profile", session.Token, nil, nil)
		require.Equal(t, nethttp.StatusOK, resp.StatusCode)
		got := decodeBody[userDTO](t, resp)
		assert.Equal(t, session.User.ID, got.ID)
	})

	t.Run("profile without token", func(t *testing.T) {
		resp := env.do(t, nethttp.MethodGet, "/api/auth/profile", "", nil, nil)
		assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("garbage token", func(t *testing.T) {
		resp := env.do(t, nethttp.MethodGet, "/api/auth/profile", "not-a-jwt", nil, nil)
		assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
	})
}

func TestProductEndpoints(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.adminToken(t)
	userToken := env.registerUser(t, "bob@example.com").Token

	created := env.createProduct(t, adminToken, "Keyboard", 4990, 12)
	assert.Equal(t, int32(12), created.Stock)

	t.Run("create requires admin", func(t *testing.T) {
		resp := env.do(t, nethttp.MethodPost, "/api/products", userToken, productRequest{
			Name:       "Mouse",
			PriceMinor: 1990,
			Stock:      3,
		}, nil)
		assert.Equal(t, nethttp.StatusForbidden, resp.StatusCode)
	})

	t.Run("public list and get", func(t *testing.T) {
		resp := env.do(t, nethttp.MethodGet, "/api/products", "", nil, nil)
		require.Equal(t, nethttp.StatusOK, resp.StatusCode)
		list := decodeBody[[]productDTO](t, resp)
		require.Len(t, list, 1)

		resp = env.do(t, nethttp.MethodGet, "/api/products/"+created.ID, "", nil, nil)
		require.Equal(t, nethttp.StatusOK, resp.StatusCode)
		got := decodeBody[productDTO](t, resp)
		assert.Equal(t, "Keyboard", got.Name)
	})

	t.Run("search", func(t *testing.T) {
		resp := env.do(t, nethttp.MethodGet, "/api/products/search?q=key", "", nil, nil)
		require.Equal(t, nethttp.StatusOK, resp.StatusCode)
		list := decodeBody[[]productDTO](t, resp)
		assert.Len(t, list, 1)
	})

	t.Run("update keeps stock", func(t *testing.T) {
		resp := env.do(t, nethttp.MethodPut, "/api/products/"+created.ID, adminToken, productRequest{
			Name:       "Keyboard v2",
			PriceMinor: 5990,
		}, nil)
		require.Equal(t, nethttp.StatusOK, resp.StatusCode)
		got := decodeBody[productDTO](t, resp)
		assert.Equal(t, "Keyboard v2", got.Name)
		assert.Equal(t, int32(12), got.Stock)
	})

	t.Run("invalid payload", func(t *testing.T) {
		resp := env.do(t, nethttp.MethodPost, "/api/products", adminToken, map[string]any{
			"name":        "Broken",
			"price_minor": 100,
			"unexpected":  true,
		}, nil)
		assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
	})

	t.Run("delete", func(t *testing.T) {
		resp := env.do(t, nethttp.MethodDelete, "/api/products/"+created.ID, adminToken, nil, nil)
		require.Equal(t, nethttp.StatusNoContent, resp.StatusCode)

		resp = env.do(t, nethttp.MethodGet, "/api/products/"+created.ID, "", nil, nil)
		assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode)
	})
}

func TestCartEndpoints(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.adminToken(t)
	userToken := env.registerUser(t, "carol@example.com").Token
	product := env.createProduct(t, adminToken, "Headphones", 12900, 5)

	t.Run("empty cart", func(t *testing.T) {
		resp := env.do(t, nethttp.MethodGet, "/api/cart", userToken, nil, nil)
		require.Equal(t, nethttp.StatusOK, resp.StatusCode)
		got := decodeBody[cartDTO](t, resp)
		assert.Empty(t, got.Items)
		assert.Zero(t, got.TotalMinor)
	})

	var itemID string
	t.Run("add item", func(t *testing.T) {
		resp := env.do(t, nethttp.MethodPost, "/api/cart/items", userToken, addCartItemRequest{
			ProductID: product.ID,
			Qty:       2,
		}, nil)
		require.Equal(t, nethttp.StatusOK, resp.StatusCode)
		got := decodeBody[cartDTO](t, resp)
		require.Len(t, got.Items, 1)
		assert.Equal(t, int64(25800), got.TotalMinor)
		itemID = got.Items[0].ID
	})

	t.Run("add over stock", func(t *testing.T) {
		resp := env.do(t, nethttp.MethodPost, "/api/cart/items", userToken, addCartItemRequest{
			ProductID: product.ID,
			Qty:       99,
		}, nil)
		assert.Equal(t, nethttp.StatusConflict, resp.StatusCode)
	})

	t.Run("update qty", func(t *testing.T) {
		resp := env.do(t, nethttp.MethodPut, "/api/cart/items/"+itemID, userToken, updateCartItemRequest{Qty: 3}, nil)
		require.Equal(t, nethttp.StatusOK, resp.StatusCode)
		got := decodeBody[cartDTO](t, resp)
		require.Len(t, got.Items, 1)
		assert.Equal(t, int32(3), got.Items[0].Qty)
	})

	t.Run("foreign item is invisible", func(t *testing.T) {
		otherToken := env.registerUser(t, "dave@example.com").Token
		resp := env.do(t, nethttp.MethodPut, "/api/cart/items/"+itemID, otherToken, updateCartItemRequest{Qty: 1}, nil)
		assert.Equal(t, nethttp.StatusForbidden, resp.StatusCode)
	})

	t.Run("remove item", func(t *testing.T) {
		resp := env.do(t, nethttp.MethodDelete, "/api/cart/items/"+itemID, userToken, nil, nil)
		require.Equal(t, nethttp.StatusOK, resp.StatusCode)
		got := decodeBody[cartDTO](t, resp)
		assert.Empty(t, got.Items)
	})

	t.Run("clear", func(t *testing.T) {
		resp := env.do(t, nethttp.MethodPost, "/api/cart/items", userToken, addCartItemRequest{
			ProductID: product.ID,
			Qty:       1,
		}, nil)
		require.Equal(t, nethttp.StatusOK, resp.StatusCode)

		resp = env.do(t, nethttp.MethodDelete, "/api/cart", userToken, nil, nil)
		require.Equal(t, nethttp.StatusNoContent, resp.StatusCode)
	})
}

func TestOrderEndpoints(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.adminToken(t)
	userToken := env.registerUser(t, "erin@example.com").Token
	product := env.createProduct(t, adminToken, "Monitor", 19900, 4)

	addToCart := func(t *testing.T, token string, qty int32) {
		t.Helper()
		resp := env.do(t, nethttp.MethodPost, "/api/cart/items", token, addCartItemRequest{
			ProductID: product.ID,
			Qty:       qty,
		}, nil)
		require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	}

	t.Run("empty cart without key", func(t *testing.T) {
		resp := env.do(t, nethttp.MethodPost, "/api/orders", userToken, nil, nil)
		assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
	})

	t.Run("empty cart", func(t *testing.T) {
		resp := env.do(t, nethttp.MethodPost, "/api/orders", userToken, nil, map[string]string{
			idempotencyKeyHeader: "key-empty-cart",
		})
		assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
	})

	var order orderDTO
	t.Run("checkout", func(t *testing.T) {
		addToCart(t, userToken, 2)
		resp := env.do(t, nethttp.MethodPost, "/api/orders", userToken, nil, map[string]string{
			idempotencyKeyHeader: "key-checkout-1",
		})
		require.Equal(t, nethttp.StatusCreated, resp.StatusCode)
		order = decodeBody[orderDTO](t, resp)
		assert.Equal(t, "pending", order.Status)
		assert.Equal(t, int64(39800), order.TotalMinor)

		// Корзина очищена в той же транзакции.
		cartResp := env.do(t, nethttp.MethodGet, "/api/cart", userToken, nil, nil)
		require.Equal(t, nethttp.StatusOK, cartResp.StatusCode)
		assert.Empty(t, decodeBody[cartDTO](t, cartResp).Items)
	})

	t.Run("idempotent replay returns same order", func(t *testing.T) {
		resp := env.do(t, nethttp.MethodPost, "/api/orders", userToken, nil, map[string]string{
			idempotencyKeyHeader: "key-checkout-1",
		})
		require.Equal(t, nethttp.StatusCreated, resp.StatusCode)
		replayed := decodeBody[orderDTO](t, resp)
		assert.Equal(t, order.ID, replayed.ID)

		// Повтор не создал второго заказа.
		listResp := env.do(t, nethttp.MethodGet, "/api/orders", userToken, nil, nil)
		require.Equal(t, nethttp.StatusOK, listResp.StatusCode)
		assert.Len(t, decodeBody[[]orderDTO](t, listResp), 1)
	})

	t.Run("failed checkout is replayed too", func(t *testing.T) {
		resp := env.do(t, nethttp.MethodPost, "/api/orders", userToken, nil, map[string]string{
			idempotencyKeyHeader: "key-empty-cart",
		})
		assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
	})

	t.Run("get order enforces ownership", func(t *testing.T) {
		resp := env.do(t, nethttp.MethodGet, "/api/orders/"+order.ID, userToken, nil, nil)
		assert.Equal(t, nethttp.StatusOK, resp.StatusCode)

		otherToken := env.registerUser(t, "mallory@example.com").Token
		resp = env.do(t, nethttp.MethodGet, "/api/orders/"+order.ID, otherToken, nil, nil)
		assert.Equal(t, nethttp.StatusForbidden, resp.StatusCode)
	})

	t.Run("timeline", func(t *testing.T) {
		resp := env.do(t, nethttp.MethodGet, "/api/orders/"+order.ID+"/timeline", userToken, nil, nil)
		require.Equal(t, nethttp.StatusOK, resp.StatusCode)
		events := decodeBody[[]timelineEventDTO](t, resp)
		require.NotEmpty(t, events)
	})

	t.Run("cancel restores stock", func(t *testing.T) {
		resp := env.do(t, nethttp.MethodPost, "/api/orders/"+order.ID+"/cancel", userToken, nil, nil)
		require.Equal(t, nethttp.StatusOK, resp.StatusCode)
		got := decodeBody[orderDTO](t, resp)
		assert.Equal(t, "cancelled", got.Status)

		prodResp := env.do(t, nethttp.MethodGet, "/api/products/"+product.ID, "", nil, nil)
		require.Equal(t, nethttp.StatusOK, prodResp.StatusCode)
		assert.Equal(t, int32(4), decodeBody[productDTO](t, prodResp).Stock)
	})

	t.Run("double cancel conflicts", func(t *testing.T) {
		resp := env.do(t, nethttp.MethodPost, "/api/orders/"+order.ID+"/cancel", userToken, nil, nil)
		assert.Equal(t, nethttp.StatusConflict, resp.StatusCode)
	})

	t.Run("admin list and status override", func(t *testing.T) {
		addToCart(t, userToken, 1)
		resp := env.do(t, nethttp.MethodPost, "/api/orders", userToken, nil, map[string]string{
			idempotencyKeyHeader: "key-checkout-2",
		})
		require.Equal(t, nethttp.StatusCreated, resp.StatusCode)
		second := decodeBody[orderDTO](t, resp)

		listResp := env.do(t, nethttp.MethodGet, "/api/admin/orders", adminToken, nil, nil)
		require.Equal(t, nethttp.StatusOK, listResp.StatusCode)
		assert.Len(t, decodeBody[[]orderDTO](t, listResp), 2)

		statusResp := env.do(t, nethttp.MethodPut, fmt.Sprintf("/api/admin/orders/%s/status", second.ID), adminToken, updateOrderStatusRequest{
			Status: "processing",
		}, nil)
		require.Equal(t, nethttp.StatusOK, statusResp.StatusCode)
		assert.Equal(t, "processing", decodeBody[orderDTO](t, statusResp).Status)

		forbidden := env.do(t, nethttp.MethodPut, fmt.Sprintf("/api/admin/orders/%s/status", second.ID), userToken, updateOrderStatusRequest{
			Status: "completed",
		}, nil)
		assert.Equal(t, nethttp.StatusForbidden, forbidden.StatusCode)
	})
}

func TestUserEndpoints(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.adminToken(t)
	session := env.registerUser(t, "frank@example.com")

	t.Run("admin list", func(t *testing.T) {
		resp := env.do(t, nethttp.MethodGet, "/api/users", adminToken, nil, nil)
		require.Equal(t, nethttp.StatusOK, resp.StatusCode)
		assert.Len(t, decodeBody[[]userDTO](t, resp), 2)
	})

	t.Run("list requires admin", func(t *testing.T) {
		resp := env.do(t, nethttp.MethodGet, "/api/users", session.Token, nil, nil)
		assert.Equal(t, nethttp.StatusForbidden, resp.StatusCode)
	})

	t.Run("update own profile", func(t *testing.T) {
		resp := env.do(t, nethttp.MethodPut, "/api/users/me", session.Token, updateProfileRequest{Name: "Franklin"}, nil)
		require.Equal(t, nethttp.StatusOK, resp.StatusCode)
		assert.Equal(t, "Franklin", decodeBody[userDTO](t, resp).Name)
	})

	t.Run("change password", func(t *testing.T) {
		resp := env.do(t, nethttp.MethodPut, "/api/users/me/password", session.Token, changePasswordRequest{
			CurrentPassword: "correct-horse",
			NewPassword:     "battery-staple",
		}, nil)
		require.Equal(t, nethttp.StatusNoContent, resp.StatusCode)

		loginResp := env.do(t, nethttp.MethodPost, "/api/auth/login", "", loginRequest{
			Email:    "frank@example.com",
			Password: "battery-staple",
		}, nil)
		assert.Equal(t, nethttp.StatusOK, loginResp.StatusCode)
	})

	t.Run("change password with wrong current", func(t *testing.T) {
		resp := env.do(t, nethttp.MethodPut, "/api/users/me/password", session.Token, changePasswordRequest{
			CurrentPassword: "correct-horse",
			NewPassword:     "next-password",
		}, nil)
		assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("admin delete", func(t *testing.T) {
		resp := env.do(t, nethttp.MethodDelete, "/api/users/"+session.User.ID, adminToken, nil, nil)
		require.Equal(t, nethttp.StatusNoContent, resp.StatusCode)

		getResp := env.do(t, nethttp.MethodGet, "/api/users/"+session.User.ID, adminToken, nil, nil)
		assert.Equal(t, nethttp.StatusNotFound, getResp.StatusCode)
	})
}
