package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/shinyyama/harvest-market-backend/internal/config"
	"github.com/shinyyama/harvest-market-backend/internal/db"
	"github.com/shinyyama/harvest-market-backend/internal/logger"
	appmw "github.com/shinyyama/harvest-market-backend/internal/middleware"
	"github.com/shinyyama/harvest-market-backend/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type harness struct {
	t   *testing.T
	db  *gorm.DB
	srv *Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gdb, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	srv, err := New(gdb, logger.Discard(), Options{AuthMode: config.AuthModeDev})
	require.NoError(t, err)
	return &harness{t: t, db: gdb, srv: srv}
}

func (h *harness) account(uid string, role model.Role, business string) *model.User {
	h.t.Helper()
	u := &model.User{FirebaseUID: uid, FirstName: uid, Role: role}
	require.NoError(h.t, h.db.Create(u).Error)
	switch role {
	case model.RoleFarmer:
		require.NoError(h.t, h.db.Create(&model.Farm{OwnerID: u.ID, Name: business}).Error)
	case model.RoleVendor:
		require.NoError(h.t, h.db.Create(&model.Vendor{OwnerID: u.ID, Name: business}).Error)
	}
	return u
}

func (h *harness) do(method, path, uid string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if uid != "" {
		req.Header.Set(appmw.DevUIDHeader, uid)
	}
	rec := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type idBody struct {
	ID           uint64          `json:"id"`
	Status       string          `json:"status"`
	OfferStatus  string          `json:"offerStatus"`
	FulfilledQty decimal.Decimal `json:"fulfilledQty"`
}

type errBody struct {
	Error struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	} `json:"error"`
}

func TestFulfillmentFlowOverHTTP(t *testing.T) {
	h := newHarness(t)
	h.account("vendor-1", model.RoleVendor, "Corner Shop")
	h.account("farmer-a", model.RoleFarmer, "Farm A")
	h.account("farmer-b", model.RoleFarmer, "Farm B")
	product := &model.Product{Name: "Tomato", Unit: "kg"}
	require.NoError(t, h.db.Create(product).Error)

	rec := h.do(http.MethodPost, "/api/pre-orders", "vendor-1", map[string]any{"productId": product.ID, "qty": "100"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	po := decode[idBody](t, rec)
	require.Equal(t, "pending", po.Status)

	offerPath := fmt.Sprintf("/api/order-details/%d", po.ID)
	rec = h.do(http.MethodPost, offerPath, "farmer-a", map[string]any{"fulfilledQty": "60", "offerStatus": "accepted"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	offerA := decode[idBody](t, rec)

	rec = h.do(http.MethodPost, offerPath, "farmer-a", map[string]any{"fulfilledQty": "10", "offerStatus": "accepted"})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "duplicate_offer", decode[errBody](t, rec).Error.Code)

	rec = h.do(http.MethodPost, offerPath, "farmer-b", map[string]any{"fulfilledQty": "60", "offerStatus": "accepted"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	offerB := decode[idBody](t, rec)

	for _, id := range []uint64{offerA.ID, offerB.ID} {
		rec = h.do(http.MethodPut, fmt.Sprintf("/api/order-details/%d/offer-status", id), "vendor-1", map[string]any{"offerStatus": "confirmed"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	confirmedB := decode[idBody](t, rec)
	require.True(t, confirmedB.FulfilledQty.Equal(decimal.NewFromInt(40)), confirmedB.FulfilledQty.String())

	rec = h.do(http.MethodGet, fmt.Sprintf("/api/pre-orders/%d", po.ID), "vendor-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "fulfilled", decode[idBody](t, rec).Status)

	rec = h.do(http.MethodGet, "/api/market-supplies", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	supplies := decode[struct {
		Items []struct {
			AvailableQty decimal.Decimal `json:"availableQty"`
		} `json:"items"`
		Total int64 `json:"total"`
	}](t, rec)
	require.EqualValues(t, 1, supplies.Total)
	require.True(t, supplies.Items[0].AvailableQty.Equal(decimal.NewFromInt(20)))

	rec = h.do(http.MethodGet, "/api/notifications/unread-count", "farmer-b", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Positive(t, decode[map[string]int64](t, rec)["unreadCount"])

	rec = h.do(http.MethodGet, "/api/me/crops", "farmer-b", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 1, decode[struct {
		Total int64 `json:"total"`
	}](t, rec).Total)
}

func TestRequestRejections(t *testing.T) {
	h := newHarness(t)
	h.account("vendor-1", model.RoleVendor, "Corner Shop")
	h.account("shopper", model.RoleConsumer, "")
	product := &model.Product{Name: "Carrot", Unit: "kg"}
	require.NoError(t, h.db.Create(product).Error)

	tests := []struct {
		name   string
		uid    string
		body   map[string]any
		status int
		code   string
	}{
		{name: "no credentials", uid: "", body: map[string]any{"productId": product.ID, "qty": "5"}, status: http.StatusUnauthorized},
		{name: "unknown user", uid: "ghost", body: map[string]any{"productId": product.ID, "qty": "5"}, status: http.StatusUnauthorized},
		{name: "wrong role", uid: "shopper", body: map[string]any{"productId": product.ID, "qty": "5"}, status: http.StatusForbidden, code: "forbidden"},
		{name: "missing product", uid: "vendor-1", body: map[string]any{"qty": "5"}, status: http.StatusUnprocessableEntity, code: "validation_error"},
		{name: "quantity below one", uid: "vendor-1", body: map[string]any{"productId": product.ID, "qty": "0.5"}, status: http.StatusUnprocessableEntity, code: "validation_error"},
		{name: "bad date format", uid: "vendor-1", body: map[string]any{"productId": product.ID, "qty": "5", "deliveryDate": "05/01/2030"}, status: http.StatusUnprocessableEntity, code: "validation_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(http.MethodPost, "/api/pre-orders", tt.uid, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.code != "" {
				require.Equal(t, tt.code, decode[errBody](t, rec).Error.Code)
			}
		})
	}

	rec := h.do(http.MethodPost, "/api/pre-orders", "vendor-1", map[string]any{"qty": "5"})
	require.Equal(t, "required", decode[errBody](t, rec).Error.Fields["productId"])

	rec = h.do(http.MethodGet, "/api/pre-orders/abc", "vendor-1", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodGet, "/api/pre-orders/999", "vendor-1", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDatabaseNotReady(t *testing.T) {
	srv, err := New(nil, logger.Discard(), Options{AuthMode: config.AuthModeDev})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"db_ready":"false"`)

	req := httptest.NewRequest(http.MethodGet, "/api/pre-orders", nil)
	req.Header.Set(appmw.DevUIDHeader, "vendor-1")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "db_not_ready", decode[errBody](t, rec).Error.Code)

	gdb, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	srv.SetDB(gdb)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestSetDBWhileServing(t *testing.T) {
	srv, err := New(nil, logger.Discard(), Options{AuthMode: config.AuthModeDev})
	require.NoError(t, err)
	gdb, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	const workers, rounds = 4, 25
	codes := make(chan int, workers*rounds)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				rec := httptest.NewRecorder()
				srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))
				codes <- rec.Code
			}
		}()
	}
	srv.SetDB(gdb)
	wg.Wait()
	close(codes)

	for code := range codes {
		require.Contains(t, []int{http.StatusOK, http.StatusServiceUnavailable}, code)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
