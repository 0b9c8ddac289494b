package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revivatech-backend/internal/booking"
	"revivatech-backend/internal/domain"
	"revivatech-backend/internal/pricing"
	"revivatech-backend/internal/security"
	"revivatech-backend/internal/utils"
)

type memBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*domain.Booking
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{bookings: map[string]*domain.Booking{}}
}

func (r *memBookingRepo) Create(_ context.Context, b *domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *memBookingRepo) GetByID(_ context.Context, id string) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, &domain.NotFoundError{Resource: "booking", ID: id}
	}
	cp := *b
	return &cp, nil
}

func (r *memBookingRepo) Update(_ context.Context, b *domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *memBookingRepo) ListByCustomer(_ context.Context, customerID string, _, _ int32) ([]domain.Booking, int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Booking
	for _, b := range r.bookings {
		if b.CustomerID == customerID {
			out = append(out, *b)
		}
	}
	return out, int32(len(out)), nil
}

type memNotificationRepoStub struct{}

func (memNotificationRepoStub) Create(context.Context, *domain.NotificationRecord) error { return nil }
func (memNotificationRepoStub) GetByID(context.Context, string) (*domain.NotificationRecord, error) {
	return nil, &domain.NotFoundError{Resource: "notification", ID: ""}
}
func (memNotificationRepoStub) Update(context.Context, *domain.NotificationRecord) error { return nil }
func (memNotificationRepoStub) ListDue(context.Context, time.Time, int32) ([]domain.NotificationRecord, error) {
	return nil, nil
}
func (memNotificationRepoStub) ListPendingInApp(context.Context, string) ([]domain.NotificationRecord, error) {
	return nil, nil
}
func (memNotificationRepoStub) ListDeadLettered(context.Context, int32) ([]domain.NotificationRecord, error) {
	return nil, nil
}

const testRulesYAML = `
repair_types:
  - name: screen replacement
    category: smartphone
    min_price_pence: 15000
    max_price_pence: 45000
    complexity: moderate
    warranty_months: 12
    duration_minutes: 90
rules:
  - name: apple premium
    modifier: brand
    kind: percentage
    value: 20
    priority: 20
    conditions:
      brand: Apple
`

func newTestServer(t *testing.T) (*mux.Router, *memBookingRepo) {
	t.Helper()

	rulesPath := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(rulesPath, []byte(testRulesYAML), 0o644))

	ruleSet, err := pricing.LoadRuleSet(rulesPath)
	require.NoError(t, err)
	engine := pricing.NewEngine(ruleSet, 0.8, 1.5)

	repo := newMemBookingRepo()
	clock := utils.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	manager := booking.NewManager(repo, engine, clock)

	router := NewRouter(RouterDeps{
		Manager:   manager,
		Engine:    engine,
		RulesPath: rulesPath,
		Records:   memNotificationRepoStub{},
		Tokens:    security.NewTokenManager("test-secret-at-least-32-chars-long", "revivatech"),
		Clock:     clock,
	})
	return router, repo
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createBookingPayload() map[string]any {
	return map[string]any{
		"customer_id": "cust-1",
		"device": map[string]any{
			"brand":     "Apple",
			"model":     "iPhone 14",
			"category":  "smartphone",
			"age_years": 2,
		},
		"repair_type": "screen replacement",
		"options":     map[string]any{"quantity": 1},
	}
}

func TestCreateBooking(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doJSON(t, router, "POST", "/api/v1/bookings", createBookingPayload())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var b domain.Booking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, domain.BookingStatusPending, b.Status)
	assert.NotNil(t, b.Estimate)
	assert.Greater(t, b.FinalPricePence, int64(0))
}

func TestCreateBooking_ValidationError(t *testing.T) {
	router, _ := newTestServer(t)

	payload := createBookingPayload()
	payload["repair_type"] = ""
	rec := doJSON(t, router, "POST", "/api/v1/bookings", payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetBooking_NotFound(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doJSON(t, router, "GET", "/api/v1/bookings/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransitionBooking(t *testing.T) {
	router, _ := newTestServer(t)

	created := doJSON(t, router, "POST", "/api/v1/bookings", createBookingPayload())
	require.Equal(t, http.StatusCreated, created.Code)
	var b domain.Booking
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &b))

	rec := doJSON(t, router, "POST", "/api/v1/bookings/"+b.ID+"/transition",
		map[string]string{"status": "CONFIRMED"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated domain.Booking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, domain.BookingStatusConfirmed, updated.Status)
	assert.Len(t, updated.StatusHistory, 2)
}

func TestTransitionBooking_IllegalEdgeConflicts(t *testing.T) {
	router, _ := newTestServer(t)

	created := doJSON(t, router, "POST", "/api/v1/bookings", createBookingPayload())
	require.Equal(t, http.StatusCreated, created.Code)
	var b domain.Booking
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &b))

	rec := doJSON(t, router, "POST", "/api/v1/bookings/"+b.ID+"/transition",
		map[string]string{"status": "REPAIR_STARTED"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestForceCancelBooking(t *testing.T) {
	router, _ := newTestServer(t)

	created := doJSON(t, router, "POST", "/api/v1/bookings", createBookingPayload())
	require.Equal(t, http.StatusCreated, created.Code)
	var b domain.Booking
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &b))

	rec := doJSON(t, router, "POST", "/api/v1/bookings/"+b.ID+"/cancel",
		map[string]string{"reason": "customer request"})
	require.Equal(t, http.StatusOK, rec.Code)

	var cancelled domain.Booking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cancelled))
	assert.Equal(t, domain.BookingStatusCancelled, cancelled.Status)
}

func TestQuotePreview(t *testing.T) {
	router, _ := newTestServer(t)

	payload := map[string]any{
		"device": map[string]any{
			"brand":     "Apple",
			"model":     "iPhone 14",
			"category":  "smartphone",
			"age_years": 2,
		},
		"repair_type": "screen replacement",
		"options":     map[string]any{"quantity": 1},
	}
	rec := doJSON(t, router, "POST", "/api/v1/quotes", payload)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var estimate domain.PriceEstimate
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &estimate))
	// Midpoint base 30000, the 20% Apple premium, then the moderate
	// complexity multiplier: 30000 * 1.2 * 1.15.
	assert.Equal(t, int64(30000), estimate.BasePricePence)
	assert.Equal(t, int64(41400), estimate.FinalPricePence)
}

func TestQuotePreview_UnknownRepairType(t *testing.T) {
	router, _ := newTestServer(t)

	payload := map[string]any{
		"device":      map[string]any{"brand": "Apple", "category": "smartphone"},
		"repair_type": "flux capacitor",
	}
	rec := doJSON(t, router, "POST", "/api/v1/quotes", payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReloadRules(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doJSON(t, router, "POST", "/api/v1/admin/pricing/reload", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"reloaded":true`)
}

func TestAuthMiddleware_StampsActor(t *testing.T) {
	router, repo := newTestServer(t)
	tokens := security.NewTokenManager("test-secret-at-least-32-chars-long", "revivatech")
	token, err := tokens.GenerateActorToken("tech-7", "technician", time.Hour)
	require.NoError(t, err)

	created := doJSON(t, router, "POST", "/api/v1/bookings", createBookingPayload())
	require.Equal(t, http.StatusCreated, created.Code)
	var b domain.Booking
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &b))

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(map[string]string{"status": "CONFIRMED"}))
	req := httptest.NewRequest("POST", "/api/v1/bookings/"+b.ID+"/transition", &buf)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := repo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, "tech-7", stored.StatusHistory[len(stored.StatusHistory)-1].Actor)
}

func TestAuthMiddleware_RejectsBadToken(t *testing.T) {
	router, _ := newTestServer(t)

	req := httptest.NewRequest("GET", "/api/v1/bookings/any", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
