package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/NikolajSankovDev/zyron/internal/audit"
	"github.com/NikolajSankovDev/zyron/internal/config"
	domain "github.com/NikolajSankovDev/zyron/internal/domain/appointment"
	"github.com/NikolajSankovDev/zyron/internal/infra/cache"
	"github.com/NikolajSankovDev/zyron/internal/infra/memory"
	"github.com/NikolajSankovDev/zyron/internal/infra/objectstore"
	"github.com/NikolajSankovDev/zyron/internal/infra/otel"
	"github.com/NikolajSankovDev/zyron/internal/models"
	"github.com/NikolajSankovDev/zyron/internal/notify"
	"github.com/NikolajSankovDev/zyron/internal/timezone"
	"github.com/NikolajSankovDev/zyron/internal/validators"
)

type inbox struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (i *inbox) Notify(_ context.Context, msg notify.Message) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.msgs = append(i.msgs, msg)
	return nil
}

type env struct {
	router  *gin.Engine
	store   *memory.Store
	inbox   *inbox
	barber  models.Barber
	service models.Service
	day     time.Time
	loc     *time.Location
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.JWTSecret = "routes-test"
	cfg.Server.JWTTTLHour = 1
	cfg.Studio.DefaultLocale = "en"
	cfg.Booking.SlotIntervalMinutes = 15
	cfg.Booking.Timeout = 5 * time.Second
	cfg.Booking.EnforceWorkingHours = true
	cfg.Booking.MaxRangeDays = 62
	cfg.Booking.SlotWorkerConcurrency = 2
	cfg.Cache.TTLSeconds = 60
	return cfg
}

// nextWorkingDay is at least a week out and never a Sunday.
func nextWorkingDay(loc *time.Location) time.Time {
	now := time.Now().In(loc)
	d := time.Date(now.Year(), now.Month(), now.Day()+7, 0, 0, 0, 0, loc)
	if d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvWithRepo(t, func(s *memory.Store) domain.Repository { return s })
}

// newEnvWithRepo lets a test put a wrapper between the handlers and the store.
func newEnvWithRepo(t *testing.T, repo func(*memory.Store) domain.Repository) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, validators.Register())

	loc := timezone.Location(timezone.DefaultTimezone)
	store := memory.New()

	svc := store.PutService(models.Service{
		Slug: "haircut", DurationMinutes: 30, BasePrice: decimal.NewFromInt(35), Active: true,
		Translations: []models.ServiceTranslation{{Locale: "en", Name: "Haircut"}},
	})
	b := store.PutBarber(models.Barber{DisplayName: "Nikolaj", Active: true})
	for wd := 1; wd <= 6; wd++ {
		store.PutWorkingHours(models.WorkingHours{BarberID: b.ID, Weekday: wd, StartTime: "09:00", EndTime: "18:00", Active: true})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin-password"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, store.CreateUser(context.Background(), &models.User{
		Name: "Owner", Email: "owner@zyron.test", PasswordHash: string(hash), Role: models.RoleAdmin,
	}))

	auditDispatcher := audit.NewDispatcher(audit.New(store), 16)
	t.Cleanup(auditDispatcher.Close)

	in := &inbox{}
	r := gin.New()
	cfg := testConfig()
	RegisterRoutes(r, Deps{
		Repo:     repo(store),
		Accounts: store,
		Audit:    auditDispatcher,
		AuditLog: audit.New(store),
		Notifier: in,
		Cache:    cache.Noop(),
		Otel:     otel.Noop(),
		Objects:  objectstore.New(cfg, otel.Noop()),
		Location: loc,
	}, cfg)

	return &env{router: r, store: store, inbox: in, barber: b, service: svc, day: nextWorkingDay(loc), loc: loc}
}

func (e *env) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *env) token(t *testing.T, path string, body any, want int) string {
	t.Helper()

	w := e.do(t, http.MethodPost, path, "", body)
	require.Equal(t, want, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Code string `json:"error_code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Code
}

func TestBookingFlow(t *testing.T) {
	e := newEnv(t)

	customer := e.token(t, "/api/auth/register", gin.H{
		"name": "Anna", "email": "anna@zyron.test", "password": "s3cret-pass",
	}, http.StatusCreated)

	start := time.Date(e.day.Year(), e.day.Month(), e.day.Day(), 10, 0, 0, 0, e.loc)
	booking := gin.H{
		"barber_id":   e.barber.ID,
		"start_time":  start.Format(time.RFC3339),
		"service_ids": []uint{e.service.ID},
	}

	w := e.do(t, http.MethodPost, "/api/appointments", customer, booking)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.Appointment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, models.StatusBooked, created.Status)
	assert.True(t, decimal.NewFromInt(35).Equal(created.TotalPrice))

	w = e.do(t, http.MethodPost, "/api/appointments", customer, booking)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "slot_conflict", errorCode(t, w))

	// 10:00 is gone from the grid
	w = e.do(t, http.MethodGet, fmt.Sprintf("/api/public/slots?barber_id=%d&duration=30&date=%s", e.barber.ID, e.day.Format("2006-01-02")), "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var slots struct {
		Slots []struct {
			Start     time.Time `json:"start"`
			Available bool      `json:"available"`
		} `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &slots))
	for _, s := range slots.Slots {
		if s.Start.Equal(start) {
			assert.False(t, s.Available)
		}
	}

	// customers are kept out of admin routes
	w = e.do(t, http.MethodGet, "/api/admin/barbers/1/calendar", customer, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin := e.token(t, "/api/auth/login", gin.H{"email": "owner@zyron.test", "password": "admin-password"}, http.StatusOK)

	w = e.do(t, http.MethodPost, fmt.Sprintf("/api/admin/barbers/%d/cancel-range", e.barber.ID), admin, gin.H{
		"start": start.Add(-time.Hour).Format(time.RFC3339),
		"end":   start.Add(time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var cancelled struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cancelled))
	assert.Equal(t, 1, cancelled.Count)

	assert.Contains(t, e.inbox.msgs, notify.Message{Kind: notify.KindBookingConfirmed, AppointmentID: created.ID})
	assert.Contains(t, e.inbox.msgs, notify.Message{Kind: notify.KindAppointmentCancelled, AppointmentID: created.ID})
}

func TestBookingErrors(t *testing.T) {
	e := newEnv(t)
	customer := e.token(t, "/api/auth/register", gin.H{
		"name": "Anna", "email": "anna@zyron.test", "password": "s3cret-pass",
	}, http.StatusCreated)

	at := func(h int) string {
		return time.Date(e.day.Year(), e.day.Month(), e.day.Day(), h, 0, 0, 0, e.loc).Format(time.RFC3339)
	}

	tests := []struct {
		name   string
		body   gin.H
		status int
		code   string
	}{
		{
			name:   "unknown service",
			body:   gin.H{"barber_id": e.barber.ID, "start_time": at(10), "service_ids": []uint{999}},
			status: http.StatusBadRequest,
			code:   "invalid_service_selection",
		},
		{
			name:   "outside working hours",
			body:   gin.H{"barber_id": e.barber.ID, "start_time": at(20), "service_ids": []uint{e.service.ID}},
			status: http.StatusUnprocessableEntity,
			code:   "outside_working_hours",
		},
		{
			name:   "unknown barber",
			body:   gin.H{"barber_id": 404, "start_time": at(10), "service_ids": []uint{e.service.ID}},
			status: http.StatusNotFound,
			code:   "not_found",
		},
		{
			name:   "no services",
			body:   gin.H{"barber_id": e.barber.ID, "start_time": at(10), "service_ids": []uint{}},
			status: http.StatusBadRequest,
			code:   "invalid_request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(t, http.MethodPost, "/api/appointments", customer, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}

	w := e.do(t, http.MethodPost, "/api/appointments", "", gin.H{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStorageOutageIsRetryable(t *testing.T) {
	e := newEnv(t)
	customer := e.token(t, "/api/auth/register", gin.H{
		"name": "Anna", "email": "anna@zyron.test", "password": "s3cret-pass",
	}, http.StatusCreated)

	e.store.SetFailure(assert.AnError)

	w := e.do(t, http.MethodPost, "/api/appointments", customer, gin.H{
		"barber_id":   e.barber.ID,
		"start_time":  time.Date(e.day.Year(), e.day.Month(), e.day.Day(), 10, 0, 0, 0, e.loc).Format(time.RFC3339),
		"service_ids": []uint{e.service.ID},
	})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp struct {
		Code      string `json:"error_code"`
		Retryable bool   `json:"retryable"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "storage_unavailable", resp.Code)
	assert.True(t, resp.Retryable)

	// reads degrade to empty instead of failing
	w = e.do(t, http.MethodGet, fmt.Sprintf("/api/public/availability/month?service_id=%d", e.service.ID), "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPublicCatalog(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodGet, "/api/public/services?locale=de", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []struct {
			Slug string `json:"slug"`
			Name string `json:"name"`
		} `json:"data"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "Haircut", resp.Data[0].Name)

	w = e.do(t, http.MethodGet, "/api/public/slots?date="+e.day.Format("2006-01-02"), "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

type cancelOutage struct{ *memory.Store }

func (cancelOutage) CancelAppointmentsInRange(context.Context, uint, time.Time, time.Time, time.Time) ([]models.Appointment, error) {
	return nil, domain.ErrStorageUnavailable
}

func TestTimeOffKeepsCreatedWhenCancellationFails(t *testing.T) {
	e := newEnvWithRepo(t, func(s *memory.Store) domain.Repository { return cancelOutage{s} })
	admin := e.token(t, "/api/auth/login", gin.H{"email": "owner@zyron.test", "password": "admin-password"}, http.StatusOK)

	start := time.Date(e.day.Year(), e.day.Month(), e.day.Day(), 12, 0, 0, 0, e.loc)
	w := e.do(t, http.MethodPost, fmt.Sprintf("/api/admin/barbers/%d/time-off", e.barber.ID), admin, gin.H{
		"start":              start.Format(time.RFC3339),
		"end":                start.Add(2 * time.Hour).Format(time.RFC3339),
		"cancel_overlapping": true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		TimeOff     models.TimeOff `json:"time_off"`
		CancelError struct {
			Code      string `json:"error_code"`
			Retryable bool   `json:"retryable"`
		} `json:"cancel_error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotZero(t, resp.TimeOff.ID)
	assert.Equal(t, "storage_unavailable", resp.CancelError.Code)
	assert.True(t, resp.CancelError.Retryable)

	offs, err := e.store.ListTimeOff(context.Background(), e.barber.ID, start, start.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Len(t, offs, 1)
}
