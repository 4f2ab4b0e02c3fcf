package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"timekeeping-backend/config"
	"timekeeping-backend/internal/apperr"
	"timekeeping-backend/internal/auth"
	"timekeeping-backend/internal/export"
	"timekeeping-backend/internal/model"
	"timekeeping-backend/internal/policy"
	"timekeeping-backend/internal/review"
	"timekeeping-backend/internal/shift"
	"timekeeping-backend/internal/store"
	"timekeeping-backend/internal/testfixtures"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	worker   = model.Actor{WorkerID: "w1", CompanyID: "c1", Roles: []model.Role{model.RoleWorker}}
	coworker = model.Actor{WorkerID: "w2", CompanyID: "c1", Roles: []model.Role{model.RoleWorker}}
	manager  = model.Actor{WorkerID: "m1", CompanyID: "c1", Roles: []model.Role{model.RoleManager}}
	admin    = model.Actor{WorkerID: "a1", CompanyID: "c1", Roles: []model.Role{model.RoleAdmin}}
)

type testServer struct {
	router http.Handler
	tokens *auth.Manager
	clock  *testfixtures.Clock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	st := store.NewGormStore(testfixtures.NewSQLiteDB(t))
	clock := testfixtures.NewClock(time.Time{})
	logger := zap.NewNop()

	h := NewHandler(
		shift.NewService(st, logger, shift.WithClock(clock.Now)),
		review.NewService(st, nil, logger, clock.Now),
		policy.NewService(st, time.Minute, logger),
		logger,
	)
	tokens := auth.NewManager(&config.AuthConfig{JWTSecret: "test-secret", Issuer: "timekeeping"})
	cfg := &config.ServerConfig{RateLimitPerSec: 1000, RateLimitBurst: 1000, CacheTTLSeconds: 30}

	return &testServer{router: NewRouter(h, tokens, cfg, logger), tokens: tokens, clock: clock}
}

func (s *testServer) do(t *testing.T, method, path string, as *model.Actor, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if as != nil {
		token, err := s.tokens.Issue(*as, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func assertError(t *testing.T, w *httptest.ResponseRecorder, status int, kind apperr.Kind, reason string) {
	t.Helper()
	assert.Equal(t, status, w.Code, w.Body.String())
	body := decode[apperr.Response](t, w)
	assert.Equal(t, kind, body.Kind)
	assert.Equal(t, reason, body.Reason)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRequiresAuthentication(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/shifts", nil, nil)
	assertError(t, w, http.StatusUnauthorized, apperr.KindUnauthenticated, "")
}

func TestShiftLifecycle(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/shifts/active", &worker, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"shift":null}`, w.Body.String())

	s.clock.At(9, 0)
	w = s.do(t, http.MethodPost, "/api/shifts", &worker, map[string]string{"project_id": "p1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	rec := decode[model.Shift](t, w)
	assert.Equal(t, model.StatusActive, rec.Status)
	require.NotNil(t, rec.ProjectID)
	assert.Equal(t, "p1", *rec.ProjectID)

	w = s.do(t, http.MethodPost, "/api/shifts", &worker, nil)
	assertError(t, w, http.StatusConflict, apperr.KindConflict, apperr.ReasonAlreadyClockedIn)

	w = s.do(t, http.MethodGet, "/api/shifts/active", &worker, nil)
	active := decode[ActiveShiftResponse](t, w)
	require.NotNil(t, active.Shift)
	assert.Equal(t, rec.ID, active.Shift.ID)

	s.clock.At(12, 0)
	w = s.do(t, http.MethodPost, "/api/shifts/"+rec.ID+"/breaks/start", &worker, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/shifts/"+rec.ID+"/breaks/start", &worker, nil)
	assertError(t, w, http.StatusConflict, apperr.KindConflict, apperr.ReasonBreakAlreadyActive)

	s.clock.At(12, 30)
	w = s.do(t, http.MethodPost, "/api/shifts/"+rec.ID+"/breaks/end", &worker, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 30, decode[model.Shift](t, w).TotalBreakMinutes)

	s.clock.At(17, 0)
	w = s.do(t, http.MethodPost, "/api/shifts/"+rec.ID+"/clock-out", &worker, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode[model.Shift](t, w)
	assert.Equal(t, model.StatusPending, out.Status)
	assert.Equal(t, 450, out.WorkedMinutes())

	w = s.do(t, http.MethodPost, "/api/shifts/"+rec.ID+"/clock-out", &worker, nil)
	assertError(t, w, http.StatusConflict, apperr.KindConflict, apperr.ReasonNoActiveShift)

	w = s.do(t, http.MethodGet, "/api/shifts/summary?days=7", &worker, nil)
	require.Equal(t, http.StatusOK, w.Code)
	sum := decode[shift.Summary](t, w)
	assert.Equal(t, 450, sum.TotalWorkedMinutes)
	assert.Equal(t, 30, sum.TotalBreakMinutes)
}

func TestShiftActions_Boundary(t *testing.T) {
	s := newTestServer(t)
	s.clock.At(9, 0)
	w := s.do(t, http.MethodPost, "/api/shifts", &worker, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	rec := decode[model.Shift](t, w)

	t.Run("other worker's shift", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/shifts/"+rec.ID+"/clock-out", &coworker, nil)
		assertError(t, w, http.StatusForbidden, apperr.KindForbidden, "")
	})
	t.Run("unknown shift", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/shifts/missing/clock-out", &worker, nil)
		assertError(t, w, http.StatusNotFound, apperr.KindNotFound, "")
	})
	t.Run("malformed id", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/shifts/%20bad/clock-out", &worker, nil)
		assertError(t, w, http.StatusBadRequest, apperr.KindValidation, "")
	})
	t.Run("bad project id", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/shifts", &coworker, map[string]string{"project_id": "no spaces"})
		assertError(t, w, http.StatusBadRequest, apperr.KindValidation, "")
	})
	t.Run("summary days out of range", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/shifts/summary?days=0", &worker, nil)
		assertError(t, w, http.StatusBadRequest, apperr.KindValidation, "")
		w = s.do(t, http.MethodGet, "/api/shifts/summary?days=week", &worker, nil)
		assertError(t, w, http.StatusBadRequest, apperr.KindValidation, "")
	})
}

func TestCalendar(t *testing.T) {
	s := newTestServer(t)
	s.clock.At(9, 0)
	w := s.do(t, http.MethodPost, "/api/shifts", &worker, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodGet, "/api/shifts/calendar.ics", &worker, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.CalendarContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "BEGIN:VEVENT")

	w = s.do(t, http.MethodGet, "/api/shifts/calendar.ics", &worker, nil)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
}

func completeShift(t *testing.T, s *testServer, as model.Actor, startHour int) model.Shift {
	t.Helper()
	s.clock.At(startHour, 0)
	w := s.do(t, http.MethodPost, "/api/shifts", &as, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	rec := decode[model.Shift](t, w)

	s.clock.At(startHour+4, 0)
	w = s.do(t, http.MethodPost, "/api/shifts/"+rec.ID+"/clock-out", &as, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[model.Shift](t, w)
}

func TestReview(t *testing.T) {
	s := newTestServer(t)
	first := completeShift(t, s, worker, 6)
	second := completeShift(t, s, coworker, 7)

	t.Run("workers cannot review", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/review/timesheets", &worker, nil)
		assertError(t, w, http.StatusForbidden, apperr.KindForbidden, "")
		w = s.do(t, http.MethodPost, "/api/review/timesheets/"+first.ID+"/approve", &worker, nil)
		assertError(t, w, http.StatusForbidden, apperr.KindForbidden, "")
	})

	t.Run("status is parsed exactly", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/review/timesheets?status=Pending", &manager, nil)
		assertError(t, w, http.StatusBadRequest, apperr.KindValidation, "")
		w = s.do(t, http.MethodGet, "/api/review/timesheets?status=active", &manager, nil)
		assertError(t, w, http.StatusBadRequest, apperr.KindValidation, "")
	})

	w := s.do(t, http.MethodGet, "/api/review/timesheets?status=pending&page_size=1", &manager, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[review.Page](t, w)
	assert.EqualValues(t, 2, page.Total)
	assert.Len(t, page.Items, 1)

	w = s.do(t, http.MethodPost, "/api/review/timesheets/"+first.ID+"/approve", &manager, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, model.StatusVerified, decode[model.Shift](t, w).Status)

	w = s.do(t, http.MethodPost, "/api/review/timesheets/"+first.ID+"/approve", &manager, nil)
	assertError(t, w, http.StatusConflict, apperr.KindConflict, apperr.ReasonAlreadyVerified)

	w = s.do(t, http.MethodPost, "/api/review/timesheets/"+second.ID+"/dispute", &admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(t, http.MethodPost, "/api/review/timesheets/"+second.ID+"/dispute", &admin, nil)
	assertError(t, w, http.StatusConflict, apperr.KindConflict, apperr.ReasonNotPending)

	w = s.do(t, http.MethodGet, "/api/review/counts", &manager, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"pending":0,"disputed":1,"verified":1}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/review/export.xlsx", &manager, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, export.XLSXContentType, w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Disposition"), "attachment; filename*=UTF-8''timesheets_c1_verified_"))
	assert.NotZero(t, w.Body.Len())
}

func TestPolicy(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/policy", &worker, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "c1", decode[model.CompanyPolicy](t, w).CompanyID)

	in := policy.Input{
		BreakType:         "paid",
		BreakMinutes:      15,
		BreakTriggerHours: 4,
		LunchType:         "unpaid",
		LunchMinutes:      30,
		LunchTriggerHours: 6,
		OvertimeRateType:  "time_and_half",
		OvertimeDaily:     true,
	}

	w = s.do(t, http.MethodPut, "/api/policy", &manager, in)
	assertError(t, w, http.StatusForbidden, apperr.KindForbidden, "")

	w = s.do(t, http.MethodPut, "/api/policy", &admin, in)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/policy", &worker, nil)
	got := decode[model.CompanyPolicy](t, w)
	assert.Equal(t, model.BreakPaid, got.BreakType)
	assert.Equal(t, model.OvertimeTimeAndHalf, got.OvertimeRateType)
	assert.Equal(t, "a1", got.UpdatedBy)

	in.OvertimeRateType = "Double_Time"
	w = s.do(t, http.MethodPut, "/api/policy", &admin, in)
	assertError(t, w, http.StatusBadRequest, apperr.KindValidation, "")

	w = s.do(t, http.MethodPut, "/api/policy", &admin, "not an object")
	assertError(t, w, http.StatusBadRequest, apperr.KindValidation, "")
}
