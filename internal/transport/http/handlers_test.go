package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"supervision/internal/audit"
	auditstore "supervision/internal/audit/store"
	checkinservice "supervision/internal/checkin/service"
	checkinstore "supervision/internal/checkin/store"
	"supervision/internal/contacts"
	"supervision/internal/media"
	offenderservice "supervision/internal/offender/service"
	offenderstore "supervision/internal/offender/store/offender"
	setupstore "supervision/internal/offender/store/setup"
	"supervision/internal/verification"
	id "supervision/pkg/domain"
	"supervision/pkg/platform/middleware"
)

type testEnv struct {
	router    http.Handler
	storage   *media.Memory
	offenders *offenderstore.InMemory
	checkins  *checkinstore.InMemory
}

type staticVerifier struct{ outcome verification.Outcome }

func (v staticVerifier) Verify(context.Context, string, []string) verification.Outcome {
	return v.outcome
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	storage := media.NewMemory()
	recorder := audit.NewRecorder(auditstore.NewInMemory(), nil)
	provider := contacts.MockProvider{}

	offenders := offenderstore.NewInMemory()
	setups := setupstore.NewInMemory()
	setupSvc := offenderservice.New(offenders, setups, storage,
		offenderservice.WithContacts(provider),
		offenderservice.WithRecorder(recorder),
	)

	checkins := checkinstore.NewInMemory()
	checkinSvc := checkinservice.New(checkins, offenders, staticVerifier{outcome: verification.OutcomeMatch}, storage,
		checkinservice.WithContacts(provider),
		checkinservice.WithRecorder(recorder),
	)

	health := NewHealthHandler(map[string]HealthCheck{
		"store": func(context.Context) error { return nil },
	})
	router := NewRouter(NewSetupHandler(setupSvc), NewCheckinHandler(checkinSvc), health, nil)
	return &testEnv{router: router, storage: storage, offenders: offenders, checkins: checkins}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
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
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.PractitionerHeader, "PRAC-1")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(out))
}

func startSetup(t *testing.T, env *testEnv) (setupID, offenderID string) {
	rec := env.do(t, http.MethodPost, "/setups", map[string]any{
		"crn":              "X123456",
		"first_checkin":    time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
		"checkin_interval": "WEEKLY",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		SetupID  string `json:"setup_id"`
		Offender struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"offender"`
	}
	decodeInto(t, rec, &resp)
	require.NotEmpty(t, resp.SetupID)
	require.Equal(t, "INITIAL", resp.Offender.Status)
	return resp.SetupID, resp.Offender.ID
}

func TestSetupLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	setupID, offenderID := startSetup(t, env)

	// Photo not uploaded yet: completion conflicts, offender stays INITIAL.
	rec := env.do(t, http.MethodPost, "/setups/"+setupID+"/complete", nil)
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/offenders/"+offenderID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var offender struct {
		Status string `json:"status"`
	}
	decodeInto(t, rec, &offender)
	require.Equal(t, "INITIAL", offender.Status)

	rec = env.do(t, http.MethodPost, "/setups/"+setupID+"/opened", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	env.uploadSetupPhoto(t, setupID)
	rec = env.do(t, http.MethodPost, "/setups/"+setupID+"/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeInto(t, rec, &offender)
	require.Equal(t, "VERIFIED", offender.Status)

	// The setup is gone once completed.
	rec = env.do(t, http.MethodPost, "/setups/"+setupID+"/complete", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTerminateSetupOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	setupID, offenderID := startSetup(t, env)

	rec := env.do(t, http.MethodPost, "/setups/"+setupID+"/terminate", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/offenders/"+offenderID, nil)
	var offender struct {
		Status string `json:"status"`
	}
	decodeInto(t, rec, &offender)
	require.Equal(t, "INACTIVE", offender.Status)

	// An INACTIVE offender frees the CRN for a fresh setup.
	rec = env.do(t, http.MethodPost, "/setups", map[string]any{
		"crn":              "X123456",
		"first_checkin":    time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
		"checkin_interval": "WEEKLY",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestDuplicateCRNConflictsOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	startSetup(t, env)

	rec := env.do(t, http.MethodPost, "/setups", map[string]any{
		"crn":              "X123456",
		"first_checkin":    time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
		"checkin_interval": "WEEKLY",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestBadSetupRequestsOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name string
		body map[string]any
	}{
		{"unknown interval", map[string]any{
			"crn": "X123456", "first_checkin": time.Now().Format(time.RFC3339), "checkin_interval": "DAILY",
		}},
		{"malformed crn", map[string]any{
			"crn": "!!", "first_checkin": time.Now().Format(time.RFC3339), "checkin_interval": "WEEKLY",
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/setups", tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	t.Run("malformed setup id", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/setups/not-a-uuid/complete", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown offender id", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/offenders/9f9c1b1a-96c1-4a5e-b6a1-0e8e2b2f5d55", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	degraded := NewHealthHandler(map[string]HealthCheck{
		"redis": func(context.Context) error { return fmt.Errorf("connection refused") },
	})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	out := httptest.NewRecorder()
	degraded.handleHealth(out, req)
	require.Equal(t, http.StatusServiceUnavailable, out.Code)
}

// uploadSetupPhoto simulates the media gateway confirming the reference photo.
func (e *testEnv) uploadSetupPhoto(t *testing.T, setupID string) {
	t.Helper()
	parsed, err := id.ParseSetupID(setupID)
	require.NoError(t, err)
	e.storage.SetupPhotos[parsed] = true
}
