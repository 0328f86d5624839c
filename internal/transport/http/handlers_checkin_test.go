package httptransport

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	checkinmodels "supervision/internal/checkin/models"
	id "supervision/pkg/domain"
)

// seedCheckin puts a CREATED check-in behind the verified offender created
// through the setup endpoints.
func seedCheckin(t *testing.T, env *testEnv) (checkinID, offenderID string) {
	t.Helper()
	setupID, rawOffenderID := startSetup(t, env)
	env.uploadSetupPhoto(t, setupID)
	rec := env.do(t, http.MethodPost, "/setups/"+setupID+"/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	parsedOffenderID, err := id.ParseOffenderID(rawOffenderID)
	require.NoError(t, err)
	checkin := checkinmodels.NewCheckin(id.CheckinID(uuid.New()), parsedOffenderID,
		time.Now().Add(24*time.Hour).UTC(), time.Now().UTC(), "SYSTEM")
	require.NoError(t, env.checkins.Create(context.Background(), checkin))
	return checkin.ID.String(), rawOffenderID
}

func TestCheckinLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	checkinID, offenderID := seedCheckin(t, env)

	rec := env.do(t, http.MethodPost, "/checkins/"+checkinID+"/submit", map[string]any{
		"snapshot_keys": []string{"snap-1", "snap-2"},
		"survey":        map[string]string{"mood": "ok"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var submitted struct {
		Status      string `json:"status"`
		AutoIDCheck string `json:"auto_id_check"`
	}
	decodeInto(t, rec, &submitted)
	require.Equal(t, "SUBMITTED", submitted.Status)
	require.Equal(t, "MATCH", submitted.AutoIDCheck)

	rec = env.do(t, http.MethodPost, "/checkins/"+checkinID+"/review/start", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/checkins/"+checkinID+"/review", map[string]any{
		"manual_id_check": "MATCH",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var reviewed struct {
		Status     string `json:"status"`
		ReviewedBy string `json:"reviewed_by"`
	}
	decodeInto(t, rec, &reviewed)
	require.Equal(t, "REVIEWED", reviewed.Status)
	require.Equal(t, "PRAC-1", reviewed.ReviewedBy)

	rec = env.do(t, http.MethodGet, "/offenders/"+offenderID+"/checkins", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Checkins []struct {
			Status string `json:"status"`
		} `json:"checkins"`
	}
	decodeInto(t, rec, &list)
	require.Len(t, list.Checkins, 1)
	require.Equal(t, "REVIEWED", list.Checkins[0].Status)
}

func TestCheckinInvalidTransitionsOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	checkinID, _ := seedCheckin(t, env)

	t.Run("review before submission conflicts", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/checkins/"+checkinID+"/review", map[string]any{
			"manual_id_check": "MATCH",
		})
		require.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("double submission conflicts", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/checkins/"+checkinID+"/submit", map[string]any{
			"snapshot_keys": []string{"snap-1"},
		})
		require.Equal(t, http.StatusOK, rec.Code)
		rec = env.do(t, http.MethodPost, "/checkins/"+checkinID+"/submit", map[string]any{
			"snapshot_keys": []string{"snap-1"},
		})
		require.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("unknown outcome name is a bad request", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/checkins/"+checkinID+"/review", map[string]any{
			"manual_id_check": "PROBABLY",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown checkin id is a bad request", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/checkins/"+uuid.NewString(), nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
