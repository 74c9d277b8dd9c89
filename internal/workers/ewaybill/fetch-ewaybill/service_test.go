package fetchewaybill

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"ewaybill-workers/internal/common/config"
	"ewaybill-workers/internal/common/database"
	"ewaybill-workers/internal/common/errors"
	"ewaybill-workers/internal/common/ewaybill"
	"ewaybill-workers/internal/common/logger"
	"ewaybill-workers/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeComplianceAPI serves /ewayapi/getewaybill and counts calls.
func fakeComplianceAPI(t *testing.T, status int, body string) (*ewaybill.Client, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/ewayapi/getewaybill", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return ewaybill.NewClient(config.EwayBillConfig{BaseURL: srv.URL, Email: "ops@example.test", Timeout: 2000}), &calls
}

func newRedis(t *testing.T) (*database.RedisClient, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc, err := database.NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })
	return rc, mr
}

const docBody = `{"ewbNo":"351000000001","vehicleNo":"KA01AB1234","validUpto":"15/03/2026 23:59:00","hoursToExpiry":5.5,"fromPlace":"Mysuru","fromState":29}`

func TestExecute_CachesAfterFirstFetch(t *testing.T) {
	api, calls := fakeComplianceAPI(t, http.StatusOK, docBody)
	rc, mr := newRedis(t)
	svc := NewService(ServiceDependencies{Fetcher: api, Cache: rc, Logger: logger.NewTestLogger(t)}, DefaultConfig())
	ctx := context.Background()

	first, err := svc.Execute(ctx, &Input{EwbNo: "351000000001"})
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, "KA01AB1234", first.EwayBill.Vehicle)
	assert.Equal(t, models.BadgeCritical, first.Badge)
	assert.True(t, mr.Exists("ewaybill:doc:351000000001"))

	second, err := svc.Execute(ctx, &Input{EwbNo: "351000000001"})
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.EwayBill, second.EwayBill)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))

	mr.FastForward(DefaultConfig().CacheTTL + time.Second)
	_, err = svc.Execute(ctx, &Input{EwbNo: "351000000001"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(calls))
}

func TestExecute_CacheFailureFallsBackToAPI(t *testing.T) {
	api, calls := fakeComplianceAPI(t, http.StatusOK, docBody)
	rc, mr := newRedis(t)
	mr.Close()

	svc := NewService(ServiceDependencies{Fetcher: api, Cache: rc, Logger: logger.NewTestLogger(t)}, DefaultConfig())
	out, err := svc.Execute(context.Background(), &Input{EwbNo: "351000000001"})

	require.NoError(t, err)
	assert.False(t, out.FromCache)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}

func TestExecute_NoCache(t *testing.T) {
	api, calls := fakeComplianceAPI(t, http.StatusOK, docBody)
	svc := NewService(ServiceDependencies{Fetcher: api}, DefaultConfig())

	for i := 0; i < 2; i++ {
		_, err := svc.Execute(context.Background(), &Input{EwbNo: "351000000001"})
		require.NoError(t, err)
	}
	assert.EqualValues(t, 2, atomic.LoadInt32(calls))
}

func TestExecute_NotFound(t *testing.T) {
	api, _ := fakeComplianceAPI(t, http.StatusNotFound, `{"message":"no such bill"}`)
	rc, mr := newRedis(t)
	svc := NewService(ServiceDependencies{Fetcher: api, Cache: rc}, DefaultConfig())

	_, err := svc.Execute(context.Background(), &Input{EwbNo: "351000000009"})

	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
	assert.False(t, mr.Exists("ewaybill:doc:351000000009"))
}

func TestExecute_RejectsNonNumeric(t *testing.T) {
	api, calls := fakeComplianceAPI(t, http.StatusOK, docBody)
	svc := NewService(ServiceDependencies{Fetcher: api}, DefaultConfig())

	_, err := svc.Execute(context.Background(), &Input{EwbNo: "abc"})

	assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
	assert.EqualValues(t, 0, atomic.LoadInt32(calls))
}

func TestCreateConfigFromAppConfig_CacheTTL(t *testing.T) {
	cfg := createConfigFromAppConfig(&config.Config{
		Database: config.DatabaseConfig{Redis: config.RedisConfig{CacheTTL: 30}},
	}, nil)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
}
