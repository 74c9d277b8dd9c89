package bulkextend

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"ewaybill-workers/internal/common/errors"
	"ewaybill-workers/internal/common/ewaybill"
	"ewaybill-workers/internal/common/logger"
	"ewaybill-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Doubles
// ==========================

type MockExtender struct {
	mock.Mock
}

func (m *MockExtender) ExtendValidity(ctx context.Context, req *ewaybill.ExtendValidityRequest) (bool, error) {
	args := m.Called(ctx, req)
	return args.Bool(0), args.Error(1)
}

// scriptedExtender answers by ewbNo and records the order and overlap of calls.
type scriptedExtender struct {
	mu       sync.Mutex
	answers  map[int64]func(ctx context.Context) (bool, error)
	calls    []int64
	inFlight int
	maxSeen  int
	requests []*ewaybill.ExtendValidityRequest
}

func newScripted() *scriptedExtender {
	return &scriptedExtender{answers: map[int64]func(ctx context.Context) (bool, error){}}
}

func (s *scriptedExtender) on(ewbNo int64, fn func(ctx context.Context) (bool, error)) *scriptedExtender {
	s.answers[ewbNo] = fn
	return s
}

func (s *scriptedExtender) ExtendValidity(ctx context.Context, req *ewaybill.ExtendValidityRequest) (bool, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req.EwbNo)
	s.requests = append(s.requests, req)
	s.inFlight++
	if s.inFlight > s.maxSeen {
		s.maxSeen = s.inFlight
	}
	fn := s.answers[req.EwbNo]
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	if fn == nil {
		return true, nil
	}
	return fn(ctx)
}

func succeed(context.Context) (bool, error) { return true, nil }
func reject(context.Context) (bool, error)  { return false, nil }
func boom(context.Context) (bool, error) {
	return false, errors.NewAPIError("extendvalidity", fmt.Errorf("status 500: upstream down"))
}

// ==========================
// Test Helpers
// ==========================

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func intPtr(i int) *int { return &i }

func validRequest() models.ExtensionRequest {
	return models.ExtensionRequest{
		FromPlace:         "Bengaluru",
		FromPincode:       "560001",
		ReasonCode:        models.ReasonAccident,
		RemainingDistance: intPtr(120),
		Remarks:           "truck breakdown",
	}
}

func docs(numbers ...string) []models.EwayBillDocument {
	out := make([]models.EwayBillDocument, len(numbers))
	for i, n := range numbers {
		out[i] = models.EwayBillDocument{
			EwayBillNo:    models.NumericString(n),
			Vehicle:       fmt.Sprintf("KA01AB%04d", i+1),
			Validity:      "15/03/2026 23:59:00",
			HoursToExpiry: 10,
		}
	}
	return out
}

func newTestService(t *testing.T, ext Extender, mutate ...func(*Config)) *Service {
	cfg := DefaultConfig()
	for _, m := range mutate {
		m(cfg)
	}
	return NewService(ServiceDependencies{
		Extender:   ext,
		Logger:     logger.NewTestLogger(t),
		Clock:      func() time.Time { return fixedNow },
		NewBatchID: func() string { return "batch-1" },
	}, cfg)
}

func successFlags(result models.BatchResult) []bool {
	flags := make([]bool, len(result.Outcomes))
	for i, o := range result.Outcomes {
		flags[i] = o.Success
	}
	return flags
}

// ==========================
// Batch Semantics
// ==========================

func TestRunBatch_AllSucceed(t *testing.T) {
	ext := newScripted()
	svc := newTestService(t, ext)

	result, err := svc.RunBatch(context.Background(), docs("111", "222", "333"), validRequest(), nil)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, []bool{true, true, true}, successFlags(result))
	assert.Equal(t, 3, result.Succeeded)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, "batch-1", result.BatchID)
	for _, o := range result.Outcomes {
		assert.Empty(t, o.Error)
	}
}

func TestRunBatch_AllFail(t *testing.T) {
	ext := newScripted().on(111, boom).on(222, reject).on(333, boom)
	svc := newTestService(t, ext)

	result, err := svc.RunBatch(context.Background(), docs("111", "222", "333"), validRequest(), nil)

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Len(t, result.Outcomes, 3)
	for _, o := range result.Outcomes {
		assert.False(t, o.Success)
		assert.NotEmpty(t, o.Error)
	}
	assert.Equal(t, msgRejected, result.Outcomes[1].Error)
	assert.Contains(t, result.Outcomes[0].Error, "upstream down")
}

func TestRunBatch_PartialFailurePreservesOrder(t *testing.T) {
	ext := newScripted().on(222, boom)
	svc := newTestService(t, ext)

	result, err := svc.RunBatch(context.Background(), docs("111", "222", "333"), validRequest(), nil)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, []bool{true, false, true}, successFlags(result))
	assert.Equal(t, []string{"111", "222", "333"}, []string{
		result.Outcomes[0].EwbNo, result.Outcomes[1].EwbNo, result.Outcomes[2].EwbNo,
	})
	assert.Equal(t, []int64{111, 222, 333}, ext.calls)
}

func TestRunBatch_PlainErrorDoesNotStopBatch(t *testing.T) {
	ext := new(MockExtender)
	ext.On("ExtendValidity", mock.Anything, mock.MatchedBy(func(r *ewaybill.ExtendValidityRequest) bool { return r.EwbNo == 111 })).
		Return(true, nil).Once()
	ext.On("ExtendValidity", mock.Anything, mock.MatchedBy(func(r *ewaybill.ExtendValidityRequest) bool { return r.EwbNo == 222 })).
		Return(false, stderrors.New("connection reset by peer")).Once()
	ext.On("ExtendValidity", mock.Anything, mock.MatchedBy(func(r *ewaybill.ExtendValidityRequest) bool { return r.EwbNo == 333 })).
		Return(true, nil).Once()

	svc := newTestService(t, ext)
	result, err := svc.RunBatch(context.Background(), docs("111", "222", "333"), validRequest(), nil)

	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true}, successFlags(result))
	assert.Equal(t, "connection reset by peer", result.Outcomes[1].Error)
	ext.AssertExpectations(t)
}

func TestRunBatch_OutcomeCountMatchesInput(t *testing.T) {
	for _, n := range []int{1, 2, 7, 25} {
		t.Run(fmt.Sprintf("%d documents", n), func(t *testing.T) {
			numbers := make([]string, n)
			ext := newScripted()
			for i := range numbers {
				numbers[i] = fmt.Sprintf("%d", 100000000000+i)
				if i%3 == 1 {
					ext.on(int64(100000000000+i), boom)
				}
			}

			result, err := newTestService(t, ext).RunBatch(context.Background(), docs(numbers...), validRequest(), nil)

			require.NoError(t, err)
			require.Len(t, result.Outcomes, n)
			for i, o := range result.Outcomes {
				assert.Equal(t, numbers[i], o.EwbNo)
			}
			assert.Equal(t, n, result.Succeeded+result.Failed)
		})
	}
}

func TestRunBatch_CallsAreSequential(t *testing.T) {
	slow := func(ctx context.Context) (bool, error) {
		time.Sleep(5 * time.Millisecond)
		return true, nil
	}
	ext := newScripted().on(111, slow).on(222, slow).on(333, slow)

	_, err := newTestService(t, ext).RunBatch(context.Background(), docs("111", "222", "333"), validRequest(), nil)

	require.NoError(t, err)
	assert.Equal(t, 1, ext.maxSeen)
}

// ==========================
// Validation
// ==========================

func TestRunBatch_ValidationFailsBeforeAnyCall(t *testing.T) {
	tests := []struct {
		name    string
		docs    []models.EwayBillDocument
		mutate  func(r *models.ExtensionRequest)
		wantMsg string
	}{
		{
			name:    "missing reason code",
			docs:    docs("111"),
			mutate:  func(r *models.ExtensionRequest) { r.ReasonCode = 0 },
			wantMsg: "reasonCode is required",
		},
		{
			name:    "reason code out of range",
			docs:    docs("111"),
			mutate:  func(r *models.ExtensionRequest) { r.ReasonCode = 9 },
			wantMsg: "between 1 and 4",
		},
		{
			name:    "missing place",
			docs:    docs("111"),
			mutate:  func(r *models.ExtensionRequest) { r.FromPlace = "  " },
			wantMsg: "fromPlace is required",
		},
		{
			name:    "missing postal code",
			docs:    docs("111"),
			mutate:  func(r *models.ExtensionRequest) { r.FromPincode = "" },
			wantMsg: "fromPincode is required",
		},
		{
			name:    "missing distance",
			docs:    docs("111"),
			mutate:  func(r *models.ExtensionRequest) { r.RemainingDistance = nil },
			wantMsg: "remainingDistance is required",
		},
		{
			name:    "no documents",
			docs:    nil,
			mutate:  func(r *models.ExtensionRequest) {},
			wantMsg: "at least one eWay Bill",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := new(MockExtender)
			req := validRequest()
			tt.mutate(&req)

			_, err := newTestService(t, ext).RunBatch(context.Background(), tt.docs, req, nil)

			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
			assert.Contains(t, err.Error(), tt.wantMsg)
			ext.AssertNotCalled(t, "ExtendValidity", mock.Anything, mock.Anything)
		})
	}
}

func TestRunBatch_ZeroDistanceIsAccepted(t *testing.T) {
	ext := newScripted()
	req := validRequest()
	req.RemainingDistance = intPtr(0)

	result, err := newTestService(t, ext).RunBatch(context.Background(), docs("111"), req, nil)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 0, ext.requests[0].RemainingDistance)
}

func TestRunBatch_NonNumericNumberFailsOnlyThatDocument(t *testing.T) {
	ext := newScripted()

	result, err := newTestService(t, ext).RunBatch(context.Background(), docs("111", "EWB-X", "333"), validRequest(), nil)

	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true}, successFlags(result))
	assert.Contains(t, result.Outcomes[1].Error, "not numeric")
	assert.Equal(t, []int64{111, 333}, ext.calls)
}

// ==========================
// Request Merge
// ==========================

func TestRunBatch_MergesDocumentAndDefaults(t *testing.T) {
	ext := newScripted()
	batch := docs("351000000001", "351000000002")

	_, err := newTestService(t, ext).RunBatch(context.Background(), batch, validRequest(), nil)
	require.NoError(t, err)
	require.Len(t, ext.requests, 2)

	first := ext.requests[0]
	assert.Equal(t, int64(351000000001), first.EwbNo)
	assert.Equal(t, "KA01AB0001", first.VehicleNo)
	assert.Equal(t, "Bengaluru", first.FromPlace)
	assert.Equal(t, 560001, first.FromPincode)
	assert.Equal(t, 3, first.ExtnRsnCode)
	assert.Equal(t, 120, first.RemainingDistance)
	assert.Equal(t, "truck breakdown", first.ExtnRemarks)
	assert.Equal(t, 29, first.FromState)
	assert.Equal(t, "12", first.TransDocNo)
	assert.Equal(t, "14/03/2026", first.TransDocDate)
	assert.Equal(t, "1", first.TransMode)
	assert.Equal(t, "M", first.ConsignmentStatus)
	assert.Equal(t, "KA01AB0002", ext.requests[1].VehicleNo)
}

// ==========================
// Timeouts, Cancellation, Progress
// ==========================

func TestRunBatch_PerCallTimeoutBecomesFailedOutcome(t *testing.T) {
	hang := func(ctx context.Context) (bool, error) {
		<-ctx.Done()
		return false, ctx.Err()
	}
	ext := newScripted().on(222, hang)
	svc := newTestService(t, ext, func(c *Config) { c.PerCallTimeout = 20 * time.Millisecond })

	result, err := svc.RunBatch(context.Background(), docs("111", "222", "333"), validRequest(), nil)

	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true}, successFlags(result))
	assert.Contains(t, result.Outcomes[1].Error, "timed out")
}

func TestRunBatch_CancellationFillsRemainingOutcomes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cancelAfter := func(context.Context) (bool, error) {
		cancel()
		return true, nil
	}
	ext := newScripted().on(222, cancelAfter)

	result, err := newTestService(t, ext).RunBatch(ctx, docs("111", "222", "333", "444"), validRequest(), nil)

	require.NoError(t, err)
	require.Len(t, result.Outcomes, 4)
	assert.Equal(t, []bool{true, true, false, false}, successFlags(result))
	assert.Equal(t, msgCancelled, result.Outcomes[2].Error)
	assert.Equal(t, msgCancelled, result.Outcomes[3].Error)
	assert.Equal(t, "444", result.Outcomes[3].EwbNo)
	assert.Equal(t, []int64{111, 222}, ext.calls)
}

func TestRunBatch_ReportsProgress(t *testing.T) {
	var seen [][2]int
	progress := func(processed, total int) { seen = append(seen, [2]int{processed, total}) }

	_, err := newTestService(t, newScripted().on(222, boom)).
		RunBatch(context.Background(), docs("111", "222", "333"), validRequest(), progress)

	require.NoError(t, err)
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, seen)
}

func TestRunBatch_ProgressReachesTotalWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var seen [][2]int
	progress := func(processed, total int) { seen = append(seen, [2]int{processed, total}) }
	ext := newScripted().on(111, func(context.Context) (bool, error) {
		cancel()
		return true, nil
	})

	_, err := newTestService(t, ext).RunBatch(ctx, docs("111", "222", "333"), validRequest(), progress)

	require.NoError(t, err)
	assert.Equal(t, [][2]int{{1, 3}, {3, 3}}, seen)
}

func TestExecute_ReturnsResult(t *testing.T) {
	svc := newTestService(t, newScripted())

	result, err := svc.Execute(context.Background(), &Input{Documents: docs("111"), Request: validRequest()})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, fixedNow, result.StartedAt)
	assert.Equal(t, 1, result.Total)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "eWay Bill not found: ewbNo: 1", describe(errors.NewNotFoundError("1")))
	assert.Equal(t, "plain", describe(stderrors.New("plain")))
}
