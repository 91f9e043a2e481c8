package sensitivity

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/proforma/internal/common"
	"github.com/Veraticus/proforma/internal/model"
	"github.com/Veraticus/proforma/internal/service"
)

type fakeBackend struct {
	respond  func(n int, req service.SensitivityRequest) (*service.SensitivityResponse, error)
	fetch    func(n int) (*model.SensitivityTablesPayload, error)
	requests []service.SensitivityRequest
	fetches  int
	mu       sync.Mutex
}

func (f *fakeBackend) RequestSensitivity(_ context.Context, req service.SensitivityRequest) (*service.SensitivityResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	n := len(f.requests)
	f.mu.Unlock()
	return f.respond(n, req)
}

func (f *fakeBackend) FetchSensitivity(_ context.Context, _ service.ModelRef) (*model.SensitivityTablesPayload, error) {
	f.mu.Lock()
	f.fetches++
	n := f.fetches
	f.mu.Unlock()
	if f.fetch == nil {
		return nil, nil
	}
	return f.fetch(n)
}

func (f *fakeBackend) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeBackend) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func tablesFor(maxPrice, minCapRate float64) *model.SensitivityTablesPayload {
	return &model.SensitivityTablesPayload{
		IRRTable: &model.SensitivityTablePayload{
			CapRates:          []any{minCapRate, minCapRate + 0.5},
			AcquisitionPrices: []any{maxPrice, maxPrice - 10000},
			Values:            [][]any{{"12.3%", 11.0}, {"10.1%", "9.8%"}},
		},
		MOICTable: &model.SensitivityTablePayload{
			CapRates:          []any{minCapRate, minCapRate + 0.5},
			AcquisitionPrices: []any{maxPrice, maxPrice - 10000},
			Values:            [][]any{{"1.45x", "1.40x"}, {1.3, "1.25x"}},
		},
	}
}

func immediate(_ int, req service.SensitivityRequest) (*service.SensitivityResponse, error) {
	return &service.SensitivityResponse{StatusCode: http.StatusOK, Payload: tablesFor(req.MaxPrice, req.MinCapRate)}, nil
}

func pending(_ int, _ service.SensitivityRequest) (*service.SensitivityResponse, error) {
	return &service.SensitivityResponse{StatusCode: http.StatusAccepted, Pending: true}, nil
}

func fastOptions() Options {
	return Options{
		PollInterval:   time.Millisecond,
		MaxPollDelay:   2 * time.Millisecond,
		PollMultiplier: 1.5,
		MaxPolls:       5,
	}
}

func newRequest(maxPrice, minCapRate float64) Request {
	return Request{
		ModelID:    "m1",
		VersionID:  "v1",
		SheetURL:   "https://docs.google.com/spreadsheets/d/abc",
		MaxPrice:   maxPrice,
		MinCapRate: minCapRate,
	}
}

func newOrchestrator(t *testing.T, backend *fakeBackend, store service.TableStore, opts Options) *Orchestrator {
	t.Helper()
	o := New(backend, store, opts)
	t.Cleanup(func() { _ = o.Close() })
	return o
}

func TestGenerateCachesByInputs(t *testing.T) {
	backend := &fakeBackend{respond: immediate}
	o := newOrchestrator(t, backend, nil, fastOptions())
	ctx := context.Background()

	snap, err := o.Generate(ctx, newRequest(185000, 10))
	require.NoError(t, err)
	assert.Equal(t, Ready, snap.State)
	assert.Equal(t, []float64{12.3, 11.0}, snap.Result.IRR.Values[0])
	assert.Equal(t, []float64{1.45, 1.40}, snap.Result.MOIC.Values[0])

	snap, err = o.Generate(ctx, newRequest(185000, 10))
	require.NoError(t, err)
	assert.Equal(t, Ready, snap.State)
	assert.Equal(t, 1, backend.requestCount(), "identical inputs reuse the tables")

	_, err = o.Generate(ctx, newRequest(200000, 10))
	require.NoError(t, err)
	assert.Equal(t, 2, backend.requestCount(), "a new price regenerates")

	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.Equal(t, 200000.0, backend.requests[1].MaxPrice)
	assert.Equal(t, "v1", backend.requests[1].VersionID)
}

func TestPendingThenReady(t *testing.T) {
	tests := []struct {
		name    string
		respond func(int, service.SensitivityRequest) (*service.SensitivityResponse, error)
	}{
		{"accepted", pending},
		{"generating status", func(_ int, _ service.SensitivityRequest) (*service.SensitivityResponse, error) {
			return &service.SensitivityResponse{
				StatusCode: http.StatusOK,
				Pending:    true,
				Payload:    &model.SensitivityTablesPayload{Status: model.SensitivityStatusGenerating},
			}, nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{
				respond: tt.respond,
				fetch: func(int) (*model.SensitivityTablesPayload, error) {
					return tablesFor(185000, 10), nil
				},
			}
			store := NewMemoryStore()
			o := newOrchestrator(t, backend, store, fastOptions())

			snap, err := o.Generate(context.Background(), newRequest(185000, 10))
			require.NoError(t, err)
			assert.Equal(t, Ready, snap.State)
			assert.Equal(t, 1, snap.Polls)
			assert.Equal(t, 1, backend.fetchCount())
			assert.False(t, snap.Result.IRR.IsEmpty())

			cached, err := store.Get(context.Background(), "v1")
			require.NoError(t, err)
			assert.Equal(t, newRequest(185000, 10).Key(), cached.Key)
		})
	}
}

func TestPollKeepsWaitingWhileGenerating(t *testing.T) {
	backend := &fakeBackend{
		respond: pending,
		fetch: func(n int) (*model.SensitivityTablesPayload, error) {
			switch n {
			case 1:
				return &model.SensitivityTablesPayload{Status: model.SensitivityStatusGenerating}, nil
			case 2:
				return nil, errors.New("connection reset")
			default:
				return tablesFor(185000, 10), nil
			}
		},
	}
	o := newOrchestrator(t, backend, nil, fastOptions())

	snap, err := o.Generate(context.Background(), newRequest(185000, 10))
	require.NoError(t, err)
	assert.Equal(t, Ready, snap.State)
	assert.Equal(t, 3, backend.fetchCount())
	assert.Equal(t, 1, backend.requestCount())
}

func TestPollTimeout(t *testing.T) {
	backend := &fakeBackend{
		respond: pending,
		fetch: func(int) (*model.SensitivityTablesPayload, error) {
			return &model.SensitivityTablesPayload{Status: model.SensitivityStatusGenerating}, nil
		},
	}
	opts := fastOptions()
	opts.MaxPolls = 3
	o := newOrchestrator(t, backend, nil, opts)

	snap, err := o.Generate(context.Background(), newRequest(185000, 10))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrPollTimeout)
	assert.Equal(t, msgTimedOut, common.UserMessage(err))
	assert.Equal(t, TimedOut, snap.State)
	assert.Equal(t, 3, backend.fetchCount())
	assert.True(t, snap.Result.IRR.IsEmpty())

	// A timed-out session can be retried.
	backend.fetch = func(int) (*model.SensitivityTablesPayload, error) {
		return tablesFor(185000, 10), nil
	}
	snap, err = o.Generate(context.Background(), newRequest(185000, 10))
	require.NoError(t, err)
	assert.Equal(t, Ready, snap.State)
	assert.Equal(t, 2, backend.requestCount())
}

func TestFailureResetsTables(t *testing.T) {
	backend := &fakeBackend{
		respond: func(n int, req service.SensitivityRequest) (*service.SensitivityResponse, error) {
			if n == 1 {
				return immediate(n, req)
			}
			return nil, common.ErrRemoteUnavailable
		},
	}
	o := newOrchestrator(t, backend, nil, fastOptions())
	ctx := context.Background()

	snap, err := o.Generate(ctx, newRequest(185000, 10))
	require.NoError(t, err)
	require.False(t, snap.Result.IRR.IsEmpty())

	snap, err = o.Generate(ctx, newRequest(190000, 10))
	assert.ErrorIs(t, err, common.ErrRemoteUnavailable)
	assert.Equal(t, "No data available", common.UserMessage(err))
	assert.Equal(t, Failed, snap.State)
	assert.Equal(t, model.EmptySensitivityTable(), snap.Result.IRR)
	assert.Equal(t, model.EmptySensitivityTable(), snap.Result.MOIC)
	assert.Equal(t, 2, backend.requestCount(), "failed requests are not retried")
}

func TestInvalidImmediatePayloadFails(t *testing.T) {
	backend := &fakeBackend{
		respond: func(int, service.SensitivityRequest) (*service.SensitivityResponse, error) {
			return &service.SensitivityResponse{StatusCode: http.StatusOK}, nil
		},
	}
	o := newOrchestrator(t, backend, nil, fastOptions())

	snap, err := o.Generate(context.Background(), newRequest(185000, 10))
	assert.ErrorIs(t, err, common.ErrInvalidPayload)
	assert.Equal(t, Failed, snap.State)
}

func TestTriggerWhileInFlightIsNoop(t *testing.T) {
	release := make(chan struct{})
	backend := &fakeBackend{
		respond: func(n int, req service.SensitivityRequest) (*service.SensitivityResponse, error) {
			<-release
			return immediate(n, req)
		},
	}
	o := newOrchestrator(t, backend, nil, fastOptions())
	ctx := context.Background()

	started, err := o.Trigger(ctx, newRequest(185000, 10))
	require.NoError(t, err)
	assert.True(t, started)

	started, err = o.Trigger(ctx, newRequest(190000, 9))
	require.NoError(t, err)
	assert.False(t, started)
	assert.True(t, o.Snapshot("v1").State.InFlight())

	close(release)
	snap, err := o.Wait(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, Ready, snap.State)
	assert.Equal(t, 1, backend.requestCount())
}

func TestCancelStopsMutation(t *testing.T) {
	polled := make(chan struct{})
	release := make(chan struct{})
	backend := &fakeBackend{
		respond: pending,
		fetch: func(n int) (*model.SensitivityTablesPayload, error) {
			if n == 1 {
				close(polled)
			}
			<-release
			return tablesFor(185000, 10), nil
		},
	}
	store := NewMemoryStore()
	var observed []State
	var obsMu sync.Mutex
	opts := fastOptions()
	opts.Observer = func(s Snapshot) {
		obsMu.Lock()
		observed = append(observed, s.State)
		obsMu.Unlock()
	}
	o := New(backend, store, opts)

	started, err := o.Trigger(context.Background(), newRequest(185000, 10))
	require.NoError(t, err)
	require.True(t, started)

	select {
	case <-polled:
	case <-time.After(5 * time.Second):
		t.Fatal("poll never started")
	}

	o.Cancel("v1")
	close(release)
	require.NoError(t, o.Close())

	snap := o.Snapshot("v1")
	assert.Equal(t, Idle, snap.State)
	assert.True(t, snap.Result.IRR.IsEmpty())

	_, err = store.Get(context.Background(), "v1")
	assert.ErrorIs(t, err, common.ErrNotFound)

	obsMu.Lock()
	defer obsMu.Unlock()
	require.NotEmpty(t, observed)
	assert.Equal(t, Idle, observed[len(observed)-1])
	assert.NotContains(t, observed, Ready)

	_, err = o.Trigger(context.Background(), newRequest(185000, 10))
	assert.ErrorIs(t, err, common.ErrSessionCanceled)
}

func TestTriggerUsesStore(t *testing.T) {
	store := NewMemoryStore()
	req := newRequest(185000, 10)
	result, ok := NormalizeResult(tablesFor(185000, 10))
	require.True(t, ok)
	require.NoError(t, store.Put(context.Background(), service.CachedTables{Key: req.Key(), Result: result}))

	backend := &fakeBackend{respond: immediate}
	o := newOrchestrator(t, backend, store, fastOptions())

	started, err := o.Trigger(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, started)
	assert.Equal(t, Ready, o.Snapshot("v1").State)
	assert.Equal(t, 0, backend.requestCount())

	// Same version, other inputs: the stored entry does not apply.
	_, err = o.Generate(context.Background(), newRequest(150000, 10))
	require.NoError(t, err)
	assert.Equal(t, 1, backend.requestCount())
}

func TestTriggerRejectsIncompleteInputs(t *testing.T) {
	o := newOrchestrator(t, &fakeBackend{respond: immediate}, nil, fastOptions())

	req := newRequest(185000, 10)
	req.SheetURL = ""
	_, err := o.Trigger(context.Background(), req)
	assert.ErrorIs(t, err, common.ErrInputsNotReady)
}

func TestHydrate(t *testing.T) {
	t.Run("complete tables", func(t *testing.T) {
		backend := &fakeBackend{respond: immediate}
		o := newOrchestrator(t, backend, nil, fastOptions())

		payload := tablesFor(185000, 10)
		assert.True(t, o.Hydrate(context.Background(), newRequest(0, 0), payload))

		snap := o.Snapshot("v1")
		assert.Equal(t, Ready, snap.State)
		assert.Equal(t, 185000.0, snap.Key.MaxPrice)
		assert.Equal(t, 10.0, snap.Key.MinCapRate)

		started, err := o.Trigger(context.Background(), newRequest(185000, 10))
		require.NoError(t, err)
		assert.False(t, started, "matrices already show these inputs")
		assert.Equal(t, 0, backend.requestCount())
	})

	t.Run("generating status resumes polling", func(t *testing.T) {
		backend := &fakeBackend{
			respond: immediate,
			fetch: func(int) (*model.SensitivityTablesPayload, error) {
				return tablesFor(175000, 9), nil
			},
		}
		o := newOrchestrator(t, backend, nil, fastOptions())

		payload := &model.SensitivityTablesPayload{Status: model.SensitivityStatusGenerating}
		assert.True(t, o.Hydrate(context.Background(), newRequest(185000, 10), payload))

		snap, err := o.Wait(context.Background(), "v1")
		require.NoError(t, err)
		assert.Equal(t, Ready, snap.State)
		assert.Equal(t, 175000.0, snap.Key.MaxPrice)
		assert.Equal(t, 0, backend.requestCount())
	})

	t.Run("nothing stored", func(t *testing.T) {
		o := newOrchestrator(t, &fakeBackend{respond: immediate}, nil, fastOptions())
		assert.False(t, o.Hydrate(context.Background(), newRequest(185000, 10), nil))
		assert.Equal(t, Idle, o.Snapshot("v1").State)
	})
}

func TestWaitHonorsContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	backend := &fakeBackend{
		respond: func(n int, req service.SensitivityRequest) (*service.SensitivityResponse, error) {
			<-release
			return immediate(n, req)
		},
	}
	o := New(backend, nil, fastOptions())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	snap, err := o.Generate(ctx, newRequest(185000, 10))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, Requesting, snap.State)
}

// slowStore holds Put until release is closed. The write lands even if the
// caller's context was canceled meanwhile.
type slowStore struct {
	*MemoryStore
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newSlowStore() *slowStore {
	return &slowStore{
		MemoryStore: NewMemoryStore(),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (s *slowStore) Put(_ context.Context, entry service.CachedTables) error {
	s.once.Do(func() { close(s.entered) })
	<-s.release
	return s.MemoryStore.Put(context.Background(), entry)
}

func TestSlowCacheWriteDoesNotBlockReaders(t *testing.T) {
	store := newSlowStore()
	backend := &fakeBackend{respond: immediate}
	o := newOrchestrator(t, backend, store, fastOptions())

	_, err := o.Trigger(context.Background(), newRequest(185000, 10))
	require.NoError(t, err)

	select {
	case <-store.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("cache write never started")
	}

	got := make(chan Snapshot, 1)
	go func() { got <- o.Snapshot("v1") }()
	select {
	case snap := <-got:
		assert.NotEqual(t, Ready, snap.State)
	case <-time.After(time.Second):
		t.Fatal("Snapshot blocked behind the cache write")
	}

	close(store.release)
	snap, err := o.Wait(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, Ready, snap.State)

	entry, err := store.Get(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, newRequest(185000, 10).Key(), entry.Key)
}

func TestCancelDuringCacheWriteLeavesNoEntry(t *testing.T) {
	store := newSlowStore()
	backend := &fakeBackend{respond: immediate}
	o := New(backend, store, fastOptions())

	_, err := o.Trigger(context.Background(), newRequest(185000, 10))
	require.NoError(t, err)

	select {
	case <-store.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("cache write never started")
	}

	o.Cancel("v1")
	close(store.release)
	require.NoError(t, o.Close())

	assert.Equal(t, Idle, o.Snapshot("v1").State)
	_, err = store.Get(context.Background(), "v1")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
