package sensitivity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/proforma/internal/common"
	"github.com/Veraticus/proforma/internal/model"
	"github.com/Veraticus/proforma/internal/service"
)

// User-facing messages for terminal states.
const (
	msgTimedOut = "Sensitivity tables are still generating. Try again in a few minutes."
	msgFailed   = "No data available"
)

// Options configures polling.
type Options struct {
	// Observer, when set, receives a copy of every session change.
	Observer       func(Snapshot)
	Logger         *slog.Logger
	PollInterval   time.Duration
	MaxPollDelay   time.Duration
	PollMultiplier float64
	MaxPolls       int
}

// DefaultOptions returns the polling defaults: 3s growing by 1.5x to 15s,
// at most 40 polls.
func DefaultOptions() Options {
	return Options{
		PollInterval:   3 * time.Second,
		MaxPollDelay:   15 * time.Second,
		PollMultiplier: 1.5,
		MaxPolls:       40,
	}
}

func (o Options) backoff() service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  o.MaxPolls,
		InitialDelay: o.PollInterval,
		MaxDelay:     o.MaxPollDelay,
		Multiplier:   o.PollMultiplier,
	}
}

// Orchestrator owns one session per model version. At most one request or
// poll loop runs per version; a trigger while one is in flight is a no-op.
type Orchestrator struct {
	backend  service.SensitivityBackend
	store    service.TableStore
	logger   *slog.Logger
	base     context.Context
	stop     context.CancelFunc
	sessions map[string]*session
	opts     Options
	wg       sync.WaitGroup
	mu       sync.Mutex
	closed   bool
}

type session struct {
	run  *run
	snap Snapshot
}

// run is one request/poll task. Writes from a run are accepted only while it
// is still the session's current run.
type run struct {
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	versionID string
}

// New creates an orchestrator. A nil store keeps results in memory.
func New(backend service.SensitivityBackend, store service.TableStore, opts Options) *Orchestrator {
	defaults := DefaultOptions()
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaults.PollInterval
	}
	if opts.MaxPollDelay <= 0 {
		opts.MaxPollDelay = max(defaults.MaxPollDelay, opts.PollInterval)
	}
	if opts.PollMultiplier < 1 {
		opts.PollMultiplier = defaults.PollMultiplier
	}
	if opts.MaxPolls <= 0 {
		opts.MaxPolls = defaults.MaxPolls
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if store == nil {
		store = NewMemoryStore()
	}

	base, stop := context.WithCancel(context.Background())
	return &Orchestrator{
		backend:  backend,
		store:    store,
		logger:   opts.Logger,
		opts:     opts,
		base:     base,
		stop:     stop,
		sessions: make(map[string]*session),
	}
}

// Trigger starts generation for req unless it is already in flight or the
// current matrices were produced by the same inputs. A stored result for the
// same inputs is adopted without a remote call. It reports whether a request
// was started.
func (o *Orchestrator) Trigger(ctx context.Context, req Request) (bool, error) {
	if err := req.Validate(); err != nil {
		return false, err
	}
	key := req.Key()
	cached := o.lookup(ctx, key)

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return false, common.ErrSessionCanceled
	}
	s := o.sessionLocked(req.VersionID)

	switch {
	case s.run != nil:
		o.mu.Unlock()
		o.logger.Debug("sensitivity generation already in flight", "version_id", req.VersionID)
		return false, nil
	case s.snap.State == Ready && !s.changed(key):
		o.mu.Unlock()
		return false, nil
	case cached != nil:
		s.snap.State = Ready
		s.snap.Key = cached.Key
		s.snap.Result = cached.Result.Clone()
		s.snap.Err = nil
		s.snap.UpdatedAt = time.Now()
		snap := s.snap.clone()
		o.mu.Unlock()
		o.logger.Debug("sensitivity tables loaded from cache", "key", key.String())
		o.notify(snap)
		return false, nil
	}

	r := o.startLocked(s, Requesting, key)
	snap := s.snap.clone()
	o.mu.Unlock()
	o.notify(snap)

	go func() {
		defer o.wg.Done()
		defer close(r.done)
		defer r.cancel()
		o.generate(r.ctx, r, req)
	}()
	return true, nil
}

// Generate triggers generation and blocks until the session settles or ctx
// ends. The returned error is the session's terminal error, if any.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (Snapshot, error) {
	if _, err := o.Trigger(ctx, req); err != nil {
		return o.Snapshot(req.VersionID), err
	}
	return o.Wait(ctx, req.VersionID)
}

// Resume polls an existing remote generation without issuing a request.
// It reports false when the session is already in flight.
func (o *Orchestrator) Resume(req Request) (bool, error) {
	if err := req.Validate(); err != nil {
		return false, err
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return false, common.ErrSessionCanceled
	}
	s := o.sessionLocked(req.VersionID)
	if s.run != nil {
		o.mu.Unlock()
		return false, nil
	}
	r := o.startLocked(s, Generating, req.Key())
	snap := s.snap.clone()
	o.mu.Unlock()
	o.notify(snap)

	go func() {
		defer o.wg.Done()
		defer close(r.done)
		defer r.cancel()
		o.poll(r.ctx, r, req)
	}()
	return true, nil
}

// Hydrate seeds a session from the sensitivity state embedded in a model
// version. Complete matrices become Ready without a remote call; a
// generating status resumes polling. It reports whether the session changed.
func (o *Orchestrator) Hydrate(ctx context.Context, req Request, payload *model.SensitivityTablesPayload) bool {
	switch {
	case payload.Complete():
		result, _ := NormalizeResult(payload)
		key := keyFromResult(req.VersionID, result)

		o.mu.Lock()
		if o.closed {
			o.mu.Unlock()
			return false
		}
		s := o.sessionLocked(req.VersionID)
		if s.run != nil {
			o.mu.Unlock()
			return false
		}
		s.snap.State = Ready
		s.snap.Key = key
		s.snap.Result = result
		s.snap.Err = nil
		s.snap.UpdatedAt = time.Now()
		snap := s.snap.clone()
		o.mu.Unlock()

		o.save(ctx, key, result)
		o.notify(snap)
		return true
	case payload.Generating():
		started, err := o.Resume(req)
		return err == nil && started
	default:
		return false
	}
}

// Wait blocks until the version's current run finishes or ctx ends.
func (o *Orchestrator) Wait(ctx context.Context, versionID string) (Snapshot, error) {
	o.mu.Lock()
	s, ok := o.sessions[versionID]
	if !ok {
		o.mu.Unlock()
		return emptySnapshot(versionID), nil
	}
	if s.run == nil {
		snap := s.snap.clone()
		o.mu.Unlock()
		return snap, snap.Err
	}
	done := s.run.done
	o.mu.Unlock()

	select {
	case <-ctx.Done():
		return o.Snapshot(versionID), ctx.Err()
	case <-done:
	}
	snap := o.Snapshot(versionID)
	return snap, snap.Err
}

// Snapshot returns a copy of the version's session.
func (o *Orchestrator) Snapshot(versionID string) Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.sessions[versionID]
	if !ok {
		return emptySnapshot(versionID)
	}
	return s.snap.clone()
}

// Cancel stops the version's request or poll loop. The session returns to
// Idle and nothing the stopped run does afterwards is applied.
func (o *Orchestrator) Cancel(versionID string) {
	o.mu.Lock()
	s, ok := o.sessions[versionID]
	if !ok || s.run == nil {
		o.mu.Unlock()
		return
	}
	s.run.cancel()
	s.run = nil
	s.snap.State = Idle
	s.snap.UpdatedAt = time.Now()
	snap := s.snap.clone()
	o.mu.Unlock()

	o.logger.Debug("sensitivity generation canceled", "version_id", versionID)
	o.notify(snap)
}

// Close cancels every session and waits for their tasks to exit.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	for _, s := range o.sessions {
		if s.run != nil {
			s.run.cancel()
			s.run = nil
			s.snap.State = Idle
		}
	}
	o.mu.Unlock()

	o.stop()
	o.wg.Wait()
	return nil
}

func (o *Orchestrator) generate(ctx context.Context, r *run, req Request) {
	logger := o.logger.With("version_id", req.VersionID, "key", req.Key().String())

	resp, err := o.backend.RequestSensitivity(ctx, req.backendRequest())
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("sensitivity request failed", "error", err)
		}
		o.fail(r, common.NewUserError(msgFailed, err))
		return
	}

	if !resp.Pending {
		result, ok := NormalizeResult(resp.Payload)
		if !ok {
			o.fail(r, common.NewUserError(msgFailed, common.ErrInvalidPayload))
			return
		}
		logger.Info("sensitivity tables generated")
		o.ready(ctx, r, req.Key(), result)
		return
	}

	logger.Info("sensitivity tables generating", "status_code", resp.StatusCode)
	o.apply(r, func(s *Snapshot) {
		s.State = Generating
	})
	o.poll(ctx, r, req)
}

func (o *Orchestrator) poll(ctx context.Context, r *run, req Request) {
	logger := o.logger.With("version_id", req.VersionID)
	delay := o.opts.PollInterval

	for attempt := 1; attempt <= o.opts.MaxPolls; attempt++ {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		delay = common.NextDelay(delay, o.opts.backoff())

		payload, err := o.backend.FetchSensitivity(ctx, req.ref())
		if !o.apply(r, func(s *Snapshot) { s.Polls = attempt }) {
			return
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("sensitivity poll failed", "attempt", attempt, "error", err)
			continue
		}
		if result, ok := NormalizeResult(payload); ok {
			logger.Info("sensitivity tables ready", "polls", attempt)
			o.ready(ctx, r, keyOrResult(req, result), result)
			return
		}
		logger.Debug("sensitivity tables still generating", "attempt", attempt, "next_poll", delay)
	}

	logger.Warn("sensitivity generation timed out", "polls", o.opts.MaxPolls)
	err := fmt.Errorf("%w after %d polls", common.ErrPollTimeout, o.opts.MaxPolls)
	o.apply(r, func(s *Snapshot) {
		s.State = TimedOut
		s.Result = emptyResult()
		s.Err = common.NewUserError(msgTimedOut, err)
	})
}

// keyOrResult keys a polled result by the request inputs when a request was
// made, and by the matrix labels when polling was resumed from a model.
func keyOrResult(req Request, result model.SensitivityResult) model.SensitivityKey {
	if Changed(result.IRR, req.MaxPrice, req.MinCapRate) {
		return keyFromResult(req.VersionID, result)
	}
	return req.Key()
}

// ready publishes a result. The store write happens under the session lock
// so a canceled run never persists anything.
// ready persists result and publishes it. The cache write happens without
// holding o.mu; a run canceled during the write takes its entry back out.
func (o *Orchestrator) ready(ctx context.Context, r *run, key model.SensitivityKey, result model.SensitivityResult) {
	o.mu.Lock()
	live := o.currentLocked(r) != nil
	o.mu.Unlock()
	if !live {
		return
	}

	o.save(ctx, key, result)

	o.mu.Lock()
	s := o.currentLocked(r)
	if s == nil {
		o.mu.Unlock()
		o.forget(key)
		return
	}
	s.snap.State = Ready
	s.snap.Key = key
	s.snap.Result = result
	s.snap.Err = nil
	s.snap.UpdatedAt = time.Now()
	snap := s.snap.clone()
	o.mu.Unlock()

	o.notify(snap)
}

func (o *Orchestrator) fail(r *run, err error) {
	o.apply(r, func(s *Snapshot) {
		s.State = Failed
		s.Result = emptyResult()
		s.Err = err
	})
}

// apply mutates the session owned by r. It reports false when r has been
// canceled or replaced.
func (o *Orchestrator) apply(r *run, fn func(*Snapshot)) bool {
	o.mu.Lock()
	s := o.currentLocked(r)
	if s == nil {
		o.mu.Unlock()
		return false
	}
	fn(&s.snap)
	s.snap.UpdatedAt = time.Now()
	snap := s.snap.clone()
	o.mu.Unlock()

	o.notify(snap)
	return true
}

func (o *Orchestrator) currentLocked(r *run) *session {
	s, ok := o.sessions[r.versionID]
	if !ok || s.run != r {
		return nil
	}
	return s
}

func (o *Orchestrator) sessionLocked(versionID string) *session {
	s, ok := o.sessions[versionID]
	if !ok {
		s = &session{snap: emptySnapshot(versionID)}
		o.sessions[versionID] = s
	}
	return s
}

func (o *Orchestrator) startLocked(s *session, state State, key model.SensitivityKey) *run {
	ctx, cancel := context.WithCancel(o.base)
	r := &run{
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		versionID: s.snap.VersionID,
	}
	s.run = r
	s.snap.State = state
	s.snap.Key = key
	s.snap.Err = nil
	s.snap.Polls = 0
	s.snap.UpdatedAt = time.Now()
	o.wg.Add(1)
	return r
}

func (s *session) changed(key model.SensitivityKey) bool {
	if s.snap.Key == key {
		return false
	}
	return Changed(s.snap.Result.IRR, key.MaxPrice, key.MinCapRate)
}

func (o *Orchestrator) lookup(ctx context.Context, key model.SensitivityKey) *service.CachedTables {
	cached, err := o.store.Get(ctx, key.VersionID)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			o.logger.Warn("sensitivity cache read failed", "version_id", key.VersionID, "error", err)
		}
		return nil
	}
	if cached == nil || cached.Key != key {
		return nil
	}
	return cached
}

func (o *Orchestrator) save(ctx context.Context, key model.SensitivityKey, result model.SensitivityResult) {
	entry := service.CachedTables{Key: key, Result: result.Clone(), CreatedAt: time.Now()}
	if err := o.store.Put(ctx, entry); err != nil {
		o.logger.Warn("sensitivity cache write failed", "key", key.String(), "error", err)
	}
}

// forget removes the entry a canceled run wrote, unless it has already been
// replaced with another key.
func (o *Orchestrator) forget(key model.SensitivityKey) {
	ctx := context.Background()
	entry, err := o.store.Get(ctx, key.VersionID)
	if err != nil || entry == nil || entry.Key != key {
		return
	}
	if err := o.store.Delete(ctx, key.VersionID); err != nil {
		o.logger.Warn("sensitivity cache cleanup failed", "key", key.String(), "error", err)
	}
}

func (o *Orchestrator) notify(snap Snapshot) {
	if o.opts.Observer != nil {
		o.opts.Observer(snap)
	}
}
