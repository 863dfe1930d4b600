package workers

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adventurebuddha/internal/events"
	"adventurebuddha/internal/services"
)

type processed struct {
	mu  sync.Mutex
	ids []int64
	ch  chan int64
}

func newProcessed() *processed { return &processed{ch: make(chan int64, 16)} }

func (p *processed) run(ctx context.Context, id int64) error {
	p.mu.Lock()
	p.ids = append(p.ids, id)
	p.mu.Unlock()
	p.ch <- id
	return nil
}

func (p *processed) wait(t *testing.T) int64 {
	t.Helper()
	select {
	case id := <-p.ch:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("campaign batch never ran")
	}
	return 0
}

func TestLocalQueueRunsImmediateAndDelayed(t *testing.T) {
	p := newProcessed()
	w := NewCampaignWorker(nil)
	w.Process = p.run

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(stopped)
	}()

	require.NoError(t, w.Enqueue(ctx, 4, 0))
	assert.Equal(t, int64(4), p.wait(t))

	start := time.Now()
	require.NoError(t, w.Enqueue(ctx, 9, 50*time.Millisecond))
	assert.Equal(t, int64(9), p.wait(t))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestLocalQueueResumesRunnableCampaigns(t *testing.T) {
	p := newProcessed()
	w := NewCampaignWorker(nil)
	w.Process = p.run
	w.Resume = func() ([]int64, error) { return []int64{1, 2}, nil }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	got := []int64{p.wait(t), p.wait(t)}
	assert.ElementsMatch(t, []int64{1, 2}, got)
}

func TestDispatchDropsDuplicateWhileBatchRequeues(t *testing.T) {
	release := make(chan struct{})
	var calls int32
	w := NewCampaignWorker(nil)
	w.Process = func(ctx context.Context, id int64) error {
		atomic.AddInt32(&calls, 1)
		<-release
		// the batch schedules its own follow-up
		return w.Enqueue(ctx, id, time.Hour)
	}

	ctx := context.Background()
	w.dispatch(ctx, 3)
	w.dispatch(ctx, 3)

	close(release)
	w.wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	w.mu.Lock()
	pending := len(w.timers)
	queued := len(w.local)
	for _, tm := range w.timers {
		tm.Stop()
	}
	w.mu.Unlock()
	assert.Equal(t, 1, pending, "only the batch's own follow-up is scheduled")
	assert.Equal(t, 0, queued)
}

func TestDispatchReplaysDuplicateWhenBatchStops(t *testing.T) {
	release := make(chan struct{})
	w := NewCampaignWorker(nil)
	w.Process = func(ctx context.Context, id int64) error {
		<-release
		return nil
	}

	ctx := context.Background()
	w.dispatch(ctx, 3)
	w.dispatch(ctx, 3)
	close(release)
	w.wg.Wait()

	select {
	case id := <-w.local:
		assert.Equal(t, int64(3), id)
	default:
		t.Fatal("dropped request was not replayed")
	}
}

func TestLocalEnqueueReplacesPendingDelay(t *testing.T) {
	w := NewCampaignWorker(nil)
	ctx := context.Background()

	require.NoError(t, w.Enqueue(ctx, 5, time.Hour))
	require.NoError(t, w.Enqueue(ctx, 5, time.Hour))
	w.mu.Lock()
	assert.Len(t, w.timers, 1)
	w.mu.Unlock()

	require.NoError(t, w.Enqueue(ctx, 5, 0))
	w.mu.Lock()
	assert.Empty(t, w.timers)
	w.mu.Unlock()
	assert.Equal(t, int64(5), <-w.local)
	assert.Empty(t, w.local)
}

func TestEveryStopsWithContext(t *testing.T) {
	var ticks int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Every(ctx, "test", 10*time.Millisecond, func(context.Context) error {
			if atomic.AddInt32(&ticks, 1) >= 3 {
				cancel()
			}
			return errors.New("keeps going")
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Every did not return after cancel")
	}
	assert.GreaterOrEqual(t, atomic.LoadInt32(&ticks), int32(3))
}

type fakeCleaner struct{ calls int32 }

func (f *fakeCleaner) CleanupExpired(context.Context) (int64, error) {
	atomic.AddInt32(&f.calls, 1)
	return 2, nil
}

func TestRunLockCleanupCallsSeatService(t *testing.T) {
	f := &fakeCleaner{}
	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	RunLockCleanup(ctx, f, 10*time.Millisecond)
	assert.Greater(t, atomic.LoadInt32(&f.calls), int32(0))
}

type fakeHub struct {
	size   int
	groups []string
}

func (h *fakeHub) Broadcast(group string, payload any) { h.groups = append(h.groups, group) }
func (h *fakeHub) GroupSize(string) int                { return h.size }

func TestPushAdminSnapshotSkipsWithoutAdmins(t *testing.T) {
	hub := &fakeHub{}
	// A zero DashboardService has no database; it must not be touched.
	require.NoError(t, PushAdminSnapshot(services.DashboardService{}, hub))
	assert.Empty(t, hub.groups)
}

type fakeSource struct {
	keys []string
}

func (s *fakeSource) Run(ctx context.Context, handler events.Handler) error {
	for _, k := range s.keys {
		if err := handler(k, []byte(`{}`)); err != nil {
			return err
		}
	}
	return nil
}

func TestRunActivityConsumerForwardsEvents(t *testing.T) {
	var got []string
	src := &fakeSource{keys: []string{events.BookingCreated, events.LeadCreated}}
	RunActivityConsumer(context.Background(), src, func(key string, body []byte) error {
		got = append(got, key)
		return nil
	})
	assert.Equal(t, []string{events.BookingCreated, events.LeadCreated}, got)

	RunActivityConsumer(context.Background(), nil, nil)
}
