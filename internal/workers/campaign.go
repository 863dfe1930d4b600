package workers

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"adventurebuddha/internal/utils"
)

const (
	CampaignQueueKey   = "campaign:send"
	CampaignDelayedKey = "campaign:send:delayed"

	popTimeout   = 5 * time.Second
	promoteEvery = time.Second
	localBuffer  = 256
)

// CampaignWorker queues campaign batches and runs them. With a Redis client
// ids go through the campaign:send list (delayed ids wait in a sorted set);
// without one an in-process timer queue is used.
//
// A campaign has at most one batch chain: a new entry replaces the pending
// delayed one, and an id popped while its batch is still running is dropped.
// If that running batch ends without scheduling a follow-up, the dropped
// request is replayed.
type CampaignWorker struct {
	Redis *redis.Client
	// Process runs one batch of a campaign.
	Process func(ctx context.Context, campaignID int64) error
	// Resume lists campaigns to pick up when the worker starts.
	Resume func() ([]int64, error)

	mu       sync.Mutex
	inflight map[int64]bool
	// requeued marks running batches that scheduled their own follow-up.
	requeued map[int64]bool
	// dropped marks running batches that swallowed a duplicate request.
	dropped map[int64]bool
	timers  map[int64]*time.Timer
	local   chan int64
	done    chan struct{}
	wg      sync.WaitGroup
}

func NewCampaignWorker(rdb *redis.Client) *CampaignWorker {
	return &CampaignWorker{
		Redis:    rdb,
		inflight: map[int64]bool{},
		requeued: map[int64]bool{},
		dropped:  map[int64]bool{},
		timers:   map[int64]*time.Timer{},
		local:    make(chan int64, localBuffer),
		done:     make(chan struct{}),
	}
}

func (w *CampaignWorker) tag() string { return utils.WorkerTag("campaign") }

// Enqueue implements services.CampaignQueue. The latest request for a
// campaign replaces any delayed one still waiting.
func (w *CampaignWorker) Enqueue(ctx context.Context, campaignID int64, delay time.Duration) error {
	w.mu.Lock()
	if w.inflight[campaignID] {
		w.requeued[campaignID] = true
	}
	w.mu.Unlock()

	if w.Redis != nil {
		member := strconv.FormatInt(campaignID, 10)
		if delay <= 0 {
			if err := w.Redis.ZRem(ctx, CampaignDelayedKey, member).Err(); err != nil {
				return err
			}
			return w.Redis.RPush(ctx, CampaignQueueKey, member).Err()
		}
		due := time.Now().Add(delay)
		return w.Redis.ZAdd(ctx, CampaignDelayedKey, &redis.Z{
			Score:  float64(due.UnixMilli()),
			Member: member,
		}).Err()
	}

	w.mu.Lock()
	if old, ok := w.timers[campaignID]; ok {
		old.Stop()
		delete(w.timers, campaignID)
	}
	if delay <= 0 {
		w.mu.Unlock()
		w.pushLocal(campaignID)
		return nil
	}
	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		w.mu.Lock()
		if w.timers[campaignID] == t {
			delete(w.timers, campaignID)
		}
		w.mu.Unlock()
		w.pushLocal(campaignID)
	})
	w.timers[campaignID] = t
	w.mu.Unlock()
	return nil
}

func (w *CampaignWorker) pushLocal(campaignID int64) {
	select {
	case w.local <- campaignID:
	case <-w.done:
	}
}

// Run consumes queued campaign ids until ctx is done, then waits for running
// batches to return.
func (w *CampaignWorker) Run(ctx context.Context) {
	utils.LogEvent(w.tag(), "campaign", "worker_started", fmt.Sprintf("redis=%t", w.Redis != nil))
	w.resume(ctx)

	if w.Redis != nil {
		go Every(ctx, "campaign", promoteEvery, w.promoteDue)
	}
	for {
		id, ok := w.next(ctx)
		if !ok {
			break
		}
		w.dispatch(ctx, id)
	}

	close(w.done)
	w.mu.Lock()
	for _, t := range w.timers {
		t.Stop()
	}
	w.timers = map[int64]*time.Timer{}
	w.mu.Unlock()
	w.wg.Wait()
	utils.LogEvent(w.tag(), "campaign", "worker_stopped", "")
}

func (w *CampaignWorker) resume(ctx context.Context) {
	if w.Resume == nil {
		return
	}
	ids, err := w.Resume()
	if err != nil {
		utils.LogEvent(w.tag(), "campaign", "resume_failed", err.Error())
		return
	}
	for _, id := range ids {
		if w.Redis == nil {
			w.dispatch(ctx, id)
			continue
		}
		if err := w.Enqueue(ctx, id, 0); err != nil {
			utils.LogEvent(w.tag(), "campaign", "resume_failed", fmt.Sprintf("campaign_id=%d err=%v", id, err))
		}
	}
	if len(ids) > 0 {
		utils.LogEvent(w.tag(), "campaign", "resume", fmt.Sprintf("count=%d", len(ids)))
	}
}

func (w *CampaignWorker) next(ctx context.Context) (int64, bool) {
	if w.Redis == nil {
		select {
		case <-ctx.Done():
			return 0, false
		case id := <-w.local:
			return id, true
		}
	}
	for {
		res, err := w.Redis.BLPop(ctx, popTimeout, CampaignQueueKey).Result()
		if ctx.Err() != nil {
			return 0, false
		}
		if err == redis.Nil {
			continue
		}
		if err != nil {
			utils.LogEvent(w.tag(), "campaign", "redis_error", err.Error())
			select {
			case <-ctx.Done():
				return 0, false
			case <-time.After(time.Second):
			}
			continue
		}
		id, err := strconv.ParseInt(res[1], 10, 64)
		if err != nil {
			utils.LogEvent(w.tag(), "campaign", "bad_payload", res[1])
			continue
		}
		return id, true
	}
}

// promoteDue moves delayed ids whose time has come onto the send list. ZRem
// decides ownership so several instances never promote the same entry twice.
func (w *CampaignWorker) promoteDue(ctx context.Context) error {
	upto := strconv.FormatInt(time.Now().UnixMilli(), 10)
	due, err := w.Redis.ZRangeByScore(ctx, CampaignDelayedKey, &redis.ZRangeBy{Min: "-inf", Max: upto}).Result()
	if err != nil {
		return err
	}
	for _, member := range due {
		removed, err := w.Redis.ZRem(ctx, CampaignDelayedKey, member).Result()
		if err != nil {
			return err
		}
		if removed == 0 {
			continue
		}
		if err := w.Redis.RPush(ctx, CampaignQueueKey, member).Err(); err != nil {
			return err
		}
	}
	return nil
}

// dispatch runs a batch in the background. A request for a campaign whose
// batch is still running is dropped; it is replayed once that batch returns
// unless the batch already scheduled its next run.
func (w *CampaignWorker) dispatch(ctx context.Context, campaignID int64) {
	w.mu.Lock()
	if w.inflight[campaignID] {
		w.dropped[campaignID] = true
		w.mu.Unlock()
		utils.LogEvent(w.tag(), "campaign", "busy", fmt.Sprintf("campaign_id=%d", campaignID))
		return
	}
	w.inflight[campaignID] = true
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if w.Process != nil {
			if err := w.Process(ctx, campaignID); err != nil {
				utils.LogEvent(w.tag(), "campaign", "batch_failed", fmt.Sprintf("campaign_id=%d err=%v", campaignID, err))
			}
		}

		w.mu.Lock()
		replay := w.dropped[campaignID] && !w.requeued[campaignID]
		delete(w.inflight, campaignID)
		delete(w.dropped, campaignID)
		delete(w.requeued, campaignID)
		w.mu.Unlock()

		if replay && ctx.Err() == nil {
			if err := w.Enqueue(ctx, campaignID, 0); err != nil {
				utils.LogEvent(w.tag(), "campaign", "requeue_failed", fmt.Sprintf("campaign_id=%d err=%v", campaignID, err))
			}
		}
	}()
}
