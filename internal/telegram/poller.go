package telegram

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error)
}

// Poller long-polls the Bot API and fans updates out to a fixed worker pool.
// Updates of one user always land on the same worker, so a user's turns are
// handled in arrival order.
type Poller struct {
	src        UpdateSource
	bot        *Bot
	workers    int
	timeout    int
	retryDelay time.Duration
	log        *zap.Logger
}

func NewPoller(src UpdateSource, bot *Bot, workers, timeout int, retryDelay time.Duration, log *zap.Logger) *Poller {
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller{src: src, bot: bot, workers: workers, timeout: timeout, retryDelay: retryDelay, log: log}
}

// Run blocks until ctx is cancelled, then drains the workers.
func (p *Poller) Run(ctx context.Context) error {
	queues := make([]chan Update, p.workers)
	var wg sync.WaitGroup
	wg.Add(p.workers)
	for i := range queues {
		queues[i] = make(chan Update, 16)
		go func(workerID int, in <-chan Update) {
			defer wg.Done()
			for u := range in {
				start := time.Now()
				p.bot.HandleUpdate(context.WithoutCancel(ctx), u)
				p.log.Debug("update_handled", zap.Int("worker", workerID), zap.Int64("update_id", u.UpdateID), zap.Duration("took", time.Since(start)))
			}
		}(i, queues[i])
	}

	defer func() {
		for _, q := range queues {
			close(q)
		}
		wg.Wait()
	}()

	p.log.Info("bot_polling_started", zap.Int("workers", p.workers))
	var offset int64
	for {
		updates, err := p.src.GetUpdates(ctx, offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				p.log.Info("bot_polling_stopped")
				return nil
			}
			p.log.Warn("get_updates_failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(p.retryDelay):
			}
			continue
		}

		for _, u := range updates {
			offset = u.UpdateID + 1
			q := queues[shard(u, p.workers)]
			select {
			case q <- u:
			case <-ctx.Done():
				return nil
			}
		}

		if ctx.Err() != nil {
			p.log.Info("bot_polling_stopped")
			return nil
		}
	}
}

func shard(u Update, n int) int {
	if u.Message == nil || u.Message.From == nil {
		return 0
	}
	id := u.Message.From.ID
	if id < 0 {
		id = -id
	}
	return int(id % int64(n))
}
