package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/suPer8Hu/dialog-bot/internal/config"
	"github.com/suPer8Hu/dialog-bot/internal/logger"
	"github.com/suPer8Hu/dialog-bot/internal/store/rabbitmq"
	"github.com/suPer8Hu/dialog-bot/internal/texttosql"
	"go.uber.org/zap"
)

// worker drains the admin query audit queue and writes each record to the log.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.RabbitURL == "" {
		log.Fatalf("config: RABBIT_URL: required")
	}

	lg, err := logger.New(cfg.LogLevel, cfg.LogFilePath, "worker.log")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		lg.Fatal("rabbit_dial_failed", zap.Error(err))
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		lg.Fatal("rabbit_channel_failed", zap.Error(err))
	}
	defer ch.Close()

	if err := rabbitmq.DeclareQueues(ch, cfg.RabbitQueue); err != nil {
		lg.Fatal("queue_declare_failed", zap.Error(err))
	}

	concurrency := cfg.WorkerConcurrency
	if concurrency <= 0 {
		concurrency = 2
	}
	if concurrency > 50 {
		concurrency = 50
	}

	if err := ch.Qos(concurrency, 0, false); err != nil {
		lg.Fatal("qos_failed", zap.Error(err))
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		lg.Fatal("consume_failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lg.Info("worker_started", zap.String("queue", cfg.RabbitQueue), zap.Int("concurrency", concurrency))

	// worker pool
	deliveries := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			wlog := lg.With(zap.Int("worker", workerID))
			for d := range deliveries {
				rec, err := texttosql.DecodeAudit(d.Body)
				if err != nil {
					// dead-lettered to the .dlq queue
					wlog.Warn("audit_bad_message", zap.Error(err))
					_ = d.Nack(false, false)
					continue
				}
				texttosql.LogAudit(wlog, rec)
				if err := d.Ack(false); err != nil {
					wlog.Error("audit_ack_failed", zap.Error(err))
				}
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			lg.Info("worker_shutting_down")
			close(deliveries)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				// connection lost; let the supervisor restart us
				lg.Warn("delivery_channel_closed")
				close(deliveries)
				wg.Wait()
				os.Exit(1)
			}
			deliveries <- d
		}
	}
}
