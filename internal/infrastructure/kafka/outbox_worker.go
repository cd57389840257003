package kafka

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/AhmadZaarour/store-manager-web-app/internal/cfg"
	"github.com/AhmadZaarour/store-manager-web-app/internal/repository/pgdb"
	"github.com/AhmadZaarour/store-manager-web-app/internal/usecase"
	"github.com/AhmadZaarour/store-manager-web-app/pkg/e"
	"github.com/AhmadZaarour/store-manager-web-app/pkg/jitter"
	"github.com/AhmadZaarour/store-manager-web-app/pkg/logger"
	"github.com/jackc/pgx/v5"
)

const (
	reconnectBaseBackoff = time.Second
	reconnectMaxBackoff  = 30 * time.Second
	notificationTimeout  = 30 * time.Second
	defaultBatchSize     = 10
	defaultPollInterval  = 30 * time.Second
)

// OutboxWorker переносит события из outbox_events в Kafka.
// Разбор очереди запускается по NOTIFY, по таймеру и один раз при старте.
type OutboxWorker struct {
	repo      usecase.OutboxRepository
	logger    logger.Logger
	producer  usecase.MessageProducer
	cfg       *cfg.OutboxCfg
	dbConnStr string

	wake   chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewOutboxWorker(
	repo usecase.OutboxRepository,
	logger logger.Logger,
	producer usecase.MessageProducer,
	cfg *cfg.OutboxCfg,
	dbConnStr string,
) *OutboxWorker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}

	return &OutboxWorker{
		repo:      repo,
		logger:    logger,
		producer:  producer,
		cfg:       cfg,
		dbConnStr: dbConnStr,
		wake:      make(chan struct{}, 1),
	}
}

func (w *OutboxWorker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(2)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()

	// Запускаем слушатель уведомлений
	go func() {
		defer w.wg.Done()
		w.listenOutboxNotifications(ctx)
	}()
}

// Stop останавливает воркер и дожидается завершения горутин.
func (w *OutboxWorker) Stop(ctx context.Context) error {
	if w.cancel == nil {
		return nil
	}
	w.cancel()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return e.Wrap("OutboxWorker.Stop", ctx.Err())
	}
}

// run — единственная горутина, разбирающая очередь, поэтому пачки не пересекаются.
func (w *OutboxWorker) run(ctx context.Context) {
	w.logger.Infof("Draining pending outbox events on startup...")
	w.drain(ctx)

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Infof("Outbox worker stopped")
			return
		case <-w.wake:
			w.drain(ctx)
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

func (w *OutboxWorker) drain(ctx context.Context) {
	for ctx.Err() == nil {
		hasMore, err := w.processBatch(ctx)
		if err != nil {
			w.logger.Warnf("Batch processing failed: %v", err)
			return
		}
		if !hasMore {
			return
		}
	}
}

func (w *OutboxWorker) notify() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *OutboxWorker) listenOutboxNotifications(ctx context.Context) {
	for attempt := 0; ctx.Err() == nil; attempt++ {
		conn, err := w.connect(ctx)
		if err != nil {
			delay := jitter.ExponentialBackoff(reconnectBaseBackoff, reconnectMaxBackoff, attempt, jitter.DefaultJitter)
			w.logger.Warnf("LISTEN connect failed: %v. Retrying in %s", err, delay)

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			continue
		}

		attempt = -1
		w.waitNotifications(ctx, conn)
		conn.Close(context.Background())
	}
}

func (w *OutboxWorker) connect(ctx context.Context) (*pgx.Conn, error) {
	conn, err := pgx.Connect(ctx, w.dbConnStr)
	if err != nil {
		return nil, e.Wrap("failed to connect for LISTEN", err)
	}

	if _, err := conn.Exec(ctx, "LISTEN "+pgdb.NotifyChannel); err != nil {
		conn.Close(ctx)
		return nil, e.Wrap("failed to LISTEN", err)
	}

	w.logger.Infof("Subscribed to '%s' channel", pgdb.NotifyChannel)
	return conn, nil
}

// waitNotifications возвращается при потере соединения или остановке.
func (w *OutboxWorker) waitNotifications(ctx context.Context, conn *pgx.Conn) {
	for ctx.Err() == nil {
		waitCtx, cancel := context.WithTimeout(ctx, notificationTimeout)
		notif, err := conn.WaitForNotification(waitCtx)
		cancel()

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				continue
			}
			w.logger.Warnf("Connection lost: %v. Reconnecting...", err)
			return
		}

		if notif != nil && notif.Channel == pgdb.NotifyChannel {
			w.logger.Debugf("Received outbox notification, draining outbox events")
			w.notify()
		}
	}
}

// processBatch публикует одну пачку. Неопубликованные события возвращаются в pending.
func (w *OutboxWorker) processBatch(ctx context.Context) (bool, error) {
	events, err := w.repo.GetAndMarkAsProcessing(ctx, w.cfg.BatchSize)
	if err != nil {
		return false, err
	}

	if len(events) == 0 {
		return false, nil
	}

	failed := 0
	for _, event := range events {
		if err := w.processEvent(ctx, event); err != nil {
			failed++
			w.logger.Warnf("publish event %s (%s) failed: %v", event.EventID, event.EventType, err)
			if err := w.repo.MarkAsPending(ctx, event.ID); err != nil {
				w.logger.Warnf("return to pending failed: %v", err)
			}
			continue
		}
		if err := w.repo.MarkAsProcessed(ctx, event.ID); err != nil {
			w.logger.Warnf("mark processed failed: %v", err)
		}
	}

	// Вся пачка не ушла: брокер недоступен, повтор по таймеру
	if failed == len(events) {
		return false, nil
	}

	return len(events) == w.cfg.BatchSize, nil
}

func (w *OutboxWorker) processEvent(ctx context.Context, event *usecase.OutboxEvent) error {
	if err := w.producer.WriteRawMessage(ctx, usecase.NewWriteRawMessageReq(event.AggregateKey, event.Payload)); err != nil {
		if isRetryableError(err) {
			return e.Wrap("Temporary Kafka failure, will retry", err)
		}
		return e.Wrap("Permanent Kafka failure", err)
	}
	return nil
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	retryablePhrases := []string{
		"connection refused",
		"i/o timeout",
		"network is unreachable",
		"broker not available",
		"connection reset",
		"broken pipe",
		"no such host",
	}
	for _, phrase := range retryablePhrases {
		if strings.Contains(errStr, phrase) {
			return true
		}
	}
	return false
}
