// internal/app/system/workers/mailqueue.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/pairup/internal/app/system/mailer"
	"github.com/dalemusser/pairup/internal/app/system/metrics"
	"go.uber.org/zap"
)

// Sender is the delivery capability the queue drains into.
type Sender interface {
	Send(ctx context.Context, e mailer.Email) error
}

// MailQueue is a background worker that delivers email off the request path.
// Enqueue never blocks; a full queue drops the message and logs it.
type MailQueue struct {
	sender      Sender
	log         *zap.Logger
	queue       chan mailer.Email
	concurrency int
	sendTimeout time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

// NewMailQueue creates a mail queue worker.
//
// Parameters:
//   - sender: delivery backend
//   - logger: zap logger for logging
//   - size: queue capacity
//   - concurrency: number of delivery goroutines
func NewMailQueue(sender Sender, logger *zap.Logger, size, concurrency int) *MailQueue {
	if size <= 0 {
		size = 256
	}
	if concurrency <= 0 {
		concurrency = 2
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MailQueue{
		sender:      sender,
		log:         logger,
		queue:       make(chan mailer.Email, size),
		concurrency: concurrency,
		sendTimeout: 30 * time.Second,
		stopCh:      make(chan struct{}),
	}
}

// Start begins the delivery loops.
func (w *MailQueue) Start() {
	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.run()
	}
	w.log.Info("mail queue worker started",
		zap.Int("capacity", cap(w.queue)),
		zap.Int("concurrency", w.concurrency))
}

// Stop signals the worker to stop, delivers what is already queued and waits.
func (w *MailQueue) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
	w.log.Info("mail queue worker stopped")
}

// Enqueue schedules e for delivery. It returns false if the queue is full or
// stopped.
func (w *MailQueue) Enqueue(e mailer.Email) bool {
	select {
	case <-w.stopCh:
		metrics.Notifications.WithLabelValues("email", "dropped").Inc()
		return false
	default:
	}
	select {
	case w.queue <- e:
		return true
	default:
		metrics.Notifications.WithLabelValues("email", "dropped").Inc()
		w.log.Warn("mail queue full, dropping email",
			zap.String("to", e.To),
			zap.String("subject", e.Subject))
		return false
	}
}

func (w *MailQueue) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopCh:
			w.drain()
			return
		case e := <-w.queue:
			w.deliver(e)
		}
	}
}

func (w *MailQueue) drain() {
	for {
		select {
		case e := <-w.queue:
			w.deliver(e)
		default:
			return
		}
	}
}

func (w *MailQueue) deliver(e mailer.Email) {
	ctx, cancel := context.WithTimeout(context.Background(), w.sendTimeout)
	defer cancel()

	if err := w.sender.Send(ctx, e); err != nil {
		metrics.Notifications.WithLabelValues("email", "failed").Inc()
		w.log.Error("failed to send email",
			zap.String("to", e.To),
			zap.String("subject", e.Subject),
			zap.Error(err))
		return
	}
	metrics.Notifications.WithLabelValues("email", "sent").Inc()
}
