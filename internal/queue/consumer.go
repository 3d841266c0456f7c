package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AuditLogFile is the file, inside the consumer's log directory, that
// receives one line per event.
const AuditLogFile = "applications.log"

// Consumer reads workflow events and appends them to the audit log.
type Consumer struct {
	URL    string
	Queue  string
	LogDir string
	Logger *slog.Logger

	mu sync.Mutex // serializes appends
}

func NewConsumer(url, queue, logDir string, logger *slog.Logger) *Consumer {
	if queue == "" {
		queue = DefaultQueueName
	}
	if logDir == "" {
		logDir = "logs"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{URL: url, Queue: queue, LogDir: logDir, Logger: logger}
}

// Run connects to RabbitMQ, declares the queue and consumes until ctx is
// cancelled.  Broker failures trigger a reconnect with exponential backoff
// capped at 30s.  Run returns ctx.Err() on shutdown.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Logger.Warn("event consumer dial failed", "error", err, "retry_in", backoff.String())
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Logger.Warn("event consumer loop ended, reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Logger.Warn("event consumer set QoS failed", "error", err)
	}
	if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.HandleMessage(d.Body); err != nil {
				c.Logger.Error("event consumer handle message failed", "error", err)
				_ = d.Nack(false, false) // do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleMessage decodes one event and appends its audit line.
func (c *Consumer) HandleMessage(body []byte) error {
	var ev ApplicationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" || ev.ApplicationID == "" {
		return errors.New("event without type or application id")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(c.LogDir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.LogDir, err)
	}
	f, err := os.OpenFile(filepath.Join(c.LogDir, AuditLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatAuditLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatAuditLine renders ev as a single newline-terminated line.
func FormatAuditLine(ev ApplicationEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s | application=%s | number=%s | citizen=%s | service=%s",
		ev.OccurredAt, ev.Type, ev.ApplicationID, ev.ApplicationNumber, ev.CitizenID, ev.ServiceType)
	if ev.FromStatus != "" {
		fmt.Fprintf(&b, " | status=%s->%s", ev.FromStatus, ev.ToStatus)
	} else {
		fmt.Fprintf(&b, " | status=%s", ev.ToStatus)
	}
	if ev.Action != "" {
		fmt.Fprintf(&b, " | action=%s", ev.Action)
	}
	if ev.Actor != "" {
		fmt.Fprintf(&b, " | actor=%q", ev.Actor)
	}
	if ev.CertificateNumber != "" {
		fmt.Fprintf(&b, " | certificate=%s", ev.CertificateNumber)
	}
	if ev.Remarks != "" {
		fmt.Fprintf(&b, " | remarks=%q", strings.ReplaceAll(ev.Remarks, "\n", " "))
	}
	b.WriteByte('\n')
	return b.String()
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
