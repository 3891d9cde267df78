package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Consumer reads booking.events and appends one line per event to
// <dir>/booking.log.
type Consumer struct {
	url   string
	queue string
	dir   string
	log   logrus.FieldLogger
}

// NewConsumer returns a Consumer writing under dir.
func NewConsumer(url, dir string, log logrus.FieldLogger) *Consumer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if dir == "" {
		dir = "logs"
	}
	return &Consumer{url: url, queue: BookingEventsQueue, dir: dir, log: log.WithField("component", "booking-consumer")}
}

// Run connects to RabbitMQ and consumes until ctx is cancelled.  Broker
// failures are retried with exponential backoff capped at 30s.  A message
// that cannot be handled is rejected without requeue.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.WithError(err).Warnf("failed to dial broker; retrying in %s", backoff)
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
		c.log.WithError(err).Warn("consume loop ended; reconnecting")
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
		c.log.WithError(err).Warn("set QoS failed")
	}
	if err := declare(ch, c.queue); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := c.Handle(d.Body); err != nil {
			c.log.WithError(err).Error("handle message failed")
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// Handle decodes one message body and appends its line to booking.log.
func (c *Consumer) Handle(body []byte) error {
	var ev BookingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" {
		return errors.New("event without type")
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.dir, err)
	}
	f, err := os.OpenFile(filepath.Join(c.dir, "booking.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders ev as a single newline-terminated log line.
func FormatLine(ev BookingEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] ", ev.OccurredAt)
	switch ev.Type {
	case EventBookingDecided:
		fmt.Fprintf(&b, "Booking %s", ev.Status)
	case EventBookingCancelled:
		b.WriteString("Booking cancelled")
	case EventFacilityRemoved:
		b.WriteString("Facility removed")
	default:
		fmt.Fprintf(&b, "Event %s", ev.Type)
	}
	if ev.ReservationID != 0 {
		fmt.Fprintf(&b, " | reservation_id=%d", ev.ReservationID)
	}
	fmt.Fprintf(&b, " | facility_id=%d", ev.FacilityID)
	if ev.FacilityName != "" {
		fmt.Fprintf(&b, " | facility=%q", ev.FacilityName)
	}
	if ev.AccountID != 0 {
		fmt.Fprintf(&b, " | account_id=%d", ev.AccountID)
	}
	if ev.Date != "" {
		fmt.Fprintf(&b, " | slot=%s %s-%s", ev.Date, ev.Start, ev.End)
	}
	if ev.Type == EventFacilityRemoved {
		fmt.Fprintf(&b, " | removed_reservations=%d", ev.RemovedReservations)
	}
	fmt.Fprintf(&b, " | actor_id=%d\n", ev.ActorID)
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
