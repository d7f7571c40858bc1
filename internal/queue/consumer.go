package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log/slog"
    "os"
    "path/filepath"
    "sync/atomic"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer listens to QueueName and appends one line per event to
// <LogDir>/booking.log.
type Consumer struct {
    URL    string
    LogDir string
    Logger *slog.Logger

    connected atomic.Bool
}

// Connected reports whether the consumer currently holds a live
// subscription on the queue.
func (c *Consumer) Connected() bool { return c.connected.Load() }

// Run connects to RabbitMQ, declares the queue and consumes messages until
// ctx is cancelled.  Broker failures trigger a reconnect with exponential
// backoff capped at 30s.  Undecodable messages are rejected without
// requeue so one bad payload cannot wedge the consumer.
func (c *Consumer) Run(ctx context.Context) error {
    logger := c.Logger
    if logger == nil {
        logger = slog.Default()
    }
    backoff := time.Second
    for {
        if err := ctx.Err(); err != nil {
            return err
        }
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            logger.Warn("booking-consumer: dial failed", "error", err, "retry_in", backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = c.consumeLoop(ctx, conn, logger)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        logger.Warn("booking-consumer: consume loop ended; reconnecting", "error", err)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
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

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection, logger *slog.Logger) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        logger.Warn("booking-consumer: set QoS failed", "error", err)
    }
    if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(QueueName, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }
    c.connected.Store(true)
    defer c.connected.Store(false)
    logger.Info("booking-consumer: subscribed", "queue", QueueName)

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := HandleMessage(c.LogDir, d.Body); err != nil {
                logger.Error("booking-consumer: handle message failed", "error", err)
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// HandleMessage decodes one BookingEvent and appends it to
// <logDir>/booking.log, creating the directory when needed.
func HandleMessage(logDir string, body []byte) error {
    var ev BookingEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" || ev.BookingID == 0 {
        return fmt.Errorf("incomplete event: type=%q booking_id=%d", ev.Type, ev.BookingID)
    }
    if err := os.MkdirAll(logDir, 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(filepath.Join(logDir, "booking.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(FormatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatLine renders an event as a single human-friendly log line.
func FormatLine(ev BookingEvent) string {
    line := fmt.Sprintf("[%s] %s | booking_id=%d | user_id=%d | schedule_id=%d | seat_id=%d",
        ev.OccurredAt, ev.Type, ev.BookingID, ev.UserID, ev.ScheduleID, ev.SeatID)
    if ev.Type == EventChanged {
        line += fmt.Sprintf(" | prev_schedule_id=%d | prev_seat_id=%d", ev.PrevScheduleID, ev.PrevSeatID)
    }
    if ev.Status != "" {
        line += fmt.Sprintf(" | status=%q", ev.Status)
    }
    return line + "\n"
}
