package queue

import (
    "context"
    "encoding/json"
    "log/slog"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher publishes BookingEvents to QueueName.  Each call dials the
// broker, which is plenty for one interactive session issuing a handful
// of writes.  Errors are logged and returned so the caller can choose to
// ignore them; the booking itself has already been committed.
type Publisher struct {
    URL    string
    Logger *slog.Logger
    // DialTimeout bounds the TCP connect and AMQP handshake, so an
    // unreachable broker delays the shell by seconds, not the OS default.
    DialTimeout time.Duration
}

// DefaultDialTimeout is used when DialTimeout is zero.
const DefaultDialTimeout = 3 * time.Second

// NewPublisher returns a Publisher for the given broker URL.
func NewPublisher(url string, logger *slog.Logger) *Publisher {
    if logger == nil {
        logger = slog.Default()
    }
    return &Publisher{URL: url, Logger: logger, DialTimeout: DefaultDialTimeout}
}

// Publish sends the event as a persistent JSON message.
func (p *Publisher) Publish(ctx context.Context, event BookingEvent) error {
    if event.OccurredAt == "" {
        event.OccurredAt = time.Now().UTC().Format(time.RFC3339)
    }
    timeout := p.DialTimeout
    if timeout <= 0 {
        timeout = DefaultDialTimeout
    }
    conn, err := amqp.DialConfig(p.URL, amqp.Config{
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
        Dial:      amqp.DefaultDial(timeout),
    })
    if err != nil {
        p.Logger.Warn("rabbitmq: dial failed", "error", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        p.Logger.Warn("rabbitmq: channel open failed", "error", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    // Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(
        QueueName, // name
        true,      // durable
        false,     // autoDelete
        false,     // exclusive
        false,     // noWait
        nil,       // args
    ); err != nil {
        p.Logger.Warn("rabbitmq: queue declare failed", "error", err)
        return err
    }

    body, err := json.Marshal(event)
    if err != nil {
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        Timestamp:    time.Now().UTC(),
        Type:         event.Type,
        Body:         body,
    }

    if err := ch.PublishWithContext(ctx,
        "",        // default exchange
        QueueName, // routing key = queue name
        false,     // mandatory
        false,     // immediate
        pub,
    ); err != nil {
        p.Logger.Warn("rabbitmq: publish failed", "error", err)
        return err
    }
    p.Logger.Debug("rabbitmq: published", "type", event.Type, "booking_id", event.BookingID)
    return nil
}
