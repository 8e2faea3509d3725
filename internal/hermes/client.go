package hermes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Client is the event bus used for score requests and scoring notifications.
type Client interface {
	Publish(subject string, data interface{}) error
	Subscribe(subject string, handler func(subject string, data []byte)) error
	Close()
}

const publishTimeout = 5 * time.Second

// NATSClient publishes scoring events into the TENDER_SCORING stream and
// consumes score requests through a queue group. Until the stream exists,
// events go out as plain NATS messages.
type NATSClient struct {
	conn        *nats.Conn
	js          jetstream.JetStream
	streamReady atomic.Bool
	subs        []*nats.Subscription
	logger      *slog.Logger
}

func NewNATSClient(ctx context.Context, url string, logger *slog.Logger) (*NATSClient, error) {
	nc, err := nats.Connect(url,
		nats.Name("tender"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("hermes disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("hermes reconnected", "url", c.ConnectedUrlRedacted())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	c := &NATSClient{conn: nc, js: js, logger: logger}
	if err := c.ensureStream(ctx); err != nil {
		logger.Warn("scoring stream unavailable, publishing without persistence", "stream", StreamName, "error", err)
	}
	return c, nil
}

func (c *NATSClient) ensureStream(ctx context.Context) error {
	maxAge, err := time.ParseDuration(StreamMaxAge)
	if err != nil {
		return fmt.Errorf("stream max age: %w", err)
	}
	if _, err := c.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{StreamSubjects},
		MaxAge:    maxAge,
		Retention: jetstream.LimitsPolicy,
	}); err != nil {
		return err
	}
	c.streamReady.Store(true)
	return nil
}

// Publish sends a scoring event. With the stream in place the publish waits
// for the server ack.
func (c *NATSClient) Publish(subject string, data interface{}) error {
	payload, err := encodeEvent(subject, data)
	if err != nil {
		return err
	}
	if !c.streamReady.Load() {
		return c.conn.Publish(subject, payload)
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if _, err := c.js.Publish(ctx, subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

func encodeEvent(subject string, data interface{}) ([]byte, error) {
	if data == nil {
		return nil, errors.New("publish " + subject + ": nil event")
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", subject, err)
	}
	return payload, nil
}

// Subscribe joins QueueGroup so each message is handled by one instance.
func (c *NATSClient) Subscribe(subject string, handler func(string, []byte)) error {
	sub, err := c.conn.QueueSubscribe(subject, QueueGroup, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("queue subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	return nil
}

// Ping reports whether the connection is currently usable.
func (c *NATSClient) Ping(context.Context) error {
	if status := c.conn.Status(); status != nats.CONNECTED {
		return fmt.Errorf("nats connection %s", status)
	}
	return nil
}

// Close drains subscriptions and buffered publishes before closing the connection.
func (c *NATSClient) Close() {
	if err := c.conn.Drain(); err != nil {
		c.logger.Warn("nats drain failed", "subscriptions", len(c.subs), "error", err)
		c.conn.Close()
	}
}
