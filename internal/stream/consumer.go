package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"betdesk/internal/config"
	"betdesk/internal/domain"
)

const (
	payloadField = "opportunity"
	readCount    = 10
	readBlock    = time.Second
	retryPause   = time.Second
)

// ErrDisabled is returned when no redis url is configured.
var ErrDisabled = errors.New("stream: redis not configured")

// Message is one decoded stream entry.
type Message struct {
	ID          string
	StreamKey   string
	Opportunity domain.Opportunity
}

// Consumer reads live opportunities from a Redis stream consumer group.
type Consumer struct {
	client   *redis.Client
	stream   string
	group    string
	consumer string
	logger   zerolog.Logger
}

// NewClient builds a redis client from the configured URL.
func NewClient(cfg config.RedisConfig) (*redis.Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, ErrDisabled
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// NewConsumer wraps a redis client for the configured stream and group.
func NewConsumer(client *redis.Client, cfg config.RedisConfig, logger zerolog.Logger) *Consumer {
	return &Consumer{
		client:   client,
		stream:   cfg.Stream,
		group:    cfg.Group,
		consumer: cfg.Consumer,
		logger:   logger.With().Str("component", "stream").Logger(),
	}
}

// Consume creates the consumer group if needed and delivers decoded messages
// until ctx is cancelled. Both channels are closed when the reader stops.
func (c *Consumer) Consume(ctx context.Context) (<-chan Message, <-chan error) {
	messages := make(chan Message, 100)
	errs := make(chan error, 10)

	if err := c.ensureGroup(ctx); err != nil {
		errs <- err
		close(messages)
		close(errs)
		return messages, errs
	}

	go func() {
		defer close(messages)
		defer close(errs)

		for ctx.Err() == nil {
			streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
				Group:    c.group,
				Consumer: c.consumer,
				Streams:  []string{c.stream, ">"},
				Count:    readCount,
				Block:    readBlock,
			}).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				if ctx.Err() != nil {
					return
				}
				sendErr(ctx, errs, fmt.Errorf("read stream: %w", err))
				pause(ctx, retryPause)
				continue
			}

			for _, s := range streams {
				for _, xmsg := range s.Messages {
					msg, err := parseMessage(s.Stream, xmsg)
					if err != nil {
						sendErr(ctx, errs, fmt.Errorf("parse message %s: %w", xmsg.ID, err))
						continue
					}
					select {
					case messages <- msg:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return messages, errs
}

// Ack acknowledges a processed message.
func (c *Consumer) Ack(ctx context.Context, messageID string) error {
	if err := c.client.XAck(ctx, c.stream, c.group, messageID).Err(); err != nil {
		return fmt.Errorf("ack %s: %w", messageID, err)
	}
	return nil
}

// Run consumes the stream and hands every opportunity to handle, acking each
// message once handled. It blocks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context, handle func(domain.Opportunity)) error {
	messages, errs := c.Consume(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			c.logger.Warn().Err(err).Msg("stream error")
		case msg, ok := <-messages:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return errors.New("stream reader stopped")
			}
			handle(msg.Opportunity)
			if err := c.Ack(ctx, msg.ID); err != nil {
				c.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("ack failed")
			}
		}
	}
}

func (c *Consumer) ensureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group: %w", err)
	}
	return nil
}

func parseMessage(streamKey string, xmsg redis.XMessage) (Message, error) {
	raw, ok := xmsg.Values[payloadField].(string)
	if !ok {
		return Message{}, fmt.Errorf("missing %q field", payloadField)
	}

	var opp domain.Opportunity
	if err := json.Unmarshal([]byte(raw), &opp); err != nil {
		return Message{}, fmt.Errorf("decode opportunity: %w", err)
	}
	if opp.ID == "" {
		opp.ID = domain.ID(xmsg.ID)
	}

	return Message{ID: xmsg.ID, StreamKey: streamKey, Opportunity: opp}, nil
}

func sendErr(ctx context.Context, errs chan<- error, err error) {
	select {
	case errs <- err:
	case <-ctx.Done():
	default:
	}
}

func pause(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
