package queue

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Saman-dev12/civic/internal/config"
	"github.com/Saman-dev12/civic/internal/events"
)

type MessageHandler interface {
	Handle(ctx context.Context, msg events.Message) error
}

type Consumer struct {
	client  *redis.Client
	cfg     config.EventsConfig
	logger  zerolog.Logger
	handler MessageHandler
}

func NewConsumer(client *redis.Client, cfg config.EventsConfig, logger zerolog.Logger, handler MessageHandler) *Consumer {
	return &Consumer{
		client:  client,
		cfg:     cfg,
		logger:  logger,
		handler: handler,
	}
}

// EnsureGroup creates the consumer group, and the stream with it, when
// missing.
func (c *Consumer) EnsureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.cfg.Stream, c.cfg.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

func (c *Consumer) Start(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.ClaimInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := c.read(ctx); err != nil && ctx.Err() == nil {
				c.logger.Error().Err(err).Msg("stream read error")
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(2 * time.Second):
				}
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.claimStalled(ctx); err != nil && ctx.Err() == nil {
				c.logger.Error().Err(err).Msg("claim stalled failed")
			}
		default:
		}
	}
}

func (c *Consumer) read(ctx context.Context) error {
	result, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.Group,
		Consumer: c.cfg.Consumer,
		Streams:  []string{c.cfg.Stream, ">"},
		Count:    10,
		Block:    c.cfg.BlockTimeout,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	for _, stream := range result {
		for _, msg := range stream.Messages {
			c.process(ctx, msg, "")
		}
	}
	return nil
}

// process handles one entry and acknowledges it unless the handler failed,
// leaving it pending for a later claim. Entries that cannot be decoded are
// acknowledged and dropped.
func (c *Consumer) process(ctx context.Context, raw redis.XMessage, origin string) {
	msg, err := events.Decode(raw)
	if err != nil {
		c.logger.Warn().Err(err).Str("message_id", raw.ID).Msg("dropping malformed message")
		c.ack(ctx, raw.ID)
		return
	}

	if err := c.handler.Handle(ctx, msg); err != nil {
		c.logger.Error().
			Err(err).
			Str("message_id", msg.ID).
			Str("type", msg.Type).
			Str("origin", origin).
			Msg("handle message failed")
		return
	}
	c.ack(ctx, msg.ID)
}

func (c *Consumer) ack(ctx context.Context, id string) {
	if err := c.client.XAck(ctx, c.cfg.Stream, c.cfg.Group, id).Err(); err != nil {
		c.logger.Error().Err(err).Str("message_id", id).Msg("ack failed")
	}
}

func (c *Consumer) claimStalled(ctx context.Context) error {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: c.cfg.Stream,
		Group:  c.cfg.Group,
		Start:  "-",
		End:    "+",
		Count:  10,
	}).Result()
	if err != nil {
		return err
	}

	for _, entry := range pending {
		if entry.Idle < c.cfg.VisibilityTimeout {
			continue
		}
		msgs, err := c.client.XClaim(ctx, &redis.XClaimArgs{
			Stream:   c.cfg.Stream,
			Group:    c.cfg.Group,
			Consumer: c.cfg.Consumer,
			MinIdle:  c.cfg.VisibilityTimeout,
			Messages: []string{entry.ID},
		}).Result()
		if err != nil {
			c.logger.Error().Err(err).Str("message_id", entry.ID).Msg("claim error")
			continue
		}
		for _, msg := range msgs {
			c.process(ctx, msg, "claimed")
		}
	}
	return nil
}
