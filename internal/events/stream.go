package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Saman-dev12/civic/internal/lifecycle"
)

// Task types carried on the stream besides lifecycle events.
const (
	TaskOverdueSweep      = "overdue_sweep"
	TaskStalePendingSweep = "stale_pending_sweep"
	TaskSessionCleanup    = "session_cleanup"
)

const (
	fieldType    = "type"
	fieldPayload = "payload"
)

// Message is one decoded stream entry.
type Message struct {
	ID      string
	Type    string
	Payload []byte
}

// Encode builds the stream fields for a message of the given type.
func Encode(msgType string, payload any) (map[string]any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", msgType, err)
	}
	return map[string]any{
		fieldType:    msgType,
		fieldPayload: string(body),
	}, nil
}

func Decode(msg redis.XMessage) (Message, error) {
	msgType, ok := msg.Values[fieldType].(string)
	if !ok || msgType == "" {
		return Message{}, fmt.Errorf("message %s has no type", msg.ID)
	}
	out := Message{ID: msg.ID, Type: msgType}
	if raw, ok := msg.Values[fieldPayload].(string); ok {
		out.Payload = []byte(raw)
	}
	return out, nil
}

// DecodeEvent unpacks a lifecycle event payload.
func (m Message) DecodeEvent() (lifecycle.Event, error) {
	var e lifecycle.Event
	if err := json.Unmarshal(m.Payload, &e); err != nil {
		return lifecycle.Event{}, fmt.Errorf("decode %s: %w", m.Type, err)
	}
	return e, nil
}

var _ lifecycle.Publisher = (*StreamPublisher)(nil)

// StreamPublisher appends lifecycle events and scheduled tasks to a Redis
// stream, trimmed approximately to maxLen entries.
type StreamPublisher struct {
	client redis.Cmdable
	stream string
	maxLen int64
}

func NewStreamPublisher(client redis.Cmdable, stream string, maxLen int64) *StreamPublisher {
	return &StreamPublisher{client: client, stream: stream, maxLen: maxLen}
}

func (p *StreamPublisher) Publish(ctx context.Context, e lifecycle.Event) error {
	return p.Enqueue(ctx, string(e.Type), e)
}

func (p *StreamPublisher) Enqueue(ctx context.Context, msgType string, payload any) error {
	values, err := Encode(msgType, payload)
	if err != nil {
		return err
	}
	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: values,
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return nil
}
