package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/anonchat/internal/backend"
	"github.com/vovakirdan/anonchat/internal/core"
	"github.com/vovakirdan/anonchat/internal/metrics"
	"github.com/vovakirdan/anonchat/internal/proto"
)

// RedisBroker fans messages out through Redis pub/sub so several backend
// instances can serve subscribers of the same room.
type RedisBroker struct {
	client *redis.Client
	prefix string
	log    *zerolog.Logger

	mu   sync.Mutex
	subs map[*subscription]struct{}
	wg   sync.WaitGroup
}

// NewRedisBroker connects to redisURL and verifies the connection.
func NewRedisBroker(ctx context.Context, redisURL string, logger *zerolog.Logger) (*RedisBroker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &RedisBroker{
		client: client,
		prefix: "anonchat",
		log:    logger,
		subs:   make(map[*subscription]struct{}),
	}, nil
}

// roomChannel returns the pub/sub channel for a room's inserts.
func (b *RedisBroker) roomChannel(roomID string) string {
	return fmt.Sprintf("%s:room:%s:messages", b.prefix, roomID)
}

// Publish sends msg to the room channel.
func (b *RedisBroker) Publish(ctx context.Context, msg core.Message) error {
	data, err := json.Marshal(proto.MessageFromCore(msg))
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := b.client.Publish(ctx, b.roomChannel(msg.RoomID), data).Err(); err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// Subscribe returns after Redis confirms the channel subscription.
func (b *RedisBroker) Subscribe(ctx context.Context, roomID string) (backend.Subscription, error) {
	ps := b.client.Subscribe(ctx, b.roomChannel(roomID))
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("confirm subscription: %w", err)
	}

	done := make(chan struct{})
	var sub *subscription
	sub = newSubscription(roomID, func() {
		close(done)
		ps.Close()
		b.mu.Lock()
		delete(b.subs, sub)
		b.mu.Unlock()
		metrics.ActiveSubscriptions.Dec()
	})
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	metrics.ActiveSubscriptions.Inc()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.pump(ps.Channel(), done, sub)
	}()

	return sub, nil
}

func (b *RedisBroker) pump(in <-chan *redis.Message, done <-chan struct{}, sub *subscription) {
	for {
		select {
		case <-done:
			return
		case m, ok := <-in:
			if !ok {
				sub.end(ErrBrokerClosed)
				return
			}
			msg, err := decodePayload(m.Payload)
			if err != nil {
				b.log.Warn().Err(err).Str("channel", m.Channel).Msg("malformed feed payload")
				sub.end(err)
				return
			}
			if !sub.offer(msg) {
				if sub.Err() != nil {
					metrics.SlowConsumers.Inc()
				}
				return
			}
		}
	}
}

// decodePayload turns a published payload back into a message.
func decodePayload(payload string) (core.Message, error) {
	var wire proto.Message
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		return core.Message{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if wire.ID == "" || wire.RoomID == "" {
		return core.Message{}, fmt.Errorf("%w: missing id or room", ErrMalformedPayload)
	}
	return wire.ToCore(), nil
}

// Close closes the Redis client; open subscriptions end with ErrBrokerClosed.
func (b *RedisBroker) Close() error {
	b.mu.Lock()
	open := make([]*subscription, 0, len(b.subs))
	for s := range b.subs {
		open = append(open, s)
	}
	b.mu.Unlock()
	for _, s := range open {
		s.end(ErrBrokerClosed)
	}

	err := b.client.Close()
	b.wg.Wait()
	return err
}
