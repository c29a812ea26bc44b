// Package broadcast fans reactor domain events out to observers such as the
// control socket event stream.
package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/xaionaro-go/eventbus"
)

// queueSize is how many undelivered events a subscriber may hold before
// further events for it are dropped.
const queueSize = 64

// topic keys the bus by reactor topic name. Every value travels as an any so
// one subscription type serves all topics.
type topic string

// Broadcaster publishes events on named topics. It implements
// reactor.Publisher.
type Broadcaster struct {
	bus    *eventbus.EventBus
	logger *slog.Logger
}

func New(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{bus: eventbus.New(), logger: logger.With("component", "broadcast")}
}

// Publish hands each arg to every subscriber of name. It never blocks: a
// subscriber whose queue is full misses the event.
func (b *Broadcaster) Publish(name string, args ...any) {
	for _, arg := range args {
		res := eventbus.SendEventWithCustomTopic[topic, any](context.Background(), b.bus, topic(name), arg)
		if dropped := res.DropCountImmediate + res.DropCountDeferred; dropped > 0 {
			b.logger.Warn("subscriber not draining, event dropped", "topic", name, "dropped", dropped)
		}
	}
}

// subscribe registers on name and returns the subscription's event channel,
// which closes after ctx is done.
func (b *Broadcaster) subscribe(ctx context.Context, name string) (<-chan any, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", name, err)
	}
	sub := eventbus.SubscribeWithCustomTopic[topic, any](
		ctx, b.bus, topic(name),
		eventbus.OptionQueueSize(queueSize),
		eventbus.OptionOnOverflow(eventbus.OnOverflowDrop{}),
	)
	if sub == nil {
		return nil, fmt.Errorf("subscribe to %s: %w", name, context.Cause(ctx))
	}
	events := sub.EventChan()
	go func() {
		<-ctx.Done()
		sub.Finish(context.Background())
	}()
	return events, nil
}

// Subscribe returns a channel receiving every T published on name until ctx
// is done. Values of another type published on the same topic are skipped.
func Subscribe[T any](ctx context.Context, b *Broadcaster, name string) (<-chan T, error) {
	events, err := b.subscribe(ctx, name)
	if err != nil {
		return nil, err
	}
	out := make(chan T)
	go func() {
		defer close(out)
		for v := range events {
			in, ok := v.(T)
			if !ok {
				b.logger.Debug("unexpected event type", "topic", name, "type", fmt.Sprintf("%T", v))
				continue
			}
			select {
			case out <- in:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}

// Notice is one published value tagged with its topic.
type Notice struct {
	Topic string `json:"topic"`
	Data  any    `json:"data"`
}

// Watch merges every value published on topics into one channel until ctx
// is done. The channel closes once all topic subscriptions have ended.
func (b *Broadcaster) Watch(ctx context.Context, topics ...string) (<-chan Notice, error) {
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan Notice)
	var wg sync.WaitGroup
	for _, name := range topics {
		events, err := b.subscribe(ctx, name)
		if err != nil {
			cancel()
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for v := range events {
				select {
				case out <- Notice{Topic: name, Data: v}:
				case <-ctx.Done():
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		cancel()
		close(out)
	}()
	return out, nil
}
