package mq

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const channel = "lifecycle-events"

// LifecycleEvent announces a booking lifecycle change on the event bus.
type LifecycleEvent struct {
	BookingID string    `json:"bookingId"`
	Status    string    `json:"status"`
	Actor     string    `json:"actor"`
	At        time.Time `json:"at"`
}

// Emitter publishes lifecycle events to Redis. A nil Emitter (or one with
// no Redis connection) drops events silently; the bus is advisory.
type Emitter struct {
	Conn *redis.Client
}

func NewEmitter(conn *redis.Client) *Emitter {
	if conn == nil {
		return nil
	}
	return &Emitter{Conn: conn}
}

func (e *Emitter) Emit(ctx context.Context, event LifecycleEvent) {
	if e == nil || e.Conn == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[Emit] Failed to marshal event: %v", err)
		return
	}
	if err := e.Conn.Publish(ctx, channel, data).Err(); err != nil {
		log.Printf("[Emit] Failed to publish event: %v", err)
	}
}

// StartNotifier consumes the event channel and hands each event to fn.
// Runs until ctx is cancelled or the subscription's channel closes.
func (e *Emitter) StartNotifier(ctx context.Context, fn func(LifecycleEvent)) {
	if e == nil || e.Conn == nil {
		return
	}
	sub := e.Conn.Subscribe(ctx, channel)
	defer sub.Close()

	go func() {
		<-ctx.Done()
		sub.Close()
	}()

	for msg := range sub.Channel() {
		var event LifecycleEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			log.Printf("[Notifier] Bad event payload: %v", err)
			continue
		}
		fn(event)
	}
}
