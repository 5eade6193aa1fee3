package pubsub

import (
	"sync"
)

// PubSub fans values out to the subscribers of a topic. Slow subscribers miss
// values instead of blocking the publisher.
type PubSub[T any] struct {
	mu     sync.Mutex
	subs   map[string]map[int]chan T
	nextID int
}

func NewPubSub[T any]() *PubSub[T] {
	return &PubSub[T]{
		subs: make(map[string]map[int]chan T),
	}
}

// Subscribe returns the channel of a topic and the function that cancels the
// subscription and closes the channel.
func (ps *PubSub[T]) Subscribe(topic string) (<-chan T, func()) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ch := make(chan T, 1)
	id := ps.nextID
	ps.nextID++
	if ps.subs[topic] == nil {
		ps.subs[topic] = make(map[int]chan T)
	}
	ps.subs[topic][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			ps.mu.Lock()
			defer ps.mu.Unlock()
			delete(ps.subs[topic], id)
			close(ch)
		})
	}
}

// Publish returns the number of subscribers that received data.
func (ps *PubSub[T]) Publish(topic string, data T) int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	sent := 0
	for _, ch := range ps.subs[topic] {
		select {
		case ch <- data:
			sent++
		default:
		}
	}
	return sent
}

func (ps *PubSub[T]) Subscribers(topic string) int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return len(ps.subs[topic])
}
