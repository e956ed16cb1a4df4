// Package bus is the in-process publish/subscribe channel that keeps
// independently owned views of the session and the cart in step.
package bus

import (
	"sort"
	"sync"

	"github.com/dtroode/ayurveda-storefront/internal/logger"
	"github.com/dtroode/ayurveda-storefront/internal/model"
)

type Topic string

const (
	TopicCartUpdated     Topic = "cartUpdated"
	TopicCartItemRemoved Topic = "cartItemRemoved"
	TopicUserLogin       Topic = "userLogin"
	TopicUserLogout      Topic = "userLogout"
	TopicSellerLogin     Topic = "sellerLogin"
	TopicSellerLogout    Topic = "sellerLogout"
	// TopicStorage carries writes made by other processes sharing the store.
	TopicStorage Topic = "storage"
)

// Event is delivered to subscribers. Exactly one payload matches the topic:
// Cart for cart topics, Session for login/logout, Storage for storage.
type Event struct {
	Topic   Topic
	Cart    *model.CartChange
	Session *model.SessionChange
	Storage *model.Change
}

type Handler func(Event)

type Bus struct {
	mu     sync.RWMutex
	subs   map[Topic]map[uint64]Handler
	nextID uint64
	logger *logger.Logger
}

func New(logger *logger.Logger) *Bus {
	return &Bus{
		subs:   make(map[Topic]map[uint64]Handler),
		logger: logger,
	}
}

// Subscription is released with Unsubscribe; calling it more than once is harmless.
type Subscription struct {
	bus    *Bus
	id     uint64
	topics []Topic
	once   sync.Once
}

// Subscribe registers h for every given topic.
func (b *Bus) Subscribe(h Handler, topics ...Topic) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{bus: b, id: b.nextID, topics: topics}
	for _, t := range topics {
		if b.subs[t] == nil {
			b.subs[t] = make(map[uint64]Handler)
		}
		b.subs[t][sub.id] = h
	}
	return sub
}

func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		defer s.bus.mu.Unlock()
		for _, t := range s.topics {
			delete(s.bus.subs[t], s.id)
			if len(s.bus.subs[t]) == 0 {
				delete(s.bus.subs, t)
			}
		}
	})
}

// Listeners reports how many subscriptions currently receive topic.
func (b *Bus) Listeners(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

// Publish calls every handler of e.Topic on the calling goroutine, in
// subscription order. Handlers may subscribe or unsubscribe while running.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	ids := make([]uint64, 0, len(b.subs[e.Topic]))
	handlers := make(map[uint64]Handler, len(b.subs[e.Topic]))
	for id, h := range b.subs[e.Topic] {
		ids = append(ids, id)
		handlers[id] = h
	}
	b.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		b.deliver(handlers[id], e)
	}
}

func (b *Bus) deliver(h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Bus: handler panicked", "topic", e.Topic, "panic", r)
		}
	}()
	h(e)
}

func (b *Bus) PublishCart(topic Topic, change model.CartChange) {
	b.Publish(Event{Topic: topic, Cart: &change})
}

func (b *Bus) PublishSession(topic Topic, change model.SessionChange) {
	b.Publish(Event{Topic: topic, Session: &change})
}

func (b *Bus) PublishStorage(change model.Change) {
	b.Publish(Event{Topic: TopicStorage, Storage: &change})
}
