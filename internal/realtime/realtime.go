package realtime

import (
	"log"
	"sync"
)

type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Change is one tagged row change as delivered to subscribers.
type Change struct {
	Op    Op     `json:"op"`
	Table string `json:"table"`
	Row   any    `json:"row"`
}

// Handler receives matching changes. Handlers run on the subscription's
// own pump goroutine, never on the publisher's.
type Handler func(Change)

// Filter narrows a subscription beyond its table. nil accepts everything.
type Filter func(Change) bool

type subscription struct {
	table  string
	filter Filter
	ch     chan Change
	once   sync.Once
	done   chan struct{}
}

// Subscription is a live registration on a Hub. Unsubscribe stops
// delivery; handler calls already in flight may still land, but nothing
// is delivered afterwards.
type Subscription struct {
	hub *Hub
	id  uint64
	sub *subscription
}

func (s *Subscription) Unsubscribe() {
	s.sub.once.Do(func() {
		s.hub.remove(s.id)
		close(s.sub.done)
	})
}

// Hub fans row changes out to subscribers in-process. Publishing never
// blocks: a subscriber that cannot keep up has changes dropped, and is
// expected to reconcile by reloading (the reload-after-mutation fallback).
type Hub struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]*subscription
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]*subscription)}
}

// Subscribe registers a handler for one table. An empty table matches all
// tables.
func (h *Hub) Subscribe(table string, filter Filter, fn Handler) *Subscription {
	sub := &subscription{
		table:  table,
		filter: filter,
		ch:     make(chan Change, 256),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.subs[id] = sub
	h.mu.Unlock()

	go func() {
		for {
			select {
			case <-sub.done:
				return
			case c := <-sub.ch:
				fn(c)
			}
		}
	}()

	return &Subscription{hub: h, id: id, sub: sub}
}

// Publish delivers a change to every matching live subscription.
func (h *Hub) Publish(c Change) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs {
		if sub.table != "" && sub.table != c.Table {
			continue
		}
		if sub.filter != nil && !sub.filter(c) {
			continue
		}
		select {
		case sub.ch <- c:
		default:
			log.Printf("realtime: dropping %s change on %q for slow subscriber", c.Op, c.Table)
		}
	}
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}
