package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(ch <-chan Change, n int, t *testing.T) []Change {
	t.Helper()
	out := make([]Change, 0, n)
	for len(out) < n {
		select {
		case c := <-ch:
			out = append(out, c)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for change %d of %d", len(out)+1, n)
		}
	}
	return out
}

func TestPublishDeliversToTableSubscriber(t *testing.T) {
	hub := NewHub()
	got := make(chan Change, 8)

	sub := hub.Subscribe("wallets", nil, func(c Change) { got <- c })
	defer sub.Unsubscribe()

	hub.Publish(Change{Op: OpUpdate, Table: "wallets", Row: "row"})
	hub.Publish(Change{Op: OpInsert, Table: "goals", Row: "other"})

	changes := collect(got, 1, t)
	assert.Equal(t, "wallets", changes[0].Table)
	assert.Equal(t, OpUpdate, changes[0].Op)

	select {
	case c := <-got:
		t.Fatalf("unexpected change for table %q", c.Table)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEmptyTableMatchesAll(t *testing.T) {
	hub := NewHub()
	got := make(chan Change, 8)

	sub := hub.Subscribe("", nil, func(c Change) { got <- c })
	defer sub.Unsubscribe()

	hub.Publish(Change{Op: OpInsert, Table: "wallets"})
	hub.Publish(Change{Op: OpInsert, Table: "goals"})

	changes := collect(got, 2, t)
	require.Len(t, changes, 2)
}

func TestFilterNarrowsDelivery(t *testing.T) {
	hub := NewHub()
	got := make(chan Change, 8)

	sub := hub.Subscribe("wallets", func(c Change) bool {
		return c.Op == OpDelete
	}, func(c Change) { got <- c })
	defer sub.Unsubscribe()

	hub.Publish(Change{Op: OpUpdate, Table: "wallets"})
	hub.Publish(Change{Op: OpDelete, Table: "wallets"})

	changes := collect(got, 1, t)
	assert.Equal(t, OpDelete, changes[0].Op)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub()
	got := make(chan Change, 8)

	sub := hub.Subscribe("wallets", nil, func(c Change) { got <- c })
	sub.Unsubscribe()

	hub.Publish(Change{Op: OpInsert, Table: "wallets"})

	select {
	case <-got:
		t.Fatal("received change after unsubscribe")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeTwiceIsSafe(t *testing.T) {
	hub := NewHub()

	sub := hub.Subscribe("wallets", nil, func(Change) {})
	sub.Unsubscribe()
	sub.Unsubscribe()
}

func TestPublishToNoSubscribersIsNoop(t *testing.T) {
	hub := NewHub()
	hub.Publish(Change{Op: OpInsert, Table: "wallets"})
}
