package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(c *Client) []Message {
	var out []Message
	for {
		select {
		case raw := <-c.send:
			var m Message
			_ = json.Unmarshal(raw, &m)
			out = append(out, m)
		default:
			return out
		}
	}
}

func TestHubBroadcastsToRoomMembers(t *testing.T) {
	h := NewHub()
	a, b, other := NewClient(nil, 0, nil), NewClient(nil, 0, nil), NewClient(nil, 0, nil)
	for _, c := range []*Client{a, b, other} {
		h.Register(c)
	}
	h.Subscribe(a.ID, "g1")
	h.Subscribe(b.ID, "g1")
	h.Subscribe(other.ID, "g2")

	h.BroadcastToRoom("g1", "timer_tick", map[string]int{"timeRemaining": 3})

	for _, c := range []*Client{a, b} {
		msgs := drain(c)
		require.Len(t, msgs, 1)
		assert.Equal(t, "timer_tick", msgs[0].Type)
	}
	assert.Empty(t, drain(other))

	h.SendTo(other.ID, "error", nil)
	assert.Len(t, drain(other), 1)
	assert.Empty(t, drain(a))
}

func TestHubSubscriptions(t *testing.T) {
	h := NewHub()
	a := NewClient(nil, 0, nil)

	// неизвестное соединение не подписывается
	h.Subscribe(a.ID, "g1")
	assert.Empty(t, h.Members("g1"))

	h.Register(a)
	h.Subscribe(a.ID, "g1")
	h.Subscribe(a.ID, "g2")
	assert.Equal(t, []string{a.ID}, h.Members("g1"))

	h.Unsubscribe(a.ID, "g1")
	assert.Empty(t, h.Members("g1"))

	h.DropRoom("g2")
	assert.Empty(t, h.Members("g2"))

	h.Subscribe(a.ID, "g3")
	h.Unregister(a)
	assert.Empty(t, h.Members("g3"))
	assert.Zero(t, h.Len())

	h.SendTo(a.ID, "ready", nil)
	assert.Empty(t, drain(a))
}

func TestHubDropsSlowClient(t *testing.T) {
	h := NewHub()
	c := NewClient(nil, 0, nil)
	h.Register(c)
	h.Subscribe(c.ID, "g1")

	for i := 0; i < sendBuffer; i++ {
		h.BroadcastToRoom("g1", "timer_tick", i)
	}
	select {
	case <-c.done:
		t.Fatal("closed too early")
	default:
	}

	h.BroadcastToRoom("g1", "timer_tick", "overflow")
	select {
	case <-c.done:
	default:
		t.Fatal("slow client was not closed")
	}

	// после закрытия отправка молча игнорируется
	assert.True(t, c.enqueue([]byte("{}")))
}
