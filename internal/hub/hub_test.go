package hub

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airportmath/internal/departure"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startHub(t *testing.T, interval time.Duration) (*Hub, context.CancelFunc) {
	t.Helper()
	h := NewHub(departure.NewCalculator(departure.FixedClock(testNow)), interval, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h, cancel
}

func receive(t *testing.T, c *Client) StatusMessage {
	t.Helper()
	select {
	case data, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		var msg StatusMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no status message received")
		return StatusMessage{}
	}
}

func TestBuildStatus(t *testing.T) {
	calc := departure.NewCalculator(departure.FixedClock(testNow))

	msg := BuildStatus(calc, []Watch{
		{Mode: "driving-car", LeaveTime: testNow.Add(5*time.Hour + 14*time.Minute)},
		{Mode: "foot-walking", LeaveTime: testNow.Add(-90 * time.Minute)},
		{Mode: "cycling-regular", LeaveTime: testNow.Add(25 * time.Minute)},
	})

	assert.Equal(t, "status", msg.Type)
	assert.True(t, testNow.Equal(msg.Payload.ServerTime), "server time follows the evaluator clock")
	require.Len(t, msg.Payload.Statuses, 3)
	assert.Equal(t, "Leave in 5h 14m", msg.Payload.Statuses[0].Summary)
	assert.Equal(t, 314, msg.Payload.Statuses[0].TimeUntil.TotalMinutes)
	assert.Equal(t, "You should have left 1h 30m ago!", msg.Payload.Statuses[1].Summary)
	assert.True(t, msg.Payload.Statuses[1].TimeUntil.IsOverdue)
	assert.Equal(t, "Leave in 25 minutes!", msg.Payload.Statuses[2].Summary)
}

func TestHub_TicksToWatchingClients(t *testing.T) {
	h, _ := startHub(t, 10*time.Millisecond)

	watching := NewClient("watching", 8)
	watching.SetWatches([]Watch{{Mode: "driving-car", LeaveTime: testNow.Add(time.Hour)}})
	idle := NewClient("idle", 8)

	h.Register(watching)
	h.Register(idle)
	require.Equal(t, 2, h.ClientCount())

	msg := receive(t, watching)
	require.Len(t, msg.Payload.Statuses, 1)
	assert.Equal(t, "driving-car", msg.Payload.Statuses[0].Mode)
	assert.Equal(t, "Leave in 1h 0m", msg.Payload.Statuses[0].Summary)

	assert.Empty(t, idle.Send, "clients without watches get nothing")
	assert.Positive(t, h.Sent())
}

func TestHub_PushDeliversImmediately(t *testing.T) {
	h, _ := startHub(t, time.Hour)

	c := NewClient("c1", 8)
	h.Register(c)
	require.Equal(t, 1, h.ClientCount())

	c.SetWatches([]Watch{{Mode: "public-transport", LeaveTime: testNow.Add(45 * time.Minute)}})
	h.Push(c)

	msg := receive(t, c)
	assert.Equal(t, "Leave in 45 minutes!", msg.Payload.Statuses[0].Summary)
}

func TestHub_PushIgnoresUnregisteredClient(t *testing.T) {
	h, _ := startHub(t, time.Hour)

	c := NewClient("stranger", 8)
	c.SetWatches([]Watch{{Mode: "driving-car", LeaveTime: testNow}})
	h.Push(c)

	assert.Empty(t, c.Send)
}

func TestHub_SendTo(t *testing.T) {
	h, _ := startHub(t, time.Hour)

	c := NewClient("c1", 1)
	assert.False(t, h.SendTo(c, []byte(`{"type":"pong"}`)), "not registered yet")

	h.Register(c)
	require.Equal(t, 1, h.ClientCount())

	assert.True(t, h.SendTo(c, []byte(`{"type":"pong"}`)))
	assert.False(t, h.SendTo(c, []byte(`{"type":"pong"}`)), "buffer full")
	assert.Equal(t, `{"type":"pong"}`, string(<-c.Send))
}

func TestHub_FullBufferDrops(t *testing.T) {
	h, _ := startHub(t, time.Hour)

	c := NewClient("slow", 1)
	c.SetWatches([]Watch{{Mode: "driving-car", LeaveTime: testNow}})
	h.Register(c)
	require.Equal(t, 1, h.ClientCount())

	h.Push(c)
	h.Push(c)

	assert.Equal(t, int64(1), h.Sent())
	assert.Equal(t, int64(1), h.Dropped())
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	h, _ := startHub(t, time.Hour)

	c := NewClient("c1", 1)
	h.Register(c)
	require.Equal(t, 1, h.ClientCount())

	h.Unregister(c)
	assert.Zero(t, h.ClientCount())
	h.Unregister(c)

	_, ok := <-c.Send
	assert.False(t, ok)
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	h, cancel := startHub(t, time.Hour)

	c := NewClient("c1", 1)
	h.Register(c)
	require.Equal(t, 1, h.ClientCount())

	cancel()
	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 5*time.Millisecond)

	_, ok := <-c.Send
	assert.False(t, ok)

	late := NewClient("late", 1)
	h.Register(late)
	_, ok = <-late.Send
	assert.False(t, ok, "registering after shutdown closes the client")
	assert.Zero(t, h.ClientCount())
}

func TestClient_WatchesAreCopied(t *testing.T) {
	c := NewClient("c1", 1)
	in := []Watch{{Mode: "driving-car", LeaveTime: testNow}}
	c.SetWatches(in)
	in[0].Mode = "changed"

	out := c.Watches()
	assert.Equal(t, "driving-car", out[0].Mode)
	out[0].Mode = "changed"
	assert.Equal(t, "driving-car", c.Watches()[0].Mode)
}
