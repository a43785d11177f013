package orch_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/CodeRoom/internal/app"
	"github.com/dkeye/CodeRoom/internal/app/orch"
	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/stretchr/testify/require"
)

// recordingConn keeps every frame it was sent, decoded as generic JSON.
type recordingConn struct {
	mu     sync.Mutex
	frames []map[string]any
	closed bool
}

func (c *recordingConn) TrySend(f core.Frame) error {
	var m map[string]any
	if err := json.Unmarshal(f, &m); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return core.ErrConnClosed
	}
	c.frames = append(c.frames, m)
	return nil
}

func (c *recordingConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *recordingConn) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.frames))
	for _, f := range c.frames {
		out = append(out, f["type"].(string))
	}
	return out
}

func (c *recordingConn) last() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.frames) == 0 {
		return nil
	}
	return c.frames[len(c.frames)-1]
}

func (c *recordingConn) at(i int) map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames[i]
}

func (c *recordingConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = nil
}

// participantIDs extracts the logical ids of a participants-update or join ack.
func participantIDs(t *testing.T, frame map[string]any) []string {
	t.Helper()
	raw, ok := frame["participants"].([]any)
	require.True(t, ok, "frame has no participants: %v", frame)
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		out = append(out, p.(map[string]any)["logicalId"].(string))
	}
	return out
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	o     *orch.Orchestrator
	clock *fakeClock
	ctx   context.Context
}

func newHarness(t *testing.T, policy app.Policy) *harness {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	rooms := app.NewRoomManager("")
	o := orch.New(app.NewRegistry(), rooms, app.NewPresence(rooms, 5*time.Minute, clock.Now), policy)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = o.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return &harness{o: o, clock: clock, ctx: context.Background()}
}

func (h *harness) connect(t *testing.T, tid domain.TransportID) *recordingConn {
	t.Helper()
	conn := &recordingConn{}
	require.NoError(t, h.o.Connect(h.ctx, tid, conn, func() {}))
	return conn
}

func (h *harness) join(t *testing.T, tid domain.TransportID, room, logical, name string) core.RoomSnapshot {
	t.Helper()
	snap, err := h.o.Join(h.ctx, tid, orch.JoinRequest{RoomID: room, LogicalID: logical, DisplayName: name})
	require.NoError(t, err)
	return snap
}
