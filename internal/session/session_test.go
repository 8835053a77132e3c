package session_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theplebdev/tmichat/internal/auth"
	"github.com/theplebdev/tmichat/internal/irc"
	"github.com/theplebdev/tmichat/internal/logger"
	"github.com/theplebdev/tmichat/internal/session"
)

type frame struct {
	data []byte
	text bool
	err  error
}

// fakeConn is a scripted chat socket. Reads are fed through a channel;
// writes and close calls are recorded for assertions.
type fakeConn struct {
	frames chan frame

	mu       sync.Mutex
	writes   []string
	closed   bool
	closeErr error

	done chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		frames: make(chan frame, 16),
		done:   make(chan struct{}),
	}
}

func (c *fakeConn) ReadLine(ctx context.Context) ([]byte, bool, error) {
	select {
	case f := <-c.frames:
		return f.data, f.text, f.err
	case <-c.done:
		return nil, false, io.EOF
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

func (c *fakeConn) WriteLine(_ context.Context, line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("write on closed socket")
	}
	c.writes = append(c.writes, line)
	return nil
}

func (c *fakeConn) Close(int, string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
	}
	return c.closeErr
}

func (c *fakeConn) serve(line string) {
	c.frames <- frame{data: []byte(line), text: true}
}

func (c *fakeConn) fail(err error) {
	c.frames <- frame{err: err}
}

func (c *fakeConn) sentLines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.writes...)
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// fakeDialer hands out a fresh fakeConn per Dial and records the order of
// dials relative to closes on earlier conns.
type fakeDialer struct {
	mu    sync.Mutex
	conns []*fakeConn
	err   error
}

func (d *fakeDialer) Dial(context.Context, string) (session.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	conn := newFakeConn()
	d.conns = append(d.conns, conn)
	return conn, nil
}

func (d *fakeDialer) conn(i int) *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[i]
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.conns)
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.Setup(logger.Config{
		Level:   slog.LevelError,
		Colored: false,
	})
	require.NoError(t, err)
	return log
}

func newTestManager(t *testing.T) (*session.Manager, *fakeDialer) {
	t.Helper()
	dialer := &fakeDialer{}
	creds := &auth.StaticSource{Token: "abc123", User: "theplebdev"}
	mgr := session.NewManagerWithDialer(dialer, creds, testLogger(t))
	return mgr, dialer
}

func waitEvent(t *testing.T, events <-chan irc.Event) irc.Event {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "event stream closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestRunSendsHandshakeInOrder(t *testing.T) {
	t.Parallel()

	mgr, dialer := newTestManager(t)
	defer mgr.Close()

	require.NoError(t, mgr.Run(context.Background(), "somechannel"))

	want := []string{
		"CAP REQ :twitch.tv/tags twitch.tv/commands",
		"PASS oauth:abc123",
		"NICK theplebdev",
		"JOIN #somechannel",
	}
	assert.Equal(t, want, dialer.conn(0).sentLines())
	assert.Equal(t, session.StateOpen, mgr.State())
	assert.Equal(t, "somechannel", mgr.Channel())
}

func TestRunTwiceClosesPriorSocketFirst(t *testing.T) {
	t.Parallel()

	mgr, dialer := newTestManager(t)
	defer mgr.Close()

	require.NoError(t, mgr.Run(context.Background(), "first"))
	first := dialer.conn(0)

	require.NoError(t, mgr.Run(context.Background(), "second"))

	// The first socket was closed before the second dial happened, so by
	// the time conn(1) exists, conn(0) is already down.
	require.Equal(t, 2, dialer.dialCount())
	assert.True(t, first.isClosed())
	assert.False(t, dialer.conn(1).isClosed())
	assert.Equal(t, "second", mgr.Channel())
	assert.Equal(t, session.StateOpen, mgr.State())
}

func TestRunEmptyChannel(t *testing.T) {
	t.Parallel()

	mgr, _ := newTestManager(t)
	defer mgr.Close()

	require.Error(t, mgr.Run(context.Background(), ""))
	assert.Equal(t, session.StateIdle, mgr.State())
}

func TestRunDialFailure(t *testing.T) {
	t.Parallel()

	dialer := &fakeDialer{err: errors.New("connection refused")}
	creds := &auth.StaticSource{Token: "abc123", User: "theplebdev"}
	mgr := session.NewManagerWithDialer(dialer, creds, testLogger(t))
	defer mgr.Close()

	err := mgr.Run(context.Background(), "somechannel")
	require.Error(t, err)
	assert.Equal(t, session.StateIdle, mgr.State())
	assert.False(t, mgr.SendMessage(context.Background(), "hi"))
}

func TestCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	mgr, dialer := newTestManager(t)
	require.NoError(t, mgr.Run(context.Background(), "somechannel"))

	mgr.Close()
	mgr.Close()

	assert.True(t, dialer.conn(0).isClosed())
	assert.Equal(t, session.StateIdle, mgr.State())

	_, open := <-mgr.Events()
	assert.False(t, open, "event stream should be closed")

	// Run after Close is rejected.
	require.Error(t, mgr.Run(context.Background(), "somechannel"))
}

func TestCloseWithoutRun(t *testing.T) {
	t.Parallel()

	mgr, _ := newTestManager(t)
	mgr.Close()
	assert.Equal(t, session.StateIdle, mgr.State())
}

func TestSendMessage(t *testing.T) {
	t.Parallel()

	mgr, dialer := newTestManager(t)
	defer mgr.Close()

	assert.False(t, mgr.SendMessage(context.Background(), "too early"))

	require.NoError(t, mgr.Run(context.Background(), "somechannel"))
	require.True(t, mgr.SendMessage(context.Background(), "hello world"))

	lines := dialer.conn(0).sentLines()
	assert.Equal(t, "PRIVMSG #somechannel :hello world", lines[len(lines)-1])
}

func TestPingAnsweredNotPublished(t *testing.T) {
	t.Parallel()

	mgr, dialer := newTestManager(t)
	defer mgr.Close()

	require.NoError(t, mgr.Run(context.Background(), "somechannel"))
	conn := dialer.conn(0)

	conn.serve("PING :tmi.twitch.tv")
	conn.serve("@color=#FF0000;display-name=bob;mod=0;subscriber=1;user-id=123;tmi-sent-ts=1700000000000;user-type= :bob!bob@bob.tmi.twitch.tv PRIVMSG #somechannel :hello world")

	ev := waitEvent(t, mgr.Events())
	msg, ok := ev.(*irc.UserMessage)
	require.True(t, ok, "PING must not reach the stream; got %T", ev)
	assert.Equal(t, "hello world", msg.Text)

	require.Eventually(t, func() bool {
		for _, line := range conn.sentLines() {
			if line == "PONG :tmi.twitch.tv" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestMalformedLinesDropped(t *testing.T) {
	t.Parallel()

	mgr, dialer := newTestManager(t)
	defer mgr.Close()

	require.NoError(t, mgr.Run(context.Background(), "somechannel"))
	conn := dialer.conn(0)

	conn.serve(":tmi.twitch.tv 001 theplebdev :Welcome, GLHF!")
	conn.frames <- frame{data: []byte{0x01, 0x02}, text: false}
	conn.serve(":theplebdev!theplebdev@theplebdev.tmi.twitch.tv JOIN #somechannel")

	ev := waitEvent(t, mgr.Events())
	join, ok := ev.(*irc.Join)
	require.True(t, ok, "expected the JOIN event, got %T", ev)
	assert.Equal(t, "somechannel", join.Channel)
	assert.Equal(t, "Connected to chat!", join.Status)
}

func TestBatchedFrameSplitsIntoLines(t *testing.T) {
	t.Parallel()

	mgr, dialer := newTestManager(t)
	defer mgr.Close()

	require.NoError(t, mgr.Run(context.Background(), "somechannel"))
	conn := dialer.conn(0)

	conn.serve(":theplebdev!theplebdev@theplebdev.tmi.twitch.tv JOIN #somechannel\r\n@msg-id=slow_on :tmi.twitch.tv NOTICE #somechannel :This room is now in slow mode.\r\n")

	ev := waitEvent(t, mgr.Events())
	require.IsType(t, &irc.Join{}, ev)

	ev = waitEvent(t, mgr.Events())
	notice, ok := ev.(*irc.RoomNotice)
	require.True(t, ok, "expected the NOTICE event, got %T", ev)
	assert.Equal(t, "This room is now in slow mode.", notice.Text)
}

func TestTransportFailurePublishesNoticeAndIdles(t *testing.T) {
	t.Parallel()

	mgr, dialer := newTestManager(t)
	defer mgr.Close()

	require.NoError(t, mgr.Run(context.Background(), "somechannel"))
	dialer.conn(0).fail(errors.New("connection reset by peer"))

	ev := waitEvent(t, mgr.Events())
	notice, ok := ev.(*irc.RoomNotice)
	require.True(t, ok, "expected a connection notice, got %T", ev)
	assert.Equal(t, "Connection lost", notice.Text)

	require.Eventually(t, func() bool {
		return mgr.State() == session.StateIdle
	}, 2*time.Second, 10*time.Millisecond)
	assert.False(t, mgr.SendMessage(context.Background(), "hi"))
}

func TestRestartRedialsLastChannel(t *testing.T) {
	t.Parallel()

	mgr, dialer := newTestManager(t)
	defer mgr.Close()

	require.NoError(t, mgr.Run(context.Background(), "somechannel"))
	dialer.conn(0).fail(errors.New("connection reset by peer"))

	// Drain the disconnect notice before reconnecting.
	waitEvent(t, mgr.Events())
	require.Eventually(t, func() bool {
		return mgr.State() == session.StateIdle
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, mgr.Restart(context.Background()))
	require.Equal(t, 2, dialer.dialCount())
	assert.Equal(t, "JOIN #somechannel", dialer.conn(1).sentLines()[3])
}

func TestRestartWithoutRun(t *testing.T) {
	t.Parallel()

	mgr, _ := newTestManager(t)
	defer mgr.Close()

	err := mgr.Restart(context.Background())
	require.ErrorIs(t, err, session.ErrNoChannel)
}
