// Package session owns the chat socket lifecycle: connect, authenticate,
// receive, send, and reconnect. Incoming lines are parsed into typed events
// and published on an outgoing stream; the stream is lossy under overload but
// preserves the order of delivered events.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/theplebdev/tmichat/internal/auth"
	"github.com/theplebdev/tmichat/internal/constants"
	"github.com/theplebdev/tmichat/internal/irc"
	"github.com/theplebdev/tmichat/internal/logger"
)

// State is the session lifecycle position.
type State int

// Session states.
const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosing
)

var stateNames = map[State]string{
	StateIdle:       "idle",
	StateConnecting: "connecting",
	StateOpen:       "open",
	StateClosing:    "closing",
}

func (s State) String() string { return stateNames[s] }

// ErrNoChannel is returned by Restart when Run has never been called.
var ErrNoChannel = errors.New("no channel to reconnect to")

const disconnectedText = "Connection lost"

// Manager owns one logical chat session. Calling Run while a socket is open
// tears the old socket down before dialing the new one; two live sockets for
// one manager never coexist. The manager never reconnects on its own: the
// caller decides whether a dropped connection is worth retrying.
type Manager struct {
	dialer Dialer
	creds  auth.Source
	log    *logger.Logger
	url    string
	id     string

	mu      sync.Mutex
	state   State
	conn    Conn
	channel string

	// writeMu serializes all socket writes; the handshake sender and
	// SendMessage callers share a single-owner send path.
	writeMu sync.Mutex

	readGroup  *errgroup.Group
	readCancel context.CancelFunc

	// token holds the latest value from the credential stream. The
	// subscription outlives individual Run calls and is cancelled by Close.
	token       atomic.Value
	tokenReady  chan struct{}
	tokenOnce   sync.Once
	tokenCancel context.CancelFunc

	events    chan irc.Event
	closed    bool
	dropped   atomic.Uint64
	closeOnce sync.Once
}

// NewManager creates a session Manager using the real WebSocket transport.
func NewManager(creds auth.Source, log *logger.Logger) *Manager {
	return NewManagerWithDialer(WSDialer{}, creds, log)
}

// NewManagerWithDialer creates a session Manager with a custom transport,
// used by tests.
func NewManagerWithDialer(dialer Dialer, creds auth.Source, log *logger.Logger) *Manager {
	return &Manager{
		dialer:     dialer,
		creds:      creds,
		log:        log,
		url:        constants.ChatWebSocketURL,
		id:         uuid.NewString(),
		state:      StateIdle,
		tokenReady: make(chan struct{}),
		events:     make(chan irc.Event, constants.EventBuffer),
	}
}

// Events returns the outgoing event stream. It is closed by Close.
func (m *Manager) Events() <-chan irc.Event {
	return m.events
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Channel returns the channel passed to the most recent Run.
func (m *Manager) Channel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.channel
}

// Dropped returns how many events have been discarded because the stream
// buffer was full.
func (m *Manager) Dropped() uint64 {
	return m.dropped.Load()
}

// Run connects to the given channel. If a socket is already open it is closed
// first, synchronously, so the prior socket's teardown completes before the
// new dial starts. The auth token is taken from the credential stream, which
// the manager subscribes to once and keeps until Close.
func (m *Manager) Run(ctx context.Context, channel string) error {
	if channel == "" {
		return fmt.Errorf("channel name is empty")
	}

	m.subscribeTokens()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return fmt.Errorf("session is closed")
	}
	m.teardownLocked()
	m.state = StateConnecting
	m.channel = channel
	m.mu.Unlock()

	token, err := m.waitToken(ctx)
	if err != nil {
		m.setState(StateIdle)
		return fmt.Errorf("fetching auth token: %w", err)
	}

	conn, err := m.dialer.Dial(ctx, m.url)
	if err != nil {
		m.setState(StateIdle)
		return fmt.Errorf("opening chat socket: %w", err)
	}

	if err := m.handshake(ctx, conn, token, channel); err != nil {
		conn.Close(constants.CloseCodeManual, constants.CloseReasonManual)
		m.setState(StateIdle)
		return fmt.Errorf("chat handshake: %w", err)
	}

	readCtx, cancel := context.WithCancel(context.Background())
	g, readCtx := errgroup.WithContext(readCtx)

	m.mu.Lock()
	m.conn = conn
	m.state = StateOpen
	m.readGroup = g
	m.readCancel = cancel
	m.mu.Unlock()

	g.Go(func() error {
		return m.readLoop(readCtx, conn, channel)
	})

	m.log.Info("Connected to chat", "channel", channel, "session", m.id)
	return nil
}

// Restart re-runs the session against the channel from the previous Run.
// Reconnection is caller-driven: the manager reports a lost transport but
// never redials by itself.
func (m *Manager) Restart(ctx context.Context) error {
	m.mu.Lock()
	channel := m.channel
	m.mu.Unlock()

	if channel == "" {
		return ErrNoChannel
	}
	return m.Run(ctx, channel)
}

// SendMessage sends a chat line to the joined channel. It reports success
// rather than returning an error: sending outside the Open state, or on a
// failed socket, yields false.
func (m *Manager) SendMessage(ctx context.Context, text string) bool {
	m.mu.Lock()
	conn := m.conn
	channel := m.channel
	open := m.state == StateOpen
	m.mu.Unlock()

	if !open || conn == nil {
		return false
	}

	line := fmt.Sprintf("PRIVMSG #%s :%s", channel, text)
	if err := m.writeLine(ctx, conn, line); err != nil {
		m.log.Warn("Failed to send chat message", "channel", channel, "error", err)
		return false
	}
	return true
}

// Close tears the session down: the token subscription is cancelled, the
// socket is closed with the manual close code, and the event stream is
// closed. Close is idempotent; closing an Idle manager is a no-op.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.state = StateClosing
	m.teardownLocked()
	m.closed = true
	m.state = StateIdle
	if m.tokenCancel != nil {
		m.tokenCancel()
	}
	m.mu.Unlock()

	m.closeOnce.Do(func() { close(m.events) })
	m.log.Info("Chat session closed", "session", m.id)
}

// teardownLocked releases the current socket and waits for its read loop to
// exit, so no goroutine from the old socket outlives the transition. Callers
// hold m.mu.
func (m *Manager) teardownLocked() {
	if m.readCancel != nil {
		m.readCancel()
		m.readCancel = nil
	}
	if m.conn != nil {
		m.conn.Close(constants.CloseCodeManual, constants.CloseReasonManual)
		m.conn = nil
	}
	if m.readGroup != nil {
		g := m.readGroup
		m.readGroup = nil
		// The read loop only blocks on the socket; closing it above
		// unblocks the loop, so this wait is short.
		m.mu.Unlock()
		g.Wait() //nolint:errcheck // loop errors are logged where they occur
		m.mu.Lock()
	}
	if m.state == StateOpen || m.state == StateConnecting {
		m.state = StateIdle
	}
}

// handshake sends the capability request and the PASS/NICK/JOIN sequence, in
// that literal order, through the single-owner send path.
func (m *Manager) handshake(ctx context.Context, conn Conn, token, channel string) error {
	lines := []string{
		"CAP REQ :" + constants.Capabilities,
		"PASS oauth:" + token,
		"NICK " + constants.BotNick,
		"JOIN #" + channel,
	}
	for _, line := range lines {
		if err := m.writeLine(ctx, conn, line); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) writeLine(ctx context.Context, conn Conn, line string) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	return conn.WriteLine(ctx, line)
}

// readLoop dispatches inbound frames to the parsing pipeline until the socket
// fails or the session is torn down. It runs on its own goroutine; parsing is
// pure and synchronous, so no further handoff is needed before publish.
func (m *Manager) readLoop(ctx context.Context, conn Conn, channel string) error {
	for {
		data, text, err := conn.ReadLine(ctx)
		if err != nil {
			if ctx.Err() != nil {
				// Deliberate teardown, not a transport failure.
				return nil
			}
			m.log.Warn("Chat transport closed", "channel", channel, "session", m.id, "error", err)
			m.publish(&irc.RoomNotice{Channel: channel, Text: disconnectedText})
			m.setState(StateIdle)
			return err
		}

		if !text {
			// Binary frames are observed but carry nothing in this protocol.
			m.log.Debug("Ignoring binary frame", "channel", channel, "bytes", len(data))
			continue
		}

		m.handleLine(ctx, conn, channel, string(data))
	}
}

// handleLine parses one raw line and publishes the resulting event. A server
// may batch several CRLF-separated lines into one frame.
func (m *Manager) handleLine(ctx context.Context, conn Conn, channel, raw string) {
	for _, line := range splitLines(raw) {
		event, err := irc.ParseLine(line, channel)
		if err != nil {
			// One bad line must never take the chat down.
			if errors.Is(err, irc.ErrMissingTag) {
				m.log.Warn("Dropping malformed line", "channel", channel, "error", err)
			} else {
				m.log.Debug("Dropping unrecognized line", "channel", channel, "line", line)
			}
			continue
		}

		if _, ok := event.(*irc.Ping); ok {
			if err := m.writeLine(ctx, conn, constants.PongReply); err != nil {
				m.log.Warn("Failed to answer PING", "channel", channel, "error", err)
			}
			continue
		}

		m.publish(event)
	}
}

// publish delivers an event to the outgoing stream without blocking the
// transport callback. Chat is inherently lossy under overload: when the
// buffer is full the event is dropped and counted.
func (m *Manager) publish(event irc.Event) {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return
	}

	select {
	case m.events <- event:
	default:
		n := m.dropped.Add(1)
		if n%100 == 1 {
			m.log.Warn("Event stream full, dropping events", "dropped", n)
		}
	}
}

// subscribeTokens starts the long-lived credential subscription on first use.
// It deliberately does not use the Run context: the stream outlives a single
// Run call and is cancelled by Close.
func (m *Manager) subscribeTokens() {
	m.tokenOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())

		m.mu.Lock()
		m.tokenCancel = cancel
		m.mu.Unlock()

		tokens := m.creds.Tokens(ctx)
		ready := m.tokenReady

		go func() {
			first := true
			for tok := range tokens {
				m.token.Store(tok)
				if first {
					close(ready)
					first = false
					continue
				}
				// A refreshed token takes effect on the next (re)connect;
				// re-authenticating a live IRC session is not possible.
				m.log.Info("Auth token refreshed", "session", m.id)
			}
		}()
	})
}

// waitToken returns the latest token, blocking until the credential stream
// has produced its first value.
func (m *Manager) waitToken(ctx context.Context) (string, error) {
	select {
	case <-m.tokenReady:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	tok, _ := m.token.Load().(string)
	if tok == "" {
		return "", fmt.Errorf("credential source produced an empty token")
	}
	return tok, nil
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// splitLines breaks one frame into its CRLF-separated lines, skipping
// empties.
func splitLines(raw string) []string {
	parts := strings.Split(raw, "\n")
	lines := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSuffix(p, "\r")
		if p != "" {
			lines = append(lines, p)
		}
	}
	return lines
}
