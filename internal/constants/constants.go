// Package constants defines the Twitch chat endpoints, the IRC handshake
// strings, close codes, and default timeout values used throughout the client.
package constants

import "time"

const (
	// ChatWebSocketURL is the secure Twitch IRC-over-WebSocket endpoint.
	ChatWebSocketURL = "wss://irc-ws.chat.twitch.tv:443"
	// HelixURL is the Twitch Helix REST API base URL.
	HelixURL = "https://api.twitch.tv/helix"
	// ValidateURL is the OAuth token validation endpoint.
	ValidateURL = "https://id.twitch.tv/oauth2/validate"
)

const (
	// Capabilities is the capability set requested on connect. Tags carry the
	// per-message metadata and commands carry CLEARCHAT/USERNOTICE and friends.
	Capabilities = "twitch.tv/tags twitch.tv/commands"
	// BotNick is the fixed nickname sent in the NICK handshake line.
	BotNick = "theplebdev"
	// PongReply is the full line sent in response to a server PING.
	PongReply = "PONG :tmi.twitch.tv"
)

const (
	// CloseCodeManual is the application close code used when the session is
	// torn down on purpose (re-run or explicit Close).
	CloseCodeManual = 1009
	// CloseReasonManual is the human-readable reason accompanying CloseCodeManual.
	CloseReasonManual = "Manually closed"
)

const (
	// WriteTimeout bounds a single WebSocket write. Short on purpose: a stale
	// chat feed is worse than a brief gap, so fail fast and let the caller retry.
	WriteTimeout = time.Second
	// DialTimeout bounds the WebSocket dial plus HTTP upgrade.
	DialTimeout = 10 * time.Second
	// DefaultHTTPTimeout is the request timeout for the Helix REST client.
	DefaultHTTPTimeout = 15 * time.Second
	// TokenPollInterval is how often the file credential source re-checks the
	// secrets file for out-of-band token refreshes.
	TokenPollInterval = 5 * time.Second
)

const (
	// EventBuffer is the capacity of the outgoing chat event channel. Publishes
	// beyond it are dropped rather than blocking the transport callback.
	EventBuffer = 256
	// MaxLineBytes is the read limit set on the chat socket. TMI lines are well
	// under this even with full tag sets.
	MaxLineBytes = 64 << 10
)

// DefaultUserAgent is the user-agent string used for Helix API requests.
const DefaultUserAgent = "Mozilla/5.0 (Linux; Android 7.1; Smart Box C1) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
