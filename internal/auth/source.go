// Package auth provides the credential source consumed by the chat session:
// a continuously observable OAuth token plus a one-shot username lookup.
package auth

import "context"

// Source supplies the OAuth credentials used in the IRC handshake. Tokens is
// a stream, not a one-shot fetch: the token can be refreshed out of band and
// the session re-reads it on every (re)connect. *FileSource and *StaticSource
// satisfy this interface.
type Source interface {
	// Tokens emits the current token immediately and again whenever it
	// changes, until ctx is cancelled. The channel is closed on cancellation.
	Tokens(ctx context.Context) <-chan string

	// Username returns the login associated with the token.
	Username(ctx context.Context) (string, error)
}

// StaticSource is a Source backed by fixed credentials, for tests and for
// environments where the token arrives via configuration.
type StaticSource struct {
	Token string
	User  string
}

// Tokens emits the fixed token once and then blocks until cancellation.
func (s *StaticSource) Tokens(ctx context.Context) <-chan string {
	ch := make(chan string, 1)
	ch <- s.Token

	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch
}

// Username returns the fixed login.
func (s *StaticSource) Username(context.Context) (string, error) {
	return s.User, nil
}
