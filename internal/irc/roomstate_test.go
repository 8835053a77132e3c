package irc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theplebdev/tmichat/internal/irc"
)

func roomState(t *testing.T, raw string) *irc.RoomState {
	t.Helper()

	event, err := irc.ParseLine(raw, "channel")
	require.NoError(t, err)

	rs, ok := event.(*irc.RoomState)
	require.True(t, ok)
	return rs
}

func TestRoomStateFollowerModeZeroMeansOn(t *testing.T) {
	t.Parallel()

	rs := roomState(t, "@followers-only=0 :tmi.twitch.tv ROOMSTATE #channel")

	require.NotNil(t, rs.Follower)
	assert.True(t, *rs.Follower, "followers-only=0 is on with zero delay")
}

func TestRoomStateMinusOneMeansOff(t *testing.T) {
	t.Parallel()

	rs := roomState(t, "@followers-only=-1;slow=-1;subs-only=-1;emote-only=-1 :tmi.twitch.tv ROOMSTATE #channel")

	require.NotNil(t, rs.Follower)
	assert.False(t, *rs.Follower)
	require.NotNil(t, rs.Slow)
	assert.False(t, *rs.Slow)
	require.NotNil(t, rs.Subscriber)
	assert.False(t, *rs.Subscriber)
	require.NotNil(t, rs.Emote)
	assert.False(t, *rs.Emote)
}

func TestRoomStateNumericValueMeansOn(t *testing.T) {
	t.Parallel()

	rs := roomState(t, "@followers-only=10;slow=30;subs-only=1;emote-only=1 :tmi.twitch.tv ROOMSTATE #channel")

	assert.True(t, *rs.Follower)
	assert.True(t, *rs.Slow)
	assert.True(t, *rs.Subscriber)
	assert.True(t, *rs.Emote)
}

func TestRoomStateZeroIsOffForNonFollowerModes(t *testing.T) {
	t.Parallel()

	rs := roomState(t, "@slow=0;subs-only=0;emote-only=0 :tmi.twitch.tv ROOMSTATE #channel")

	require.NotNil(t, rs.Slow)
	assert.False(t, *rs.Slow)
	assert.False(t, *rs.Subscriber)
	assert.False(t, *rs.Emote)
}

func TestRoomStateAbsentKeyIsNil(t *testing.T) {
	t.Parallel()

	rs := roomState(t, "@slow=30;room-id=123 :tmi.twitch.tv ROOMSTATE #channel")

	require.NotNil(t, rs.Slow)
	assert.True(t, *rs.Slow)
	assert.Nil(t, rs.Follower, "absent key means no opinion, not off")
	assert.Nil(t, rs.Subscriber)
	assert.Nil(t, rs.Emote)
}
