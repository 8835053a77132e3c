package irc

import "regexp"

// Room-mode tag keys carried on ROOMSTATE lines.
const (
	keySlow      = "slow"
	keyFollowers = "followers-only"
	keySubs      = "subs-only"
	keyEmote     = "emote-only"
)

var roomModePatterns = map[string]*regexp.Regexp{
	keySlow:      regexp.MustCompile(`slow=([^;:\s]+)`),
	keyFollowers: regexp.MustCompile(`followers-only=([^;:\s]+)`),
	keySubs:      regexp.MustCompile(`subs-only=([^;:\s]+)`),
	keyEmote:     regexp.MustCompile(`emote-only=([^;:\s]+)`),
}

// buildRoomState extracts the four chat-mode flags from a ROOMSTATE line.
// Each flag is tri-state: nil when the line does not mention the key at all.
func buildRoomState(raw string) *RoomState {
	return &RoomState{
		Slow:       roomModeValue(raw, keySlow),
		Follower:   roomModeValue(raw, keyFollowers),
		Subscriber: roomModeValue(raw, keySubs),
		Emote:      roomModeValue(raw, keyEmote),
	}
}

// roomModeValue decodes one mode flag. Value -1 always means off. For
// followers-only a value of 0 means on with zero delay, while 0 on any other
// key means off; this asymmetry is how TMI encodes the modes and must not be
// "fixed".
func roomModeValue(raw, key string) *bool {
	m := roomModePatterns[key].FindStringSubmatch(raw)
	if m == nil {
		return nil
	}
	v := m[1]

	var on bool
	switch {
	case v == "-1":
		on = false
	case key == keyFollowers && v == "0":
		on = true
	default:
		on = v != "0"
	}
	return &on
}
