package irc

import "regexp"

// Command identifies which protocol command a raw line represents.
type Command int

// Recognized command vocabulary. Anything else classifies as CmdUnknown and
// is dropped by the session.
const (
	CmdUnknown Command = iota
	CmdJoin
	CmdUserState
	CmdPrivMsg
	CmdClearChat
	CmdClearMsg
	CmdNotice
	CmdUserNotice
	CmdRoomState
	CmdPing
)

var commandNames = map[Command]string{
	CmdUnknown:    "UNKNOWN",
	CmdJoin:       "JOIN",
	CmdUserState:  "USERSTATE",
	CmdPrivMsg:    "PRIVMSG",
	CmdClearChat:  "CLEARCHAT",
	CmdClearMsg:   "CLEARMSG",
	CmdNotice:     "NOTICE",
	CmdUserNotice: "USERNOTICE",
	CmdRoomState:  "ROOMSTATE",
	CmdPing:       "PING",
}

func (c Command) String() string {
	return commandNames[c]
}

// commandPattern picks the command marker out of a raw line. Word boundaries
// keep USERNOTICE from matching as NOTICE and USERSTATE from matching inside
// GLOBALUSERSTATE.
var commandPattern = regexp.MustCompile(`\b(PING|PRIVMSG|ROOMSTATE|USERNOTICE|USERSTATE|NOTICE|CLEARMSG|CLEARCHAT|JOIN)\b`)

var commandByMarker = map[string]Command{
	"PING":       CmdPing,
	"PRIVMSG":    CmdPrivMsg,
	"ROOMSTATE":  CmdRoomState,
	"USERNOTICE": CmdUserNotice,
	"USERSTATE":  CmdUserState,
	"NOTICE":     CmdNotice,
	"CLEARMSG":   CmdClearMsg,
	"CLEARCHAT":  CmdClearChat,
	"JOIN":       CmdJoin,
}

// Classify determines the protocol command carried by raw.
func Classify(raw string) Command {
	m := commandPattern.FindStringSubmatch(raw)
	if m == nil {
		return CmdUnknown
	}
	return commandByMarker[m[1]]
}

// IsFullClear reports whether a CLEARCHAT line is a whole-room wipe rather
// than a single-user ban. A full clear ends with the channel suffix and has
// no trailing username segment.
func IsFullClear(raw, channel string) bool {
	pattern := regexp.MustCompile("#" + regexp.QuoteMeta(channel) + "$")
	return pattern.MatchString(raw)
}
