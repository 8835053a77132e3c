package irc

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrUnrecognized reports a line whose command is outside the recognized
// vocabulary. The session drops such lines with a diagnostic.
var ErrUnrecognized = errors.New("unrecognized command")

// ErrMissingTag reports a required tag absent from a line that must carry it.
var ErrMissingTag = errors.New("required tag missing")

// ParseError describes a line that matched a known command but failed a hard
// extraction rule. Only USERSTATE has required tags; everything else defaults
// or stays optional.
type ParseError struct {
	Command Command
	Tag     string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: tag %q missing", e.Command, e.Tag)
}

func (e *ParseError) Unwrap() error { return ErrMissingTag }

const (
	defaultColor      = "#000000"
	joinStatusText    = "Connected to chat!"
	clearedChatText   = "Chat cleared by moderator"
	noticeFallback    = "Room information updated"
	systemMsgFallback = "Announcement!"
	bannedUserUnknown = "User"
)

var banDurationPattern = regexp.MustCompile(`ban-duration=(\d+)`)

var targetUserIDPattern = regexp.MustCompile(`target-user-id=(\d+)`)

// ParseLine converts one raw protocol line into a typed Event. channel is the
// currently joined channel without the # prefix. Lines outside the command
// vocabulary return ErrUnrecognized; a USERSTATE line missing a required tag
// returns a *ParseError. No other input is an error: missing optional tags
// map to defaults or stay empty.
func ParseLine(raw, channel string) (Event, error) {
	switch Classify(raw) {
	case CmdJoin:
		return buildJoin(channel), nil
	case CmdUserState:
		return buildUserState(raw)
	case CmdPrivMsg:
		return buildUserMessage(raw), nil
	case CmdClearChat:
		return buildClearChat(raw, channel), nil
	case CmdClearMsg:
		return buildClearMessage(raw), nil
	case CmdNotice:
		return buildNotice(raw, channel), nil
	case CmdUserNotice:
		return buildUserNotice(raw, channel), nil
	case CmdRoomState:
		return buildRoomState(raw), nil
	case CmdPing:
		return &Ping{}, nil
	default:
		return nil, ErrUnrecognized
	}
}

func buildJoin(channel string) *Join {
	return &Join{Channel: channel, Status: joinStatusText}
}

// buildUserMessage extracts every tag generically into the event's fields and
// takes the message body from the trailing segment.
func buildUserMessage(raw string) *UserMessage {
	tags := ParseTags(raw)

	color, ok := tags.Get("color")
	if !ok {
		color = defaultColor
	}

	var sentTS int64
	if v, ok := tags.Get("tmi-sent-ts"); ok {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
			sentTS = ms
		}
	}

	return &UserMessage{
		BadgeInfo:        tags["badge-info"],
		Badges:           tags["badges"],
		ClientNonce:      tags["client-nonce"],
		Color:            color,
		DisplayName:      tags["display-name"],
		Emotes:           tags["emotes"],
		FirstMsg:         tags["first-msg"],
		Flags:            tags["flags"],
		ID:               tags["id"],
		Mod:              tags["mod"],
		ReturningChatter: tags["returning-chatter"],
		RoomID:           tags["room-id"],
		Subscriber:       tags.Flag("subscriber"),
		SentTS:           sentTS,
		Turbo:            tags.Flag("turbo"),
		UserID:           tags["user-id"],
		Text:             Trailing(raw),
	}
}

// buildClearChat disambiguates a whole-room wipe from a single-user ban. A
// line ending in the bare channel suffix has no banned-user segment and is a
// full clear; anything else names the banned user in the trailing text.
func buildClearChat(raw, channel string) Event {
	if IsFullClear(raw, channel) {
		return &ClearChatAll{Channel: channel, Text: clearedChatText}
	}

	username := Trailing(raw)
	if username == "" {
		username = bannedUserUnknown
	}

	var userID string
	if m := targetUserIDPattern.FindStringSubmatch(raw); m != nil {
		userID = m[1]
	}

	var duration int
	if m := banDurationPattern.FindStringSubmatch(raw); m != nil {
		duration, _ = strconv.Atoi(m[1])
	}

	return &ClearChatBan{
		Username:     username,
		TargetUserID: userID,
		BanDuration:  duration,
		Text:         username + " banned by moderator",
	}
}

func buildClearMessage(raw string) *ClearMessage {
	tags := ParseTags(raw)
	return &ClearMessage{TargetMsgID: tags["target-msg-id"]}
}

// buildNotice extracts the free text following "#<channel> :". NOTICE lines
// missing that shape still produce a usable event with fallback text.
func buildNotice(raw, channel string) *RoomNotice {
	text := channelTrailing(raw, channel)
	if text == "" {
		text = noticeFallback
	}
	return &RoomNotice{Channel: channel, Text: strings.TrimSpace(text)}
}

var userNoticeKinds = map[string]UserNoticeKind{
	"announcement":   KindAnnouncement,
	"resub":          KindResub,
	"sub":            KindSub,
	"submysterygift": KindMysteryGiftSub,
	"subgift":        KindGiftSub,
}

// buildUserNotice classifies the sub/gift/announcement variant by msg-id and
// unescapes the system message for display. The personal message after
// "#<channel> :" is optional; plain announcements carry none.
func buildUserNotice(raw, channel string) *UserNotice {
	tags := ParseTags(raw)

	displayName, ok := tags.Get("display-name")
	if !ok {
		displayName = "username"
	}

	// Unknown and absent msg-id values both classify as Announcement.
	kind := userNoticeKinds[tags["msg-id"]]

	systemMsg, ok := tags.Get("system-msg")
	if ok {
		systemMsg = strings.ReplaceAll(systemMsg, `\s`, " ")
	} else {
		systemMsg = systemMsgFallback
	}

	return &UserNotice{
		DisplayName: displayName,
		SystemMsg:   systemMsg,
		Message:     channelTrailing(raw, channel),
		Kind:        kind,
	}
}

// buildUserState treats display-name, mod and subscriber as required. Their
// absence is a defect in the feed, surfaced as a typed parse error instead of
// a silent default so moderator-state bugs stay visible.
func buildUserState(raw string) (*UserState, error) {
	tags := ParseTags(raw)

	displayName, ok := tags.Get("display-name")
	if !ok {
		return nil, &ParseError{Command: CmdUserState, Tag: "display-name"}
	}
	mod, ok := tags.Get("mod")
	if !ok {
		return nil, &ParseError{Command: CmdUserState, Tag: "mod"}
	}
	sub, ok := tags.Get("subscriber")
	if !ok {
		return nil, &ParseError{Command: CmdUserState, Tag: "subscriber"}
	}

	return &UserState{
		Color:       tags["color"],
		DisplayName: displayName,
		Mod:         mod == "1",
		Subscriber:  sub == "1",
	}, nil
}

// channelTrailing returns the text following "#<channel> :" or "" when the
// line carries no such segment.
func channelTrailing(raw, channel string) string {
	pattern := regexp.MustCompile("#" + regexp.QuoteMeta(channel) + `\s*:(.+)`)
	m := pattern.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	return m[1]
}
