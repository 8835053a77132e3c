package irc

// EventType discriminates the Event variants published by the session.
type EventType int

// Event types.
const (
	EventTypeJoin EventType = iota
	EventTypeNotice
	EventTypeUserMessage
	EventTypeClearChatAll
	EventTypeClearChatBan
	EventTypeClearMessage
	EventTypeUserNotice
	EventTypeRoomState
	EventTypeUserState
	EventTypePing
)

// Event is a typed chat event produced from one raw protocol line.
type Event interface {
	Type() EventType
}

// Join marks the session as established in a channel. The wire JOIN carries
// no useful payload in this dialect; the status text is synthesized.
type Join struct {
	Channel string
	Status  string
}

func (e *Join) Type() EventType { return EventTypeJoin }

// RoomNotice is a generic informational notice: room cleared, connection
// status, unban confirmation.
type RoomNotice struct {
	Channel string
	Text    string
}

func (e *RoomNotice) Type() EventType { return EventTypeNotice }

// UserMessage is a single chat line with its tag metadata. Badge, emote and
// flag metadata pass through as raw unparsed strings; interpreting them is a
// presentation concern. Deleted/banned status is not stored here — the state
// package keeps an overlay keyed by message and user id, so events stay
// immutable after construction.
type UserMessage struct {
	BadgeInfo        string
	Badges           string
	ClientNonce      string
	Color            string // never empty; "#000000" when the tag is absent
	DisplayName      string
	Emotes           string
	FirstMsg         string
	Flags            string
	ID               string
	Mod              string
	ReturningChatter string
	RoomID           string
	Subscriber       bool
	SentTS           int64 // epoch millis; 0 when absent
	Turbo            bool
	UserID           string
	Text             string
}

func (e *UserMessage) Type() EventType { return EventTypeUserMessage }

// ClearChatAll is a whole-room message wipe.
type ClearChatAll struct {
	Channel string
	Text    string
}

func (e *ClearChatAll) Type() EventType { return EventTypeClearChatAll }

// ClearChatBan is a single-user ban or timeout. TargetUserID may be empty
// when tag extraction fails. BanDuration is in seconds; 0 means permanent.
type ClearChatBan struct {
	Username     string
	TargetUserID string
	BanDuration  int
	Text         string
}

func (e *ClearChatBan) Type() EventType { return EventTypeClearChatBan }

// ClearMessage deletes a single message by id. TargetMsgID may be empty when
// the tag is absent.
type ClearMessage struct {
	TargetMsgID string
}

func (e *ClearMessage) Type() EventType { return EventTypeClearMessage }

// UserNoticeKind discriminates the sub/gift/announcement USERNOTICE variants.
type UserNoticeKind int

// USERNOTICE kinds. Unknown msg-id values fall back to Announcement.
const (
	KindAnnouncement UserNoticeKind = iota
	KindResub
	KindSub
	KindMysteryGiftSub
	KindGiftSub
)

func (k UserNoticeKind) String() string {
	switch k {
	case KindResub:
		return "resub"
	case KindSub:
		return "sub"
	case KindMysteryGiftSub:
		return "submysterygift"
	case KindGiftSub:
		return "subgift"
	default:
		return "announcement"
	}
}

// UserNotice is a sub, resub, gift-sub, mystery-gift-sub or announcement
// event. Message is the chatter's personal message and may be empty; plain
// announcements carry none.
type UserNotice struct {
	DisplayName string
	SystemMsg   string
	Message     string
	Kind        UserNoticeKind
}

func (e *UserNotice) Type() EventType { return EventTypeUserNotice }

// RoomState carries the channel-wide chat restrictions communicated by one
// ROOMSTATE line. A nil field means the line said nothing about that mode,
// not that the mode is off; downstream state merges rather than overwrites.
type RoomState struct {
	Slow       *bool
	Follower   *bool
	Subscriber *bool
	Emote      *bool
}

func (e *RoomState) Type() EventType { return EventTypeRoomState }

// UserState describes the logged-in user's standing in the current channel.
type UserState struct {
	Color       string
	DisplayName string
	Mod         bool
	Subscriber  bool
}

func (e *UserState) Type() EventType { return EventTypeUserState }

// Ping is a server keepalive probe. The session answers it and does not
// publish it.
type Ping struct{}

func (e *Ping) Type() EventType { return EventTypePing }
