package helix

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// BanRequest names the user to ban or time out. A zero Duration is a
// permanent ban; a positive Duration is a timeout in seconds.
type BanRequest struct {
	BroadcasterID string
	ModeratorID   string
	UserID        string
	Duration      int
	Reason        string
}

type banRequestBody struct {
	Data banRequestData `json:"data"`
}

type banRequestData struct {
	UserID   string `json:"user_id"`
	Duration int    `json:"duration,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// BanUser bans or times out a user in the broadcaster's chat.
func (c *Client) BanUser(ctx context.Context, req BanRequest) Result[struct{}] {
	body, err := json.Marshal(banRequestBody{
		Data: banRequestData{
			UserID:   req.UserID,
			Duration: req.Duration,
			Reason:   req.Reason,
		},
	})
	if err != nil {
		return Failure[struct{}](networkErrorMessage)
	}

	query := url.Values{}
	query.Set("broadcaster_id", req.BroadcasterID)
	query.Set("moderator_id", req.ModeratorID)

	_, status, err := c.do(ctx, http.MethodPost, "/moderation/bans", query, body)
	if err != nil {
		c.log.Warn("Ban request failed", "user_id", req.UserID, "error", err)
		return Failure[struct{}](networkErrorMessage)
	}
	if !statusOK(status) {
		c.log.Warn("Ban request rejected", "user_id", req.UserID, "status", status)
		return Failure[struct{}](serverErrorMessage(status))
	}

	return Success(struct{}{})
}

// UnbanUser lifts a ban or timeout on a user in the broadcaster's chat.
func (c *Client) UnbanUser(ctx context.Context, broadcasterID, moderatorID, userID string) Result[struct{}] {
	query := url.Values{}
	query.Set("broadcaster_id", broadcasterID)
	query.Set("moderator_id", moderatorID)
	query.Set("user_id", userID)

	_, status, err := c.do(ctx, http.MethodDelete, "/moderation/bans", query, nil)
	if err != nil {
		c.log.Warn("Unban request failed", "user_id", userID, "error", err)
		return Failure[struct{}](networkErrorMessage)
	}
	if !statusOK(status) {
		c.log.Warn("Unban request rejected", "user_id", userID, "status", status)
		return Failure[struct{}](serverErrorMessage(status))
	}

	return Success(struct{}{})
}

// DeleteMessage removes a single chat message by its id.
func (c *Client) DeleteMessage(ctx context.Context, broadcasterID, moderatorID, messageID string) Result[struct{}] {
	query := url.Values{}
	query.Set("broadcaster_id", broadcasterID)
	query.Set("moderator_id", moderatorID)
	query.Set("message_id", messageID)

	_, status, err := c.do(ctx, http.MethodDelete, "/moderation/chat", query, nil)
	if err != nil {
		c.log.Warn("Delete message request failed", "message_id", messageID, "error", err)
		return Failure[struct{}](networkErrorMessage)
	}
	if !statusOK(status) {
		c.log.Warn("Delete message request rejected", "message_id", messageID, "status", status)
		return Failure[struct{}](serverErrorMessage(status))
	}

	return Success(struct{}{})
}
