package helix

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// ChatSettings mirrors the Helix chat settings resource. Duration fields are
// pointers because the API omits them when the corresponding mode is off.
type ChatSettings struct {
	BroadcasterID        string `json:"broadcaster_id"`
	SlowMode             bool   `json:"slow_mode"`
	SlowModeWaitTime     *int   `json:"slow_mode_wait_time"`
	FollowerMode         bool   `json:"follower_mode"`
	FollowerModeDuration *int   `json:"follower_mode_duration"`
	SubscriberMode       bool   `json:"subscriber_mode"`
	EmoteMode            bool   `json:"emote_mode"`
}

// ChatSettingsUpdate holds the fields to change. Nil fields are left alone on
// the server.
type ChatSettingsUpdate struct {
	SlowMode             *bool `json:"slow_mode,omitempty"`
	SlowModeWaitTime     *int  `json:"slow_mode_wait_time,omitempty"`
	FollowerMode         *bool `json:"follower_mode,omitempty"`
	FollowerModeDuration *int  `json:"follower_mode_duration,omitempty"`
	SubscriberMode       *bool `json:"subscriber_mode,omitempty"`
	EmoteMode            *bool `json:"emote_mode,omitempty"`
}

type chatSettingsResponse struct {
	Data []ChatSettings `json:"data"`
}

// GetChatSettings fetches the current chat settings for a broadcaster.
func (c *Client) GetChatSettings(ctx context.Context, broadcasterID, moderatorID string) Result[ChatSettings] {
	query := url.Values{}
	query.Set("broadcaster_id", broadcasterID)
	query.Set("moderator_id", moderatorID)

	body, status, err := c.do(ctx, http.MethodGet, "/chat/settings", query, nil)
	if err != nil {
		c.log.Warn("Chat settings fetch failed", "broadcaster_id", broadcasterID, "error", err)
		return Failure[ChatSettings](networkErrorMessage)
	}
	if !statusOK(status) {
		c.log.Warn("Chat settings fetch rejected", "broadcaster_id", broadcasterID, "status", status)
		return Failure[ChatSettings](serverErrorMessage(status))
	}

	var resp chatSettingsResponse
	if err := json.Unmarshal(body, &resp); err != nil || len(resp.Data) == 0 {
		c.log.Warn("Chat settings response unreadable", "broadcaster_id", broadcasterID, "error", err)
		return Failure[ChatSettings](networkErrorMessage)
	}

	return Success(resp.Data[0])
}

// UpdateChatSettings applies the given changes and returns the settings the
// server reports back.
func (c *Client) UpdateChatSettings(ctx context.Context, broadcasterID, moderatorID string, update ChatSettingsUpdate) Result[ChatSettings] {
	payload, err := json.Marshal(update)
	if err != nil {
		return Failure[ChatSettings](networkErrorMessage)
	}

	query := url.Values{}
	query.Set("broadcaster_id", broadcasterID)
	query.Set("moderator_id", moderatorID)

	body, status, err := c.do(ctx, http.MethodPatch, "/chat/settings", query, payload)
	if err != nil {
		c.log.Warn("Chat settings update failed", "broadcaster_id", broadcasterID, "error", err)
		return Failure[ChatSettings](networkErrorMessage)
	}
	if !statusOK(status) {
		c.log.Warn("Chat settings update rejected", "broadcaster_id", broadcasterID, "status", status)
		return Failure[ChatSettings](serverErrorMessage(status))
	}

	var resp chatSettingsResponse
	if err := json.Unmarshal(body, &resp); err != nil || len(resp.Data) == 0 {
		c.log.Warn("Chat settings response unreadable", "broadcaster_id", broadcasterID, "error", err)
		return Failure[ChatSettings](networkErrorMessage)
	}

	return Success(resp.Data[0])
}
