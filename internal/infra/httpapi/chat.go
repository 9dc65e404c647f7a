package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"schoolplus/internal/domain"
)

// ChatClient talks to the assistant endpoints.
type ChatClient struct {
	c *Client
}

func NewChatClient(c *Client) *ChatClient {
	return &ChatClient{c: c}
}

// Send posts a message. Any non-2xx status is a failure, even when the body is JSON (401 {"error":...}).
func (a *ChatClient) Send(ctx context.Context, req domain.ChatRequest) (domain.ChatReply, error) {
	status, raw, err := a.c.do(ctx, http.MethodPost, "/ai/send", req)
	if err != nil {
		return domain.ChatReply{}, err
	}
	if !isSuccess(status) {
		return domain.ChatReply{}, &StatusError{Path: "/ai/send", Status: status}
	}
	var reply domain.ChatReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return domain.ChatReply{}, fmt.Errorf("decode chat reply: %w", err)
	}
	return reply, nil
}

// Clear empties the server copy of a conversation.
func (a *ChatClient) Clear(ctx context.Context, chatID string) error {
	status, _, err := a.c.do(ctx, http.MethodPost, "/ai/clear", ClearRequest{ChatID: chatID})
	if err != nil {
		return err
	}
	if !isSuccess(status) {
		return &StatusError{Path: "/ai/clear", Status: status}
	}
	return nil
}
