package ws

import (
	"encoding/json"

	"schoolplus/internal/domain"
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// inboundPayload is the union of every inbound payload; each type reads only its own fields.
type inboundPayload struct {
	Screen  domain.Screen       `json:"screen"`
	Level   int                 `json:"level"`
	Index   int                 `json:"index"`
	Key     string              `json:"key"`
	ID      string              `json:"id"`
	OK      bool                `json:"ok"`
	Text    string              `json:"text"`
	Shift   bool                `json:"shift"`
	Files   []domain.Attachment `json:"files"`
	Prompt  string              `json:"prompt"`
	Model   string              `json:"model"`
	Value   float64             `json:"value"`
	Enabled bool                `json:"enabled"`
	Kind    string              `json:"kind"`
	Labels  []string            `json:"labels"`
	Values  []float64           `json:"values"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload,omitempty"`
}

type tabPayload struct {
	ID string `json:"id"`
}

type screenPayload struct {
	Screen domain.Screen `json:"screen"`
}

type navPayload struct {
	Index int `json:"index"`
}

type scorePayload struct {
	Score int `json:"score"`
}

type optionPayload struct {
	Index   int  `json:"index"`
	Correct bool `json:"correct"`
}

type optionsPayload struct {
	Disabled bool `json:"disabled"`
}

type feedbackPayload struct {
	Correct bool   `json:"correct"`
	Message string `json:"message"`
}

type resultFieldPayload struct {
	Field string `json:"field"`
	Text  string `json:"text"`
}

type resultsHeaderPayload struct {
	Passed bool `json:"passed"`
}

type messagePayload struct {
	Message string `json:"message"`
}

type confirmPayload struct {
	ID     string `json:"id"`
	Prompt string `json:"prompt"`
}

type textPayload struct {
	Text string `json:"text"`
}

type togglePayload struct {
	Enabled bool `json:"enabled"`
}

type chatIDPayload struct {
	ChatID string `json:"chatId"`
}

type downloadPayload struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type chipsPayload struct {
	Labels []string `json:"labels"`
}

type pulsePayload struct {
	Index  int  `json:"index"`
	Active bool `json:"active"`
}

type modalPayload struct {
	HTML string `json:"html"`
}

type notificationsPayload struct {
	Items []domain.Notification `json:"items"`
}
