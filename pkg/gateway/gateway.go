// Package gateway defines the outbound messaging interface the engine uses
// to reach the chat network. The actual protocol client lives outside this
// module; the engine only depends on this contract.
package gateway

import (
	"context"
	"errors"

	"github.com/zapflow/zapflow/pkg/models"
)

// ErrSessionNotReady signals a transient gateway condition (the chat session
// is reconnecting or not yet paired). Sends failing with it are retried with
// backoff before being treated as node failures.
var ErrSessionNotReady = errors.New("session not ready")

// MessageKind discriminates the outbound message union.
type MessageKind string

const (
	MessageKindText    MessageKind = "text"
	MessageKindMedia   MessageKind = "media"
	MessageKindButtons MessageKind = "buttons"
	MessageKindList    MessageKind = "list"
)

// Message is one outbound message descriptor produced by the node executor.
type Message struct {
	Kind MessageKind

	Text string

	// Media fields.
	MediaURL  string
	MediaType string
	Caption   string

	// Buttons fields.
	Buttons []models.Button

	// List fields.
	ButtonLabel string
	Sections    []models.ListSection
}

// Gateway sends messages keyed by (session, contact).
type Gateway interface {
	SendText(ctx context.Context, sessionID, contactID, text string) error
	SendMedia(ctx context.Context, sessionID, contactID, url, mediaType, caption string) error
	SendButtons(ctx context.Context, sessionID, contactID, text string, buttons []models.Button) error
	SendList(ctx context.Context, sessionID, contactID, text, buttonLabel string, sections []models.ListSection) error
}

// Send dispatches a message descriptor to the matching gateway call.
func Send(ctx context.Context, gw Gateway, sessionID, contactID string, msg *Message) error {
	switch msg.Kind {
	case MessageKindText:
		return gw.SendText(ctx, sessionID, contactID, msg.Text)
	case MessageKindMedia:
		return gw.SendMedia(ctx, sessionID, contactID, msg.MediaURL, msg.MediaType, msg.Caption)
	case MessageKindButtons:
		return gw.SendButtons(ctx, sessionID, contactID, msg.Text, msg.Buttons)
	case MessageKindList:
		return gw.SendList(ctx, sessionID, contactID, msg.Text, msg.ButtonLabel, msg.Sections)
	default:
		return errors.New("unknown message kind: " + string(msg.Kind))
	}
}
