package gateway

import (
	"context"
	"log/slog"

	"github.com/zapflow/zapflow/pkg/models"
)

// LoggingGateway writes outbound messages to the log instead of a chat
// network. It stands in for the protocol client in development and in
// deployments where the real client is wired separately.
type LoggingGateway struct {
	logger *slog.Logger
}

func NewLoggingGateway(logger *slog.Logger) *LoggingGateway {
	return &LoggingGateway{logger: logger.With("module", "gateway")}
}

func (g *LoggingGateway) SendText(_ context.Context, sessionID, contactID, text string) error {
	g.logger.Info("Outbound text", "session_id", sessionID, "contact_id", contactID, "text", text)

	return nil
}

func (g *LoggingGateway) SendMedia(_ context.Context, sessionID, contactID, url, mediaType, caption string) error {
	g.logger.Info("Outbound media",
		"session_id", sessionID, "contact_id", contactID,
		"url", url, "media_type", mediaType, "caption", caption)

	return nil
}

func (g *LoggingGateway) SendButtons(_ context.Context, sessionID, contactID, text string, buttons []models.Button) error {
	g.logger.Info("Outbound buttons",
		"session_id", sessionID, "contact_id", contactID,
		"text", text, "buttons", len(buttons))

	return nil
}

func (g *LoggingGateway) SendList(_ context.Context, sessionID, contactID, text, buttonLabel string, sections []models.ListSection) error {
	g.logger.Info("Outbound list",
		"session_id", sessionID, "contact_id", contactID,
		"text", text, "button_label", buttonLabel, "sections", len(sections))

	return nil
}
