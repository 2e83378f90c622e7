// Package tags defines the contact-tag provider interface. Tag data is
// seeded into the execution context at start so workflows can branch on it.
package tags

import "context"

// Provider returns the tags attached to a contact, as variable name to value
// pairs. Implementations live with the chat-protocol client.
type Provider interface {
	ContactTags(ctx context.Context, tenantID, sessionID, contactID string) (map[string]any, error)
}

// NoopProvider returns no tags; used when no tag source is configured.
type NoopProvider struct{}

func (NoopProvider) ContactTags(_ context.Context, _, _, _ string) (map[string]any, error) {
	return nil, nil
}
