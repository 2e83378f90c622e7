package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapflow/zapflow/pkg/models"
)

func TestMatchesMessageTrigger(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		text    string
		matched bool
	}{
		{"exact match", `{"match": "exact", "keywords": ["hi", "hello"]}`, "hello", true},
		{"exact is case insensitive by default", `{"match": "exact", "keywords": ["hi"]}`, "HI", true},
		{"exact trims whitespace", `{"match": "exact", "keywords": ["hi"]}`, "  hi  ", true},
		{"exact rejects substring", `{"match": "exact", "keywords": ["hi"]}`, "hi there", false},
		{"contains", `{"match": "contains", "keywords": ["price"]}`, "what is the price?", true},
		{"contains miss", `{"match": "contains", "keywords": ["price"]}`, "hello", false},
		{"any matches everything", `{"match": "any"}`, "whatever", true},
		{"case sensitive exact", `{"match": "exact", "keywords": ["Hi"], "case_sensitive": true}`, "hi", false},
		{"empty keywords never match", `{"match": "exact"}`, "hi", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trigger := &models.Node{
				ID:     "trigger",
				Type:   models.NodeTypeTriggerMessage,
				Config: json.RawMessage(tt.config),
			}

			matched, err := matchesMessageTrigger(trigger, tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.matched, matched)
		})
	}
}
