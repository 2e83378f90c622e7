package engine

import (
	"strings"

	"github.com/zapflow/zapflow/pkg/models"
)

// matchesMessageTrigger reports whether an inbound text matches a message
// trigger node's keyword configuration.
func matchesMessageTrigger(node *models.Node, text string) (bool, error) {
	var config models.TriggerMessageConfig

	err := node.DecodeConfig(&config)
	if err != nil {
		return false, err
	}

	if config.Match == models.MatchModeAny {
		return true, nil
	}

	candidate := strings.TrimSpace(text)
	if !config.CaseSensitive {
		candidate = strings.ToLower(candidate)
	}

	for _, keyword := range config.Keywords {
		keyword = strings.TrimSpace(keyword)
		if !config.CaseSensitive {
			keyword = strings.ToLower(keyword)
		}

		if keyword == "" {
			continue
		}

		switch config.Match {
		case models.MatchModeContains:
			if strings.Contains(candidate, keyword) {
				return true, nil
			}
		default: // exact
			if candidate == keyword {
				return true, nil
			}
		}
	}

	return false, nil
}
