package engine

import (
	"fmt"
	"strings"

	"github.com/zapflow/zapflow/pkg/models"
)

// Inbound is one message arriving from the contact, as seen by the resume
// and trigger-matching paths.
type Inbound struct {
	Text      string
	MediaType string
	MediaURL  string
	Payload   map[string]any
}

// Input builds the context input value seeded for the next step.
func (in *Inbound) Input() map[string]any {
	input := map[string]any{"text": in.Text}

	if in.MediaType != "" {
		input["media_type"] = in.MediaType
		input["media_url"] = in.MediaURL
	}

	for k, v := range in.Payload {
		input[k] = v
	}

	return input
}

// replyResolution is the outcome of matching an inbound reply against the
// node the execution is suspended on. An unmatched reply keeps the wait
// alive without consuming it.
type replyResolution struct {
	matched    bool
	nextNodeID *string
}

// resolveReply applies the node-type-specific resume semantics. This is the
// one place where the edge choice happens at resume time instead of execute
// time: the reply is matched against routing data placed in context or
// config at send time.
func (e *Engine) resolveReply(wf *models.Workflow, node *models.Node, execCtx *models.ExecutionContext, in *Inbound) (replyResolution, error) {
	switch node.Type {
	case models.NodeTypeWaitReply:
		return resolveWaitReply(wf, node, execCtx, in)
	case models.NodeTypeSendButtons:
		return resolveButtonReply(wf, node, execCtx, in)
	case models.NodeTypeConfirmPayment:
		return resolvePaymentReply(wf, node, execCtx, in)
	default:
		// Suspended on a pure timer; an inbound message has nothing to
		// resolve and must not consume the wait.
		return replyResolution{}, nil
	}
}

func resolveWaitReply(wf *models.Workflow, node *models.Node, execCtx *models.ExecutionContext, in *Inbound) (replyResolution, error) {
	var config models.WaitReplyConfig

	err := node.DecodeConfig(&config)
	if err != nil {
		return replyResolution{}, err
	}

	if len(config.Routes) == 0 {
		if config.SaveAs != "" {
			execCtx.SetVariable(config.SaveAs, in.Text)
		}

		return replyResolution{matched: true, nextNodeID: wf.NextNodeID(node.ID)}, nil
	}

	for _, route := range config.Routes {
		if !matchAnyKeyword(in.Text, route.Keywords) {
			continue
		}

		if config.SaveAs != "" {
			execCtx.SetVariable(config.SaveAs, in.Text)
		}

		return replyResolution{matched: true, nextNodeID: edgeTarget(wf, node.ID, route.Condition)}, nil
	}

	return replyResolution{}, nil
}

// resolveButtonReply matches the reply against the button map stored in
// context at send time: a payload button id, the id as text, or the label.
func resolveButtonReply(wf *models.Workflow, node *models.Node, execCtx *models.ExecutionContext, in *Inbound) (replyResolution, error) {
	buttons := execCtx.ButtonMap()
	if len(buttons) == 0 {
		return replyResolution{}, fmt.Errorf("no button map in context for node %s", node.ID)
	}

	selected := ""

	if id, ok := in.Payload["button_id"].(string); ok {
		if _, known := buttons[id]; known {
			selected = id
		}
	}

	if selected == "" {
		text := normalizeText(in.Text)

		for id, label := range buttons {
			if normalizeText(id) == text || normalizeText(label) == text {
				selected = id

				break
			}
		}
	}

	if selected == "" {
		return replyResolution{}, nil
	}

	var config models.SendButtonsConfig

	err := node.DecodeConfig(&config)
	if err != nil {
		return replyResolution{}, err
	}

	if config.SaveAs != "" {
		execCtx.SetVariable(config.SaveAs, selected)
	}

	next := edgeTarget(wf, node.ID, selected)
	if next == nil {
		next = wf.NextNodeID(node.ID)
	}

	return replyResolution{matched: true, nextNodeID: next}, nil
}

// resolvePaymentReply accepts a receipt as media of an accepted type or a
// confirmation keyword, leaving through the "approved" edge; a reject
// keyword leaves through "rejected". Anything else keeps waiting.
func resolvePaymentReply(wf *models.Workflow, node *models.Node, execCtx *models.ExecutionContext, in *Inbound) (replyResolution, error) {
	var config models.ConfirmPaymentConfig

	err := node.DecodeConfig(&config)
	if err != nil {
		return replyResolution{}, err
	}

	acceptMedia := config.AcceptMedia
	if len(acceptMedia) == 0 {
		acceptMedia = []string{"image", "document"}
	}

	if in.MediaType != "" {
		for _, mediaType := range acceptMedia {
			if in.MediaType != mediaType {
				continue
			}

			if config.SaveAs != "" {
				execCtx.SetVariable(config.SaveAs, in.MediaURL)
			}

			return replyResolution{matched: true, nextNodeID: paymentTarget(wf, node.ID, models.EdgeConditionApproved)}, nil
		}
	}

	if matchAnyKeyword(in.Text, config.Keywords) {
		if config.SaveAs != "" {
			execCtx.SetVariable(config.SaveAs, in.Text)
		}

		return replyResolution{matched: true, nextNodeID: paymentTarget(wf, node.ID, models.EdgeConditionApproved)}, nil
	}

	if matchAnyKeyword(in.Text, config.RejectKeywords) {
		return replyResolution{matched: true, nextNodeID: paymentTarget(wf, node.ID, models.EdgeConditionRejected)}, nil
	}

	return replyResolution{}, nil
}

func paymentTarget(wf *models.Workflow, nodeID, condition string) *string {
	next := edgeTarget(wf, nodeID, condition)
	if next == nil {
		next = wf.NextNodeID(nodeID)
	}

	return next
}

// matchAnyKeyword reports whether the text equals or contains any of the
// keywords, case-insensitively.
func matchAnyKeyword(text string, keywords []string) bool {
	normalized := normalizeText(text)

	for _, keyword := range keywords {
		keyword = normalizeText(keyword)
		if keyword == "" {
			continue
		}

		if normalized == keyword || strings.Contains(normalized, keyword) {
			return true
		}
	}

	return false
}

func normalizeText(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
