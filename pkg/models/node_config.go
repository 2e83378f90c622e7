package models

// TimeoutPolicy decides what happens when an attended wait times out.
type TimeoutPolicy string

const (
	TimeoutPolicyEnd      TimeoutPolicy = "end"
	TimeoutPolicyGotoNode TimeoutPolicy = "goto_node"
)

// MatchMode controls how a message trigger compares inbound text against its
// keyword list.
type MatchMode string

const (
	MatchModeExact    MatchMode = "exact"
	MatchModeContains MatchMode = "contains"
	MatchModeAny      MatchMode = "any" // any inbound message matches
)

// TriggerMessageConfig configures a message-match trigger node.
type TriggerMessageConfig struct {
	Match         MatchMode `json:"match"`
	Keywords      []string  `json:"keywords"`
	CaseSensitive bool      `json:"case_sensitive"`
}

// TriggerScheduleConfig configures a cron-scheduled trigger node. Scheduled
// workflows run against a fixed conversation, so the target session and
// contact are part of the trigger configuration.
type TriggerScheduleConfig struct {
	Cron      string `json:"cron"       validate:"required"`
	SessionID string `json:"session_id" validate:"required"`
	ContactID string `json:"contact_id" validate:"required"`
}

// TriggerManualConfig configures a manual/API trigger node.
type TriggerManualConfig struct{}

// SendMessageConfig configures a text message node. Text supports
// {{variables.x}} interpolation.
type SendMessageConfig struct {
	Text         string `json:"text" validate:"required"`
	DelaySeconds int    `json:"delay_seconds"`
}

// SendMediaConfig configures a media message node.
type SendMediaConfig struct {
	URL          string `json:"url" validate:"required"`
	Caption      string `json:"caption"`
	MediaType    string `json:"media_type"` // image, document, audio, video
	DelaySeconds int    `json:"delay_seconds"`
}

// Button is one selectable option in a buttons message. The outgoing edge
// tagged with the button ID is followed when the contact selects it.
type Button struct {
	ID    string `json:"id"    validate:"required"`
	Label string `json:"label" validate:"required"`
}

// SendButtonsConfig configures a button-selection node. The node sends the
// buttons and suspends until the contact picks one; the reply is matched
// against the button map stored in context at send time.
type SendButtonsConfig struct {
	Text           string        `json:"text" validate:"required"`
	Buttons        []Button      `json:"buttons" validate:"required,min=1,dive"`
	SaveAs         string        `json:"save_as"`
	TimeoutSeconds int           `json:"timeout_seconds"`
	OnTimeout      TimeoutPolicy `json:"on_timeout"`
	TimeoutNodeID  string        `json:"timeout_node_id"`
}

// ListRow is one row of a list message section.
type ListRow struct {
	ID          string `json:"id"    validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

// ListSection groups rows of a list message.
type ListSection struct {
	Title string    `json:"title"`
	Rows  []ListRow `json:"rows" validate:"required,min=1,dive"`
}

// SendListConfig configures a list message node. Unlike buttons, a list is
// fire-and-forget: the run loop continues to the next node after sending.
type SendListConfig struct {
	Text        string        `json:"text" validate:"required"`
	ButtonLabel string        `json:"button_label"`
	Sections    []ListSection `json:"sections" validate:"required,min=1,dive"`
}

// ConditionConfig configures a boolean branch node. Expression is evaluated
// against the public context variables; the outgoing edge tagged true or
// false is followed.
type ConditionConfig struct {
	Expression string `json:"expression" validate:"required"`
}

// SwitchConfig configures an ordered multi-way branch node. The first rule
// that evaluates true selects the edge tagged with the rule's output key; if
// none match, the edge tagged "default" is followed.
type SwitchConfig struct {
	Rules []SwitchRule `json:"rules" validate:"required,min=1,dive"`
}

// WaitConfig configures an unattended delay node. The engine suspends on a
// pure timer and is already pointed past the wait when the timer fires.
type WaitConfig struct {
	DurationSeconds int `json:"duration_seconds" validate:"required,min=1"`
}

// ReplyRoute maps a set of keywords to an outgoing edge condition tag.
type ReplyRoute struct {
	Condition string   `json:"condition" validate:"required"`
	Keywords  []string `json:"keywords"  validate:"required,min=1"`
}

// WaitReplyConfig configures an attended wait node. With no routes, any reply
// resumes the execution and is stored under SaveAs. With routes, the reply
// must match a route's keywords; a non-matching reply keeps the wait alive.
type WaitReplyConfig struct {
	SaveAs         string        `json:"save_as"`
	Routes         []ReplyRoute  `json:"routes,omitempty"`
	TimeoutSeconds int           `json:"timeout_seconds"`
	OnTimeout      TimeoutPolicy `json:"on_timeout"`
	TimeoutNodeID  string        `json:"timeout_node_id"`
}

// LoopConfig configures a loop header node. Items is an expression producing
// the sequence to iterate; the body is entered through the "loop" edge and
// the "done" edge is followed after the last item.
type LoopConfig struct {
	Items         string `json:"items" validate:"required"`
	ItemVariable  string `json:"item_variable"`
	IndexVariable string `json:"index_variable"`
}

// Assignment sets one context variable. Value supports interpolation.
type Assignment struct {
	Name  string `json:"name"  validate:"required"`
	Value string `json:"value"`
}

// SetVariableConfig configures a variable assignment node.
type SetVariableConfig struct {
	Assignments []Assignment `json:"assignments" validate:"required,min=1,dive"`
}

// ConfirmPaymentConfig configures a receipt-confirmation node. The node sends
// an instruction message and suspends until the contact sends a receipt:
// either media of an accepted type or a confirmation keyword, following the
// "approved" edge. A reject keyword follows the "rejected" edge. Anything
// else keeps the wait alive.
type ConfirmPaymentConfig struct {
	Text           string        `json:"text"`
	SaveAs         string        `json:"save_as"`
	AcceptMedia    []string      `json:"accept_media"` // defaults to image, document
	Keywords       []string      `json:"keywords"`
	RejectKeywords []string      `json:"reject_keywords"`
	TimeoutSeconds int           `json:"timeout_seconds"`
	OnTimeout      TimeoutPolicy `json:"on_timeout"`
	TimeoutNodeID  string        `json:"timeout_node_id"`
}

// EndConfig configures a terminal node. OutputVariables selects the context
// variables collected into the execution's final output.
type EndConfig struct {
	OutputVariables []string `json:"output_variables"`
}
