package validation

import "github.com/zapflow/zapflow/pkg/models"

// configSchemas holds the JSON schema for each node type's configuration,
// checked when a workflow is activated so malformed configs never reach the
// executor.
var configSchemas = map[models.NodeType]string{
	models.NodeTypeTriggerMessage: `{
		"type": "object",
		"properties": {
			"match": {"type": "string", "enum": ["exact", "contains", "any"]},
			"keywords": {"type": "array", "items": {"type": "string"}},
			"case_sensitive": {"type": "boolean"}
		}
	}`,
	models.NodeTypeTriggerSchedule: `{
		"type": "object",
		"properties": {
			"cron": {"type": "string", "minLength": 1},
			"session_id": {"type": "string", "minLength": 1},
			"contact_id": {"type": "string", "minLength": 1}
		},
		"required": ["cron", "session_id", "contact_id"]
	}`,
	models.NodeTypeTriggerManual: `{
		"type": "object"
	}`,
	models.NodeTypeSendMessage: `{
		"type": "object",
		"properties": {
			"text": {"type": "string", "minLength": 1},
			"delay_seconds": {"type": "integer", "minimum": 0}
		},
		"required": ["text"]
	}`,
	models.NodeTypeSendMedia: `{
		"type": "object",
		"properties": {
			"url": {"type": "string", "minLength": 1},
			"caption": {"type": "string"},
			"media_type": {"type": "string", "enum": ["image", "document", "audio", "video"]},
			"delay_seconds": {"type": "integer", "minimum": 0}
		},
		"required": ["url"]
	}`,
	models.NodeTypeSendButtons: `{
		"type": "object",
		"properties": {
			"text": {"type": "string", "minLength": 1},
			"buttons": {
				"type": "array",
				"minItems": 1,
				"items": {
					"type": "object",
					"properties": {
						"id": {"type": "string", "minLength": 1},
						"label": {"type": "string", "minLength": 1}
					},
					"required": ["id", "label"]
				}
			},
			"save_as": {"type": "string"},
			"timeout_seconds": {"type": "integer", "minimum": 0},
			"on_timeout": {"type": "string", "enum": ["end", "goto_node"]},
			"timeout_node_id": {"type": "string"}
		},
		"required": ["text", "buttons"]
	}`,
	models.NodeTypeSendList: `{
		"type": "object",
		"properties": {
			"text": {"type": "string", "minLength": 1},
			"button_label": {"type": "string"},
			"sections": {
				"type": "array",
				"minItems": 1,
				"items": {
					"type": "object",
					"properties": {
						"title": {"type": "string"},
						"rows": {
							"type": "array",
							"minItems": 1,
							"items": {
								"type": "object",
								"properties": {
									"id": {"type": "string", "minLength": 1},
									"title": {"type": "string", "minLength": 1},
									"description": {"type": "string"}
								},
								"required": ["id", "title"]
							}
						}
					},
					"required": ["rows"]
				}
			}
		},
		"required": ["text", "sections"]
	}`,
	models.NodeTypeCondition: `{
		"type": "object",
		"properties": {
			"expression": {"type": "string", "minLength": 1}
		},
		"required": ["expression"]
	}`,
	models.NodeTypeSwitch: `{
		"type": "object",
		"properties": {
			"rules": {
				"type": "array",
				"minItems": 1,
				"items": {
					"type": "object",
					"properties": {
						"value1": {"type": "string", "minLength": 1},
						"operator": {"type": "string", "enum": [
							"equals", "not_equals",
							"greater_than", "greater_equal", "less_than", "less_equal",
							"contains", "not_contains", "starts_with", "ends_with"
						]},
						"value2": {"type": "string"},
						"output": {"type": "string", "minLength": 1}
					},
					"required": ["value1", "operator", "output"]
				}
			}
		},
		"required": ["rules"]
	}`,
	models.NodeTypeWait: `{
		"type": "object",
		"properties": {
			"duration_seconds": {"type": "integer", "minimum": 1}
		},
		"required": ["duration_seconds"]
	}`,
	models.NodeTypeWaitReply: `{
		"type": "object",
		"properties": {
			"save_as": {"type": "string"},
			"routes": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"condition": {"type": "string", "minLength": 1},
						"keywords": {"type": "array", "minItems": 1, "items": {"type": "string"}}
					},
					"required": ["condition", "keywords"]
				}
			},
			"timeout_seconds": {"type": "integer", "minimum": 0},
			"on_timeout": {"type": "string", "enum": ["end", "goto_node"]},
			"timeout_node_id": {"type": "string"}
		}
	}`,
	models.NodeTypeLoop: `{
		"type": "object",
		"properties": {
			"items": {"type": "string", "minLength": 1},
			"item_variable": {"type": "string"},
			"index_variable": {"type": "string"}
		},
		"required": ["items"]
	}`,
	models.NodeTypeSetVariable: `{
		"type": "object",
		"properties": {
			"assignments": {
				"type": "array",
				"minItems": 1,
				"items": {
					"type": "object",
					"properties": {
						"name": {"type": "string", "minLength": 1},
						"value": {"type": "string"}
					},
					"required": ["name"]
				}
			}
		},
		"required": ["assignments"]
	}`,
	models.NodeTypeConfirmPayment: `{
		"type": "object",
		"properties": {
			"text": {"type": "string"},
			"save_as": {"type": "string"},
			"accept_media": {"type": "array", "items": {"type": "string", "enum": ["image", "document", "audio", "video"]}},
			"keywords": {"type": "array", "items": {"type": "string"}},
			"reject_keywords": {"type": "array", "items": {"type": "string"}},
			"timeout_seconds": {"type": "integer", "minimum": 0},
			"on_timeout": {"type": "string", "enum": ["end", "goto_node"]},
			"timeout_node_id": {"type": "string"}
		}
	}`,
	models.NodeTypeEnd: `{
		"type": "object",
		"properties": {
			"output_variables": {"type": "array", "items": {"type": "string"}}
		}
	}`,
}
