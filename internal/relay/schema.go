package relay

import "github.com/google/jsonschema-go/jsonschema"

// SchemaName labels the response schema in the upstream request.
const SchemaName = "portfolio_chat_response"

// ResponseSchema describes the JSON object the model must answer with.
// Confidence has no bounds here; Respond clamps it after decoding.
func ResponseSchema() *jsonschema.Schema {
	str := func(desc string) *jsonschema.Schema {
		return &jsonschema.Schema{Type: "string", Description: desc}
	}
	source := &jsonschema.Schema{
		Type:     "object",
		Required: []string{"type", "title"},
		Properties: map[string]*jsonschema.Schema{
			"type":        {Type: "string", Enum: []any{"project", "media", "timeline"}},
			"title":       str("exact title of the knowledge base item"),
			"description": str("one-line description"),
			"date":        str("date or duration"),
			"url":         str("link, when the item has one"),
		},
	}
	return &jsonschema.Schema{
		Type:     "object",
		Required: []string{"content", "sources", "confidence", "isRelevant"},
		Properties: map[string]*jsonschema.Schema{
			"content":    str("answer shown to the visitor"),
			"sources":    {Type: "array", Items: source},
			"confidence": {Type: "number", Description: "between 0 and 1"},
			"isRelevant": {Type: "boolean"},
		},
	}
}
