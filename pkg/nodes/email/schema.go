package email

func (n *Node) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"template_id": map[string]any{
				"type":        "string",
				"description": "Stored template to send. Takes precedence over subject/html",
			},
			"templateId": map[string]any{
				"type":        "string",
				"description": "Legacy name of template_id",
			},
			"dynamic_data": map[string]any{
				"type":        "object",
				"description": "Template variables. String values support templating with {{ .lead.name }}",
				"examples": []map[string]any{
					{"first_name": "{{ .name }}"},
				},
			},
			"subject": map[string]any{
				"type":        "string",
				"description": "Subject of a raw email. Supports templating",
				"examples":    []string{"Welcome, {{ .name }}"},
			},
			"html": map[string]any{
				"type":        "string",
				"description": "HTML body of a raw email. Supports templating",
			},
			"body": map[string]any{
				"type":        "string",
				"description": "Legacy name of html",
			},
			"from": map[string]any{
				"type":        "string",
				"description": "Sender address. Defaults to the configured sender",
			},
		},
		"anyOf": []map[string]any{
			{"required": []string{"template_id"}},
			{"required": []string{"templateId"}},
			{"required": []string{"subject"}},
			{"required": []string{"html"}},
			{"required": []string{"body"}},
		},
	}
}
