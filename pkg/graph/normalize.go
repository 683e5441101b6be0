// Package graph turns stored flow documents into the canonical node/edge form
// and answers routing questions on it.
package graph

import (
	"encoding/json"
	"fmt"

	"github.com/dukex/leadflow/pkg/models"
)

// Keys under which historical flow documents nested the actual graph. A
// reactflow wrapper always wins; the others are only tried when the document
// has neither nodes nor edges of its own.
var wrapperKeys = []string{"reactflow", "flow_json", "definition", "graph"}

// Normalize converts a raw flow document into a models.Graph. The returned
// Nodes and Edges are always non-nil, even when the document carries neither.
func Normalize(raw map[string]any) models.Graph {
	doc := unwrap(raw, 0)

	return models.Graph{
		Nodes: decodeNodes(doc["nodes"]),
		Edges: decodeEdges(doc["edges"]),
	}
}

// Decode parses a stored document that may be a JSON object, a JSON string
// holding an object, or raw bytes.
func Decode(value any) (map[string]any, error) {
	switch v := value.(type) {
	case map[string]any:
		return v, nil
	case string:
		return decodeBytes([]byte(v))
	case []byte:
		return decodeBytes(v)
	case json.RawMessage:
		return decodeBytes(v)
	case nil:
		return nil, fmt.Errorf("empty flow document")
	default:
		return nil, fmt.Errorf("unsupported flow document type %T", value)
	}
}

func decodeBytes(data []byte) (map[string]any, error) {
	var v any

	err := json.Unmarshal(data, &v)
	if err != nil {
		return nil, fmt.Errorf("failed to parse flow document: %w", err)
	}

	// Some rows hold the document JSON-encoded twice.
	if s, ok := v.(string); ok {
		return decodeBytes([]byte(s))
	}

	doc, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("flow document is %T, want object", v)
	}

	return doc, nil
}

func unwrap(doc map[string]any, depth int) map[string]any {
	if doc == nil {
		return map[string]any{}
	}

	if depth > len(wrapperKeys) {
		return doc
	}

	if inner, ok := doc["reactflow"]; ok {
		nested, err := Decode(inner)
		if err == nil {
			return unwrap(nested, depth+1)
		}
	}

	_, hasNodes := doc["nodes"]
	_, hasEdges := doc["edges"]

	if hasNodes || hasEdges {
		return doc
	}

	for _, key := range wrapperKeys[1:] {
		inner, ok := doc[key]
		if !ok {
			continue
		}

		nested, err := Decode(inner)
		if err != nil {
			continue
		}

		return unwrap(nested, depth+1)
	}

	return doc
}

func decodeNodes(value any) []models.Node {
	items, _ := value.([]any)
	nodes := make([]models.Node, 0, len(items))

	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}

		id := stringField(m, "id")
		if id == "" {
			continue
		}

		data, _ := m["data"].(map[string]any)
		if data == nil {
			data = map[string]any{}
		}

		nodeType := stringField(m, "type")
		if nodeType == "" {
			// Builders that use a generic renderer keep the real type in data.
			nodeType = stringField(data, "type")
		}

		nodes = append(nodes, models.Node{ID: id, Type: nodeType, Data: data})
	}

	return nodes
}

func decodeEdges(value any) []models.Edge {
	items, _ := value.([]any)
	edges := make([]models.Edge, 0, len(items))

	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}

		edge := models.Edge{
			ID:     stringField(m, "id"),
			Source: stringField(m, "source"),
			Target: stringField(m, "target"),
		}
		if edge.Source == "" || edge.Target == "" {
			continue
		}

		edges = append(edges, edge)
	}

	return edges
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%v", v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}
