// Package delay provides the node that postpones the next step of a lead.
package delay

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/protocol"
)

// MaxMinutes is the longest delay a time.Duration can hold. Larger values are
// capped to it.
const MaxMinutes = float64(math.MaxInt64 / int64(time.Minute))

// Keys holding the delay, in lookup order.
var minuteKeys = []string{"minutes", "delay_minutes", "delayMinutes"}

// Node schedules the successor minutes after now.
type Node struct{}

func New() *Node {
	return &Node{}
}

func (n *Node) Type() models.NodeType {
	return models.NodeTypeDelay
}

func (n *Node) Name() string {
	return "Delay"
}

func (n *Node) Execute(_ context.Context, input protocol.ExecutionInput) (protocol.Outcome, error) {
	minutes := Minutes(input.Node.Data)
	runAt := input.Now.Add(time.Duration(minutes * float64(time.Minute)))

	return protocol.Outcome{
		Advance:      true,
		RunAt:        runAt,
		ActivityType: models.ActivityDelayStarted,
		Message:      fmt.Sprintf("Waiting %s minutes", strconv.FormatFloat(minutes, 'f', -1, 64)),
		Meta: map[string]any{
			"node_id": input.Node.ID,
			"minutes": minutes,
			"run_at":  runAt.UTC().Format(time.RFC3339),
		},
	}, nil
}

// Minutes reads the delay from node data. Missing, non-numeric and negative
// values are 0, values above MaxMinutes are MaxMinutes.
func Minutes(data map[string]any) float64 {
	for _, key := range minuteKeys {
		value, ok := data[key]
		if !ok || value == nil {
			continue
		}

		return clamp(toFloat(value))
	}

	return 0
}

func toFloat(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}

		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}

		return f
	default:
		return 0
	}
}

func clamp(minutes float64) float64 {
	if math.IsNaN(minutes) || math.IsInf(minutes, 0) || minutes < 0 {
		return 0
	}

	return math.Min(minutes, MaxMinutes)
}

func (n *Node) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"minutes": map[string]any{
				"type":        []string{"number", "string"},
				"description": "Minutes to wait before the next step. Negative or non-numeric values mean no wait",
				"examples":    []any{15, "60"},
			},
			"delay_minutes": map[string]any{
				"type":        []string{"number", "string"},
				"description": "Legacy name of minutes",
			},
			"delayMinutes": map[string]any{
				"type":        []string{"number", "string"},
				"description": "Legacy name of minutes",
			},
		},
	}
}
