package services

import (
	"context"
	"fmt"

	"github.com/dukex/leadflow/pkg/flowstore"
	"github.com/dukex/leadflow/pkg/graph"
	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/registry"
)

// FlowReport is the result of checking a stored flow.
type FlowReport struct {
	FlowID   string   `json:"flow_id"`
	OwnerID  string   `json:"owner_id"`
	Valid    bool     `json:"valid"`
	Nodes    int      `json:"nodes"`
	Edges    int      `json:"edges"`
	EntryID  string   `json:"entry_node_id,omitempty"`
	Problems []string `json:"problems"`
	Warnings []string `json:"warnings"`
}

type Flow struct {
	store    *flowstore.Store
	registry *registry.Registry
}

func NewFlow(store *flowstore.Store, registry *registry.Registry) *Flow {
	return &Flow{store: store, registry: registry}
}

// Validate loads a flow and reports everything that would fail its jobs:
// missing entry node, dangling edges, cycles and node data rejected by the
// node type's schema.
func (f *Flow) Validate(ctx context.Context, flowID string) (*FlowReport, error) {
	flow, err := f.store.LoadFlow(ctx, flowID)
	if err != nil {
		return nil, err
	}

	return f.Check(flow), nil
}

// Check validates an already loaded flow.
func (f *Flow) Check(flow *models.Flow) *FlowReport {
	report := &FlowReport{
		FlowID:   flow.ID,
		OwnerID:  flow.OwnerID,
		Nodes:    len(flow.Graph.Nodes),
		Edges:    len(flow.Graph.Edges),
		Problems: make([]string, 0),
		Warnings: make([]string, 0),
	}

	entry := graph.EntryNode(flow.Graph)
	if entry == nil {
		report.Problems = append(report.Problems, "flow has no entry node")
	} else {
		report.EntryID = entry.ID
	}

	for _, edge := range flow.Graph.Edges {
		if graph.FindNode(flow.Graph.Nodes, edge.Source) == nil {
			report.Problems = append(report.Problems, fmt.Sprintf("edge source %s is not a node", edge.Source))
		}

		if graph.FindNode(flow.Graph.Nodes, edge.Target) == nil {
			report.Problems = append(report.Problems, fmt.Sprintf("edge target %s is not a node", edge.Target))
		}
	}

	cycleReported := false

	for _, node := range flow.Graph.Nodes {
		if err := f.registry.ValidateNode(node); err != nil {
			report.Problems = append(report.Problems, err.Error())
		}

		if !f.registry.IsRegistered(node.Type) {
			report.Warnings = append(report.Warnings, fmt.Sprintf("node %s has unknown type %q and will pass through", node.ID, node.Type))
		}

		if cycleReported {
			continue
		}

		if _, err := graph.ChainFrom(flow.Graph, node.ID); err != nil {
			cycleReported = true
			report.Problems = append(report.Problems, fmt.Sprintf("node %s: %v", node.ID, err))
		}
	}

	report.Valid = len(report.Problems) == 0

	return report
}
