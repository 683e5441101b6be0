// Package registry maps node types to their executors.
package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/nodes/passthrough"
	"github.com/dukex/leadflow/pkg/protocol"
	"github.com/xeipuuv/gojsonschema"
)

type Registry struct {
	logger    *slog.Logger
	executors map[models.NodeType]protocol.NodeExecutor
	fallback  protocol.NodeExecutor
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:    log,
		executors: make(map[models.NodeType]protocol.NodeExecutor),
		fallback:  passthrough.New("*", "Passthrough"),
	}
}

// Register adds an executor, replacing any executor of the same type.
func (r *Registry) Register(executor protocol.NodeExecutor) {
	nodeType := models.NormalizeNodeType(string(executor.Type()))

	if _, exists := r.executors[nodeType]; exists {
		r.logger.Warn("Replacing node executor", "node_type", nodeType)
	}

	r.executors[nodeType] = executor
}

// Executor returns the executor for a stored node type. Unknown types get
// the passthrough executor.
//
//nolint:ireturn
func (r *Registry) Executor(nodeType string) protocol.NodeExecutor {
	executor, ok := r.executors[models.NormalizeNodeType(nodeType)]
	if !ok {
		return r.fallback
	}

	return executor
}

// IsRegistered reports whether nodeType has a dedicated executor.
func (r *Registry) IsRegistered(nodeType string) bool {
	_, ok := r.executors[models.NormalizeNodeType(nodeType)]

	return ok
}

// Types returns the registered node types in order.
func (r *Registry) Types() []models.NodeType {
	types := make([]models.NodeType, 0, len(r.executors))
	for nodeType := range r.executors {
		types = append(types, nodeType)
	}

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}

// ValidateNode checks the node data against its executor's JSON schema.
func (r *Registry) ValidateNode(node models.Node) error {
	data := node.Data
	if data == nil {
		data = map[string]any{}
	}

	schemaLoader := gojsonschema.NewGoLoader(r.Executor(node.Type).Schema())
	dataLoader := gojsonschema.NewGoLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("node %s: %w", node.ID, err)
	}

	if !result.Valid() {
		errors := make([]string, 0, len(result.Errors()))
		for _, resultErr := range result.Errors() {
			errors = append(errors, resultErr.String())
		}

		return fmt.Errorf("node %s (%s): schema validation failed: %s", node.ID, node.Type, strings.Join(errors, "; "))
	}

	return nil
}
