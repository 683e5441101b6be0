// Package flowstore resolves flow definitions from the stored document
// locations known to a persistence backend.
package flowstore

import (
	"context"
	"log/slog"

	"github.com/dukex/leadflow/pkg/graph"
	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence"
)

// Store probes its loaders in order and returns the first flow found.
type Store struct {
	loaders []persistence.FlowLoader
	logger  *slog.Logger
}

func New(logger *slog.Logger, loaders ...persistence.FlowLoader) *Store {
	return &Store{
		loaders: loaders,
		logger:  logger.With("module", "flowstore"),
	}
}

// LoadFlow returns the normalized flow or persistence.ErrFlowNotFound when no
// location holds a parseable document. A loader failing for any reason other
// than a missing location aborts the lookup with that error.
func (s *Store) LoadFlow(ctx context.Context, flowID string) (*models.Flow, error) {
	for _, loader := range s.loaders {
		doc, found, err := loader.TryLoad(ctx, flowID)
		if err != nil {
			s.logger.ErrorContext(ctx, "Flow loader failed", "flow_id", flowID, "loader", loader.Name(), "error", err)

			return nil, err
		}

		if !found {
			continue
		}

		s.logger.DebugContext(ctx, "Flow loaded", "flow_id", flowID, "loader", loader.Name())

		return &models.Flow{
			ID:      flowID,
			OwnerID: doc.OwnerID,
			Graph:   graph.Normalize(doc.Raw),
		}, nil
	}

	return nil, persistence.NewStoreError("LoadFlow", flowID, persistence.ErrFlowNotFound)
}
