package file

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/dukex/leadflow/pkg/graph"
	"github.com/dukex/leadflow/pkg/persistence"
)

// FlowLoader reads raw flow documents from one directory. The owner is taken
// from the document's top-level "owner_id".
type FlowLoader struct {
	p   *Persistence
	dir string
}

// Name returns the directory this loader reads from.
func (fl *FlowLoader) Name() string {
	return fl.dir
}

// TryLoad reads <dir>/<id>.json. Missing directories, missing files and
// unparseable documents are all reported as not found.
func (fl *FlowLoader) TryLoad(_ context.Context, id string) (persistence.FlowDocument, bool, error) {
	if validateID(id) != nil {
		return persistence.FlowDocument{}, false, nil
	}

	body, err := os.ReadFile(fl.p.path(fl.dir, id, ".json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return persistence.FlowDocument{}, false, nil
		}

		return persistence.FlowDocument{}, false, persistence.Unavailable("LoadFlow", id, err)
	}

	doc, err := graph.Decode(body)
	if err != nil {
		return persistence.FlowDocument{}, false, nil
	}

	ownerID, _ := doc["owner_id"].(string)

	return persistence.FlowDocument{OwnerID: ownerID, Raw: doc}, true, nil
}

// SaveFlowDocument stores a raw flow document under flows/ or, when legacy
// is set, under automations/.
func (fp *Persistence) SaveFlowDocument(id string, doc any, legacy bool) error {
	if err := validateID(id); err != nil {
		return err
	}

	fp.mu.Lock()
	defer fp.mu.Unlock()

	dir := "flows"
	if legacy {
		dir = "automations"
	}

	return fp.writeJSON(dir, id, doc)
}
