// Package file provides file-based persistence for local runs and tests. All
// operations of one Persistence are serialized by a mutex; it is not meant to
// be shared by several processes.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dukex/leadflow/pkg/persistence"
)

const (
	queueDir      = "queue"
	leadsDir      = "leads"
	activitiesDir = "activities"
)

// Persistence implements persistence.Persistence on top of a directory tree:
//
//	flows/<id>.json        current flow documents
//	automations/<id>.json  legacy flow documents
//	leads/<id>.json
//	queue/<id>.json
//	activities/<lead>.jsonl  only written when the directory exists
type Persistence struct {
	root         string
	mu           sync.Mutex
	queueRepo    *QueueRepository
	leadRepo     *LeadRepository
	activityRepo *ActivityRepository
	flowLoaders  []persistence.FlowLoader
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	p := &Persistence{root: cleanRoot}
	p.queueRepo = &QueueRepository{p: p}
	p.leadRepo = &LeadRepository{p: p}
	p.activityRepo = &ActivityRepository{p: p}
	p.flowLoaders = []persistence.FlowLoader{
		&FlowLoader{p: p, dir: "flows"},
		&FlowLoader{p: p, dir: "automations"},
	}

	return p
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return persistence.Unavailable("HealthCheck", fp.root, err)
	}

	return nil
}

func (fp *Persistence) QueueRepository() persistence.QueueRepository {
	return fp.queueRepo
}

func (fp *Persistence) LeadRepository() persistence.LeadRepository {
	return fp.leadRepo
}

func (fp *Persistence) ActivityRepository() persistence.ActivityRepository {
	return fp.activityRepo
}

func (fp *Persistence) FlowLoaders() []persistence.FlowLoader {
	return fp.flowLoaders
}

// validateID checks that the ID is safe for file operations.
func validateID(id string) error {
	if id == "" {
		return errors.New("ID cannot be empty")
	}

	if strings.Contains(id, "..") || strings.ContainsAny(id, `/\`) {
		return errors.New("ID contains invalid characters")
	}

	return nil
}

func (fp *Persistence) path(dir, id, ext string) string {
	return filepath.Join(fp.root, dir, id+ext)
}

func (fp *Persistence) writeJSON(dir, id string, value any) error {
	err := os.MkdirAll(filepath.Join(fp.root, dir), 0750)
	if err != nil {
		return fmt.Errorf("failed to create %s directory: %w", dir, err)
	}

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s/%s: %w", dir, id, err)
	}

	// Write then rename so a crash never leaves a half written job.
	target := fp.path(dir, id, ".json")
	tmp := target + ".tmp"

	err = os.WriteFile(tmp, data, 0600)
	if err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", dir, id, err)
	}

	return os.Rename(tmp, target)
}

func (fp *Persistence) readJSON(dir, id string, value any) error {
	body, err := os.ReadFile(fp.path(dir, id, ".json"))
	if err != nil {
		return err
	}

	return json.Unmarshal(body, value)
}

// EnableActivities creates the activities directory so that activity records
// are kept.
func (fp *Persistence) EnableActivities() error {
	return os.MkdirAll(filepath.Join(fp.root, activitiesDir), 0750)
}
