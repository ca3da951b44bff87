// Package sweep deletes empty collections from a document.
package sweep

import (
	"github.com/forge3d/scenetools/internal/config"
	"github.com/forge3d/scenetools/internal/monitoring"
	"github.com/forge3d/scenetools/internal/scene"
)

// Sweeper removes collections with no objects and no children.
type Sweeper struct {
	Reporter *monitoring.Reporter
	Config   *config.Settings
}

// New returns a Sweeper with defaults for any nil capability.
func New(rep *monitoring.Reporter, cfg *config.Settings) *Sweeper {
	if rep == nil {
		rep = monitoring.NewReporter()
	}
	if cfg == nil {
		cfg = config.EmptySettings()
	}
	return &Sweeper{Reporter: rep, Config: cfg}
}

// Run deletes every collection with zero linked objects and zero child
// collections, except the protected default. Scene root collections are
// owned by their scene and are never candidates. Each pass snapshots the
// candidate list before deleting, and passes repeat until none deletes
// anything, so a parent emptied by its child's deletion goes in the same
// run and a second run always deletes nothing. Returns the number of
// deletions; nothing to delete is not an error.
func (s *Sweeper) Run(doc *scene.Document) int {
	protected := s.Config.GetProtectedCollection()
	deleted := 0
	for {
		removed := 0
		for _, c := range doc.Collections() {
			if c.Name == protected || !c.Empty() {
				continue
			}
			doc.RemoveCollection(c)
			s.Reporter.Infof("deleted empty collection %q", c.Name)
			removed++
		}
		deleted += removed
		if removed == 0 {
			break
		}
	}
	if deleted == 0 {
		s.Reporter.Infof("no empty collections to delete")
	} else {
		s.Reporter.Infof("deleted %d empty collections", deleted)
	}
	return deleted
}
