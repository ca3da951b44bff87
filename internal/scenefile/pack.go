package scenefile

import (
	"fmt"

	"github.com/forge3d/scenetools/internal/fsutil"
	"github.com/forge3d/scenetools/internal/scene"
)

// PackExternalData embeds the payload of every image that still points at
// an external file. Already packed images and images with no source path
// are left alone, so repeated calls are harmless. Returns the number of
// images packed.
func PackExternalData(d *scene.Document, fs fsutil.FileSystem) (int, error) {
	packed := 0
	for _, img := range d.Images() {
		if img.Packed || img.SourcePath == "" {
			continue
		}
		data, err := fs.ReadFile(img.SourcePath)
		if err != nil {
			return packed, fmt.Errorf("pack image %q: %w", img.Name, err)
		}
		img.Payload = data
		img.Packed = true
		d.MarkDirty()
		packed++
	}
	return packed, nil
}
