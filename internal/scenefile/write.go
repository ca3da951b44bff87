package scenefile

import (
	"database/sql"
	"fmt"

	"github.com/forge3d/scenetools/internal/scene"
)

// WriteBundle serializes exactly the bundle's entities to path as a
// standalone loadable scene file, replacing any existing file. The
// extension is ensured by callers; membership rows are only written where
// both sides of the link are part of the bundle.
func WriteBundle(path string, b *scene.Bundle) error {
	db, err := create(path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin scene write: %w", err)
	}
	if err := writeBundleTx(tx, b); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit scene write: %w", err)
	}
	return nil
}

func writeBundleTx(tx *sql.Tx, b *scene.Bundle) error {
	// Scene master collections are serialized alongside the bundle's
	// ordinary collections.
	collections := make([]*scene.Collection, 0, len(b.Collections)+len(b.Scenes))
	collSet := make(map[*scene.Collection]bool)
	addColl := func(c *scene.Collection) {
		if c == nil || collSet[c] {
			return
		}
		collSet[c] = true
		collections = append(collections, c)
	}
	for _, c := range b.Collections {
		addColl(c)
	}
	for _, s := range b.Scenes {
		addColl(s.Root)
	}

	objSet := make(map[*scene.Object]bool, len(b.Objects))
	for _, o := range b.Objects {
		objSet[o] = true
	}

	meta := map[string]string{
		"generator": FormatGenerator,
	}
	if len(b.Scenes) > 0 {
		meta["active_scene"] = b.Scenes[0].ID
	}
	for k, v := range meta {
		if _, err := tx.Exec(`INSERT INTO scene_meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("write scene meta: %w", err)
		}
	}

	for _, img := range b.Images {
		_, err := tx.Exec(
			`INSERT INTO images (image_id, name, source_path, packed, payload) VALUES (?, ?, ?, ?, ?)`,
			img.ID, img.Name, img.SourcePath, boolToInt(img.Packed), img.Payload,
		)
		if err != nil {
			return fmt.Errorf("write image %q: %w", img.Name, err)
		}
	}

	for _, mat := range b.Materials {
		_, err := tx.Exec(
			`INSERT INTO materials (material_id, name, use_nodes) VALUES (?, ?, ?)`,
			mat.ID, mat.Name, boolToInt(mat.UseNodes),
		)
		if err != nil {
			return fmt.Errorf("write material %q: %w", mat.Name, err)
		}
		for i, n := range mat.Nodes {
			if n.Image == nil {
				continue
			}
			_, err := tx.Exec(
				`INSERT INTO material_images (material_id, image_id, node_name, node_index) VALUES (?, ?, ?, ?)`,
				mat.ID, n.Image.ID, n.Name, i,
			)
			if err != nil {
				return fmt.Errorf("write material node link %q: %w", mat.Name, err)
			}
		}
	}

	for _, m := range b.Meshes {
		_, err := tx.Exec(
			`INSERT INTO meshes (mesh_id, name, geometry) VALUES (?, ?, ?)`,
			m.ID, m.Name, m.Geometry,
		)
		if err != nil {
			return fmt.Errorf("write mesh %q: %w", m.Name, err)
		}
		for slot, mat := range m.Materials {
			if mat == nil {
				continue
			}
			_, err := tx.Exec(
				`INSERT INTO mesh_materials (mesh_id, material_id, slot) VALUES (?, ?, ?)`,
				m.ID, mat.ID, slot,
			)
			if err != nil {
				return fmt.Errorf("write mesh material slot %q: %w", m.Name, err)
			}
		}
	}

	for _, o := range b.Objects {
		var meshID interface{}
		if o.Mesh != nil {
			meshID = o.Mesh.ID
		}
		var minX, minY, minZ, maxX, maxY, maxZ interface{}
		hasBounds := 0
		if o.Bounds != nil {
			hasBounds = 1
			minX, minY, minZ = o.Bounds.Min.X, o.Bounds.Min.Y, o.Bounds.Min.Z
			maxX, maxY, maxZ = o.Bounds.Max.X, o.Bounds.Max.Y, o.Bounds.Max.Z
		}
		_, err := tx.Exec(
			`INSERT INTO objects (
				object_id, name, loc_x, loc_y, loc_z,
				has_bounds, min_x, min_y, min_z, max_x, max_y, max_z, mesh_id
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			o.ID, o.Name, o.Location.X, o.Location.Y, o.Location.Z,
			hasBounds, minX, minY, minZ, maxX, maxY, maxZ, meshID,
		)
		if err != nil {
			return fmt.Errorf("write object %q: %w", o.Name, err)
		}
	}

	for _, c := range collections {
		if _, err := tx.Exec(`INSERT INTO collections (collection_id, name) VALUES (?, ?)`, c.ID, c.Name); err != nil {
			return fmt.Errorf("write collection %q: %w", c.Name, err)
		}
	}
	for _, c := range collections {
		for i, o := range c.Objects() {
			if !objSet[o] {
				continue
			}
			_, err := tx.Exec(
				`INSERT INTO collection_objects (collection_id, object_id, link_index) VALUES (?, ?, ?)`,
				c.ID, o.ID, i,
			)
			if err != nil {
				return fmt.Errorf("write collection membership %q: %w", c.Name, err)
			}
		}
		for i, child := range c.Children() {
			if !collSet[child] {
				continue
			}
			_, err := tx.Exec(
				`INSERT INTO collection_children (parent_id, child_id, link_index) VALUES (?, ?, ?)`,
				c.ID, child.ID, i,
			)
			if err != nil {
				return fmt.Errorf("write collection hierarchy %q: %w", c.Name, err)
			}
		}
	}

	for _, s := range b.Scenes {
		_, err := tx.Exec(
			`INSERT INTO scenes (scene_id, name, root_collection_id) VALUES (?, ?, ?)`,
			s.ID, s.Name, s.Root.ID,
		)
		if err != nil {
			return fmt.Errorf("write scene %q: %w", s.Name, err)
		}
	}

	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// bundleForDocument stages every entity of the document, not just the
// transitively reachable set, so a save/load round trip preserves orphan
// data too.
func bundleForDocument(d *scene.Document) *scene.Bundle {
	b := &scene.Bundle{
		Collections: d.Collections(),
		Objects:     d.Objects(),
		Meshes:      d.Meshes(),
		Materials:   d.Materials(),
		Images:      d.Images(),
	}
	// Keep the active scene first so the load path can restore it.
	if active := d.ActiveScene(); active != nil {
		b.AddScene(active)
	}
	for _, s := range d.Scenes() {
		if s != d.ActiveScene() {
			b.AddScene(s)
		}
	}
	return b
}

// SaveDocumentAs serializes the whole document to path and records the
// save, clearing the dirty flag.
func SaveDocumentAs(d *scene.Document, path string) error {
	path = EnsureExtension(path, Extension)
	if err := WriteBundle(path, bundleForDocument(d)); err != nil {
		return err
	}
	d.MarkSaved(path)
	return nil
}

// SaveDocument serializes the document to its existing save path.
func SaveDocument(d *scene.Document) error {
	if d.SavePath() == "" {
		return fmt.Errorf("document has no save path")
	}
	return SaveDocumentAs(d, d.SavePath())
}
