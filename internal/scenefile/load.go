package scenefile

import (
	"database/sql"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/forge3d/scenetools/internal/scene"
)

// LoadResult lists exactly the entities a load call introduced into the
// document, so callers never have to diff before/after entity sets.
type LoadResult struct {
	Objects     []*scene.Object
	Collections []*scene.Collection
	Meshes      []*scene.Mesh
	Materials   []*scene.Material
	Images      []*scene.Image
}

// RemoveFrom discards every introduced entity from the document, returning
// it to the state before the load. The footprint scan pass relies on this.
func (r *LoadResult) RemoveFrom(d *scene.Document) {
	for _, o := range r.Objects {
		d.RemoveObject(o)
	}
	for _, c := range r.Collections {
		d.RemoveCollection(c)
	}
	for _, m := range r.Meshes {
		d.RemoveMesh(m)
	}
	for _, m := range r.Materials {
		d.RemoveMaterial(m)
	}
	for _, img := range r.Images {
		d.RemoveImage(img)
	}
}

// Library loads entities from scene files into a live document. It never
// mutates the source files.
type Library struct{}

// LoadObjects materializes only the file's objects (with their data
// payloads, materials and images) into the document, linked to no
// collection. Used by the footprint scan pass.
func (Library) LoadObjects(d *scene.Document, path string) (*LoadResult, error) {
	c, err := readContents(path)
	if err != nil {
		return nil, err
	}
	return c.materialize(d, false), nil
}

// Load materializes the file's objects and collections into the document,
// preserving the collection hierarchy and memberships among the loaded
// entities. Scene master collections of the source file are not appended;
// objects owned only by them arrive unowned.
func (Library) Load(d *scene.Document, path string) (*LoadResult, error) {
	c, err := readContents(path)
	if err != nil {
		return nil, err
	}
	return c.materialize(d, true), nil
}

// LoadDocument opens a scene file as a full document: scenes, active scene
// and entity identities are restored exactly as stored.
func LoadDocument(path string) (*scene.Document, error) {
	c, err := readContents(path)
	if err != nil {
		return nil, err
	}

	d := scene.NewBareDocument()
	for _, img := range c.images {
		d.AddImage(img)
	}
	for _, mat := range c.materials {
		d.AddMaterial(mat)
	}
	for _, m := range c.meshes {
		d.AddMesh(m)
	}
	for _, o := range c.objects {
		d.AddObject(o)
	}
	rootIDs := make(map[string]bool, len(c.scenes))
	for _, s := range c.scenes {
		rootIDs[s.rootID] = true
	}
	for _, cl := range c.collections {
		if !rootIDs[cl.ID] {
			d.AddCollection(cl)
		}
	}
	c.link(d)

	var active *scene.SceneRoot
	for _, s := range c.scenes {
		root := c.collByID[s.rootID]
		if root == nil {
			return nil, fmt.Errorf("scene %q references unknown root collection %s", s.name, s.rootID)
		}
		sr := &scene.SceneRoot{ID: s.id, Name: s.name, Root: root}
		d.AddScene(sr)
		if s.id == c.meta["active_scene"] {
			active = sr
		}
	}
	if len(c.scenes) == 0 {
		// Bundle-only files (a bare export) still get a scene to land in.
		d.NewScene("Scene")
	}
	if active != nil {
		d.SetActiveScene(active)
	}

	d.MarkSaved(path)
	return d, nil
}

// sceneRow is a scenes table row before wiring.
type sceneRow struct {
	id     string
	name   string
	rootID string
}

// contents is a scene file read into memory, wired by entity ID.
type contents struct {
	meta map[string]string

	images    []*scene.Image
	materials []*scene.Material
	meshes    []*scene.Mesh
	objects   []*scene.Object

	collections []*scene.Collection
	collByID    map[string]*scene.Collection
	collObjects map[string][]*scene.Object
	collKids    map[string][]*scene.Collection

	scenes []sceneRow
}

// materialize adds the contents' entities to the document with fresh
// identities. Loaded entities get new IDs so the same source file can be
// imported more than once; duplicate names pick up numeric suffixes.
func (c *contents) materialize(d *scene.Document, withCollections bool) *LoadResult {
	res := &LoadResult{
		Objects:   c.objects,
		Meshes:    c.meshes,
		Materials: c.materials,
		Images:    c.images,
	}
	for _, img := range c.images {
		img.ID = ""
		d.AddImage(img)
	}
	for _, mat := range c.materials {
		mat.ID = ""
		d.AddMaterial(mat)
	}
	for _, m := range c.meshes {
		m.ID = ""
		d.AddMesh(m)
	}
	for _, o := range c.objects {
		o.ID = ""
		d.AddObject(o)
	}
	if withCollections {
		rootIDs := make(map[string]bool, len(c.scenes))
		for _, s := range c.scenes {
			rootIDs[s.rootID] = true
		}
		for _, cl := range c.collections {
			if rootIDs[cl.ID] {
				continue
			}
			cl.ID = ""
			d.AddCollection(cl)
			res.Collections = append(res.Collections, cl)
		}
		c.link(d)
		// Memberships held by the source file's master collections are
		// dropped along with the masters themselves; their objects arrive
		// unowned and the importer re-homes them.
		for _, s := range c.scenes {
			if root := c.collByID[s.rootID]; root != nil {
				for _, o := range root.Objects() {
					d.UnlinkObject(root, o)
				}
				for _, child := range root.Children() {
					d.UnlinkChild(root, child)
				}
			}
		}
	}
	return res
}

// link applies the stored memberships and hierarchy between the contents'
// own entities.
func (c *contents) link(d *scene.Document) {
	for id, objs := range c.collObjects {
		cl := c.collByID[id]
		if cl == nil {
			continue
		}
		for _, o := range objs {
			d.LinkObject(cl, o)
		}
	}
	for id, kids := range c.collKids {
		cl := c.collByID[id]
		if cl == nil {
			continue
		}
		for _, child := range kids {
			d.LinkChild(cl, child)
		}
	}
}

// readContents opens path and reads every table into wired entities.
func readContents(path string) (*contents, error) {
	db, err := open(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	c := &contents{
		meta:        make(map[string]string),
		collByID:    make(map[string]*scene.Collection),
		collObjects: make(map[string][]*scene.Object),
		collKids:    make(map[string][]*scene.Collection),
	}

	if err := c.readMeta(db); err != nil {
		return nil, err
	}
	imgByID, err := c.readImages(db)
	if err != nil {
		return nil, err
	}
	matByID, err := c.readMaterials(db, imgByID)
	if err != nil {
		return nil, err
	}
	meshByID, err := c.readMeshes(db, matByID)
	if err != nil {
		return nil, err
	}
	objByID, err := c.readObjects(db, meshByID)
	if err != nil {
		return nil, err
	}
	if err := c.readCollections(db, objByID); err != nil {
		return nil, err
	}
	if err := c.readScenes(db); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *contents) readMeta(db *sql.DB) error {
	rows, err := db.Query(`SELECT key, value FROM scene_meta`)
	if err != nil {
		return fmt.Errorf("read scene meta: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return fmt.Errorf("scan scene meta: %w", err)
		}
		c.meta[k] = v
	}
	return rows.Err()
}

func (c *contents) readImages(db *sql.DB) (map[string]*scene.Image, error) {
	rows, err := db.Query(`SELECT image_id, name, source_path, packed, payload FROM images ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("read images: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*scene.Image)
	for rows.Next() {
		img := &scene.Image{}
		var packed int
		if err := rows.Scan(&img.ID, &img.Name, &img.SourcePath, &packed, &img.Payload); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		img.Packed = packed != 0
		byID[img.ID] = img
		c.images = append(c.images, img)
	}
	return byID, rows.Err()
}

func (c *contents) readMaterials(db *sql.DB, imgByID map[string]*scene.Image) (map[string]*scene.Material, error) {
	rows, err := db.Query(`SELECT material_id, name, use_nodes FROM materials ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("read materials: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*scene.Material)
	for rows.Next() {
		mat := &scene.Material{}
		var useNodes int
		if err := rows.Scan(&mat.ID, &mat.Name, &useNodes); err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		mat.UseNodes = useNodes != 0
		byID[mat.ID] = mat
		c.materials = append(c.materials, mat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	links, err := db.Query(`SELECT material_id, image_id, node_name FROM material_images ORDER BY material_id, node_index`)
	if err != nil {
		return nil, fmt.Errorf("read material nodes: %w", err)
	}
	defer links.Close()
	for links.Next() {
		var matID, imgID, nodeName string
		if err := links.Scan(&matID, &imgID, &nodeName); err != nil {
			return nil, fmt.Errorf("scan material node: %w", err)
		}
		mat := byID[matID]
		img := imgByID[imgID]
		if mat == nil || img == nil {
			return nil, fmt.Errorf("material node references unknown entity (%s -> %s)", matID, imgID)
		}
		mat.Nodes = append(mat.Nodes, scene.MaterialNode{Name: nodeName, Image: img})
	}
	return byID, links.Err()
}

func (c *contents) readMeshes(db *sql.DB, matByID map[string]*scene.Material) (map[string]*scene.Mesh, error) {
	rows, err := db.Query(`SELECT mesh_id, name, geometry FROM meshes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("read meshes: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*scene.Mesh)
	for rows.Next() {
		m := &scene.Mesh{}
		if err := rows.Scan(&m.ID, &m.Name, &m.Geometry); err != nil {
			return nil, fmt.Errorf("scan mesh: %w", err)
		}
		byID[m.ID] = m
		c.meshes = append(c.meshes, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slots, err := db.Query(`SELECT mesh_id, material_id FROM mesh_materials ORDER BY mesh_id, slot`)
	if err != nil {
		return nil, fmt.Errorf("read mesh materials: %w", err)
	}
	defer slots.Close()
	for slots.Next() {
		var meshID, matID string
		if err := slots.Scan(&meshID, &matID); err != nil {
			return nil, fmt.Errorf("scan mesh material: %w", err)
		}
		m := byID[meshID]
		mat := matByID[matID]
		if m == nil || mat == nil {
			return nil, fmt.Errorf("mesh material references unknown entity (%s -> %s)", meshID, matID)
		}
		m.Materials = append(m.Materials, mat)
	}
	return byID, slots.Err()
}

func (c *contents) readObjects(db *sql.DB, meshByID map[string]*scene.Mesh) (map[string]*scene.Object, error) {
	rows, err := db.Query(`SELECT object_id, name, loc_x, loc_y, loc_z,
		has_bounds, min_x, min_y, min_z, max_x, max_y, max_z, mesh_id
		FROM objects ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("read objects: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*scene.Object)
	for rows.Next() {
		o := &scene.Object{}
		var hasBounds int
		var minX, minY, minZ, maxX, maxY, maxZ sql.NullFloat64
		var meshID sql.NullString
		if err := rows.Scan(&o.ID, &o.Name, &o.Location.X, &o.Location.Y, &o.Location.Z,
			&hasBounds, &minX, &minY, &minZ, &maxX, &maxY, &maxZ, &meshID); err != nil {
			return nil, fmt.Errorf("scan object: %w", err)
		}
		if hasBounds != 0 {
			o.Bounds = &scene.Box{
				Min: r3.Vec{X: minX.Float64, Y: minY.Float64, Z: minZ.Float64},
				Max: r3.Vec{X: maxX.Float64, Y: maxY.Float64, Z: maxZ.Float64},
			}
		}
		if meshID.Valid {
			m := meshByID[meshID.String]
			if m == nil {
				return nil, fmt.Errorf("object %q references unknown mesh %s", o.Name, meshID.String)
			}
			o.Mesh = m
		}
		byID[o.ID] = o
		c.objects = append(c.objects, o)
	}
	return byID, rows.Err()
}

func (c *contents) readCollections(db *sql.DB, objByID map[string]*scene.Object) error {
	rows, err := db.Query(`SELECT collection_id, name FROM collections ORDER BY name`)
	if err != nil {
		return fmt.Errorf("read collections: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		cl := &scene.Collection{}
		if err := rows.Scan(&cl.ID, &cl.Name); err != nil {
			return fmt.Errorf("scan collection: %w", err)
		}
		c.collByID[cl.ID] = cl
		c.collections = append(c.collections, cl)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	members, err := db.Query(`SELECT collection_id, object_id FROM collection_objects ORDER BY collection_id, link_index`)
	if err != nil {
		return fmt.Errorf("read collection memberships: %w", err)
	}
	defer members.Close()
	for members.Next() {
		var collID, objID string
		if err := members.Scan(&collID, &objID); err != nil {
			return fmt.Errorf("scan collection membership: %w", err)
		}
		o := objByID[objID]
		if c.collByID[collID] == nil || o == nil {
			return fmt.Errorf("collection membership references unknown entity (%s -> %s)", collID, objID)
		}
		c.collObjects[collID] = append(c.collObjects[collID], o)
	}
	if err := members.Err(); err != nil {
		return err
	}

	kids, err := db.Query(`SELECT parent_id, child_id FROM collection_children ORDER BY parent_id, link_index`)
	if err != nil {
		return fmt.Errorf("read collection hierarchy: %w", err)
	}
	defer kids.Close()
	for kids.Next() {
		var parentID, childID string
		if err := kids.Scan(&parentID, &childID); err != nil {
			return fmt.Errorf("scan collection hierarchy: %w", err)
		}
		child := c.collByID[childID]
		if c.collByID[parentID] == nil || child == nil {
			return fmt.Errorf("collection hierarchy references unknown entity (%s -> %s)", parentID, childID)
		}
		c.collKids[parentID] = append(c.collKids[parentID], child)
	}
	return kids.Err()
}

func (c *contents) readScenes(db *sql.DB) error {
	rows, err := db.Query(`SELECT scene_id, name, root_collection_id FROM scenes ORDER BY name`)
	if err != nil {
		return fmt.Errorf("read scenes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s sceneRow
		if err := rows.Scan(&s.id, &s.name, &s.rootID); err != nil {
			return fmt.Errorf("scan scene: %w", err)
		}
		c.scenes = append(c.scenes, s)
	}
	return rows.Err()
}
