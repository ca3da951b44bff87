package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/forge3d/scenetools/internal/config"
	"github.com/forge3d/scenetools/internal/exporter"
	"github.com/forge3d/scenetools/internal/fsutil"
	"github.com/forge3d/scenetools/internal/importer"
	"github.com/forge3d/scenetools/internal/monitoring"
	"github.com/forge3d/scenetools/internal/report"
	"github.com/forge3d/scenetools/internal/scene"
	"github.com/forge3d/scenetools/internal/scenefile"
	"github.com/forge3d/scenetools/internal/sweep"
	"github.com/forge3d/scenetools/internal/version"
)

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	switch command {
	case "import":
		handleImport(args)
	case "export":
		handleExport(args)
	case "sweep":
		handleSweep(args)
	case "info":
		handleInfo(args)
	case "migrate":
		handleMigrate(args)
	case "new":
		handleNew(args)
	case "version":
		fmt.Printf("scenetools version %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`scenetools - batch content tools for .scene documents

Usage: scenetools <command> [options]

Commands:
  import     Import every scene file from a folder onto a grid
  export     Export one collection to a standalone scene file
  sweep      Delete empty collections from a document
  info       Show a scene file's contents summary
  migrate    Manage a scene file's schema version
  new        Create an empty scene document
  version    Show scenetools version
  help       Show this help message

Common Flags:
  -config <file>   JSON settings file (partial overrides of defaults)

Examples:
  scenetools new -path assets/library.scene
  scenetools import -doc world.scene -folder assets/props -columns 4
  scenetools export -doc world.scene -collection Props -out props.scene
  scenetools sweep -doc world.scene
  scenetools info -path props.scene
  scenetools migrate version -path old.scene`)
}

// mustConfig loads the settings file when given, defaults otherwise.
func mustConfig(path string) *config.Settings {
	if path == "" {
		return config.EmptySettings()
	}
	cfg, err := config.LoadSettings(path)
	if err != nil {
		log.Fatalf("load config %s: %v", path, err)
	}
	return cfg
}

// mustDocument opens the scene document every mutating command works on.
func mustDocument(path string) *scene.Document {
	if path == "" {
		log.Fatal("-doc is required")
	}
	doc, err := scenefile.LoadDocument(path)
	if err != nil {
		log.Fatalf("open document %s: %v", path, err)
	}
	return doc
}

// printStatuses echoes the reporter's classified messages to stdout.
func printStatuses(rep *monitoring.Reporter) {
	for _, s := range rep.Statuses() {
		fmt.Printf("[%s] %s\n", s.Level, s.Message)
	}
}

func handleImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	docPath := fs.String("doc", "", "scene document to import into (required)")
	folder := fs.String("folder", "", "folder of scene files (required)")
	spacingX := fs.Float64("spacing-x", config.DefaultSpacing, "extra spacing between columns")
	spacingY := fs.Float64("spacing-y", config.DefaultSpacing, "extra spacing between rows")
	columns := fs.Int("columns", config.DefaultColumns, "grid columns, 0 for a single row")
	refX := fs.Float64("ref-x", 0, "explicit grid start X (with -ref-y)")
	refY := fs.Float64("ref-y", 0, "explicit grid start Y (with -ref-x)")
	htmlPath := fs.String("report-html", "", "write an HTML layout report")
	pngPath := fs.String("report-png", "", "write a PNG layout diagram")
	configPath := fs.String("config", "", "JSON settings file")
	fs.Parse(args)

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg := mustConfig(*configPath)
	if !set["spacing-x"] {
		*spacingX = cfg.GetSpacingX()
	}
	if !set["spacing-y"] {
		*spacingY = cfg.GetSpacingY()
	}
	if !set["columns"] {
		*columns = cfg.GetColumns()
	}
	opts := importer.Options{
		Folder:   *folder,
		SpacingX: *spacingX,
		SpacingY: *spacingY,
		Columns:  *columns,
	}
	if set["ref-x"] || set["ref-y"] {
		if !set["ref-x"] || !set["ref-y"] {
			log.Fatal("-ref-x and -ref-y must be given together")
		}
		opts.Reference = &importer.Reference{X: *refX, Y: *refY}
	}

	doc := mustDocument(*docPath)
	rep := monitoring.NewReporter()
	imp := importer.New(scenefile.Library{}, fsutil.OSFileSystem{}, rep, cfg)

	res, err := imp.Run(doc, opts)
	printStatuses(rep)
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}
	if err := scenefile.SaveDocument(doc); err != nil {
		log.Fatalf("save document: %v", err)
	}

	if *htmlPath != "" {
		if err := report.WriteHTMLFile(*htmlPath, res); err != nil {
			log.Fatalf("write HTML report: %v", err)
		}
		fmt.Printf("wrote %s\n", *htmlPath)
	}
	if *pngPath != "" {
		if err := report.WritePNG(*pngPath, res); err != nil {
			log.Fatalf("write PNG diagram: %v", err)
		}
		fmt.Printf("wrote %s\n", *pngPath)
	}
}

func handleExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	docPath := fs.String("doc", "", "scene document to export from (required)")
	collection := fs.String("collection", "", "collection to export (required)")
	out := fs.String("out", "", "target scene file (required)")
	configPath := fs.String("config", "", "JSON settings file")
	fs.Parse(args)

	if *collection == "" || *out == "" {
		log.Fatal("-collection and -out are required")
	}
	doc := mustDocument(*docPath)
	rep := monitoring.NewReporter()
	exp := exporter.New(nil, fsutil.OSFileSystem{}, rep, mustConfig(*configPath))

	written, err := exp.Run(doc, *collection, *out)
	printStatuses(rep)
	if err != nil {
		log.Fatalf("export failed: %v", err)
	}
	fmt.Printf("wrote %s\n", written)
}

func handleSweep(args []string) {
	fs := flag.NewFlagSet("sweep", flag.ExitOnError)
	docPath := fs.String("doc", "", "scene document to sweep (required)")
	configPath := fs.String("config", "", "JSON settings file")
	fs.Parse(args)

	doc := mustDocument(*docPath)
	rep := monitoring.NewReporter()
	deleted := sweep.New(rep, mustConfig(*configPath)).Run(doc)
	printStatuses(rep)
	if deleted > 0 {
		if err := scenefile.SaveDocument(doc); err != nil {
			log.Fatalf("save document: %v", err)
		}
	}
}

func handleInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	path := fs.String("path", "", "scene file to describe (required)")
	fs.Parse(args)

	if *path == "" {
		log.Fatal("-path is required")
	}
	s, err := scenefile.Describe(*path)
	if err != nil {
		log.Fatalf("describe %s: %v", *path, err)
	}
	fmt.Printf("%s (generator %q)\n", s.Path, s.Generator)
	fmt.Printf("  scenes:      %s\n", strings.Join(s.Scenes, ", "))
	fmt.Printf("  collections: %d\n", s.Collections)
	fmt.Printf("  objects:     %d\n", s.Objects)
	fmt.Printf("  meshes:      %d\n", s.Meshes)
	fmt.Printf("  materials:   %d\n", s.Materials)
	fmt.Printf("  images:      %d (%d packed)\n", s.Images, s.Packed)
}

func handleMigrate(args []string) {
	if len(args) < 1 {
		log.Fatal("usage: scenetools migrate <up|down|version|force> -path file.scene")
	}
	direction := args[0]

	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	path := fs.String("path", "", "scene file to migrate (required)")
	forceVersion := fs.Int("version", 0, "schema version for force")
	fs.Parse(args[1:])

	if *path == "" {
		log.Fatal("-path is required")
	}
	switch direction {
	case "up":
		if err := scenefile.Migrate(*path); err != nil {
			log.Fatalf("migrate up: %v", err)
		}
		fmt.Println("migrated up")
	case "down":
		if err := scenefile.MigrateDown(*path); err != nil {
			log.Fatalf("migrate down: %v", err)
		}
		fmt.Println("migrated down one step")
	case "version":
		v, dirty, err := scenefile.MigrateVersion(*path)
		if err != nil {
			log.Fatalf("migrate version: %v", err)
		}
		fmt.Printf("schema version %d (dirty=%v)\n", v, dirty)
	case "force":
		if err := scenefile.MigrateForce(*path, *forceVersion); err != nil {
			log.Fatalf("migrate force: %v", err)
		}
		fmt.Printf("forced schema version %d\n", *forceVersion)
	default:
		log.Fatalf("unknown migrate direction %q", direction)
	}
}

func handleNew(args []string) {
	fs := flag.NewFlagSet("new", flag.ExitOnError)
	path := fs.String("path", "", "scene file to create (required)")
	fs.Parse(args)

	if *path == "" {
		log.Fatal("-path is required")
	}
	out := scenefile.EnsureExtension(*path, scenefile.Extension)
	if err := scenefile.SaveDocumentAs(scene.NewDocument(), out); err != nil {
		log.Fatalf("create %s: %v", out, err)
	}
	fmt.Printf("wrote %s\n", out)
}
