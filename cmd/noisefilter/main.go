// Command noisefilter labels ground and noise points in ASCII point clouds
// using elevation tiles from a local SQLite store.
//
// Import a reference grid for a tile, then label clouds against it:
//
//	noisefilter -db tiles.db -tile 3_4 -import-grid ahn_3_4.asc
//	noisefilter -db tiles.db -out-dir labelled/ cloud_3_4_a.asc cloud_3_4_b.asc
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/pointcloud.labeler/internal/fsutil"
	"github.com/banshee-data/pointcloud.labeler/internal/lidar/storage/sqlite"
	"github.com/banshee-data/pointcloud.labeler/internal/version"
)

func main() {
	opts := options{fs: fsutil.OSFileSystem{}}
	var showVersion bool

	flag.StringVar(&opts.configPath, "config", "", "path to tuning config JSON (defaults to config/tuning.defaults.json when present, else built-in defaults)")
	flag.StringVar(&opts.dbPath, "db", "tiles.db", "path to sqlite elevation tile store")
	flag.StringVar(&opts.tileCode, "tile", "", "tile code (col_row); derived from the first point when empty")
	flag.StringVar(&opts.importGrid, "import-grid", "", "ASC grid file to import as the elevation surface for -tile")
	flag.StringVar(&opts.outDir, "out-dir", "", "directory for labelled ASC output (default: next to each input)")
	flag.StringVar(&opts.plotDir, "plot-dir", "", "write label plots under this directory")
	flag.BoolVar(&opts.ground, "ground", true, "label ground points before filtering noise")
	flag.IntVar(&opts.jobs, "jobs", 4, "number of input files processed concurrently")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.Parse()
	opts.inputs = flag.Args()

	if showVersion {
		fmt.Println(version.String("noisefilter"))
		return
	}

	if opts.importGrid == "" && len(opts.inputs) == 0 {
		fmt.Fprintln(os.Stderr, "usage: noisefilter [flags] cloud.asc [cloud.asc ...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	var err error
	opts.tuning, err = loadTuning(opts.configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	store, err := sqlite.Open(opts.dbPath)
	if err != nil {
		log.Fatalf("open tile store: %v", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.importGrid != "" {
		info, err := importGrid(ctx, opts.fs, store, opts.tileCode, opts.importGrid)
		if err != nil {
			log.Fatalf("import grid: %v", err)
		}
		log.Printf("imported tile %s (%dx%d) as %s", info.TileCode, info.Cols, info.Rows, info.ImportID)
	}

	if len(opts.inputs) == 0 {
		return
	}
	if err := run(ctx, store, opts); err != nil {
		log.Fatalf("noisefilter: %v", err)
	}
}
