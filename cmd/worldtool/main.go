package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"topdown.ai/internal/persistence/indexdb"
	editlog "topdown.ai/internal/persistence/log"
	"topdown.ai/internal/persistence/snapshot"
	"topdown.ai/internal/persistence/watch"
	"topdown.ai/internal/sim/catalogs"
	"topdown.ai/internal/sim/tuning"
	"topdown.ai/internal/sim/world"
	"topdown.ai/internal/sim/world/feature/editor"
	"topdown.ai/internal/sim/world/io/savecodec"
	"topdown.ai/internal/sim/world/logic/coords"
	"topdown.ai/internal/sim/world/terrain/store"
	"topdown.ai/schemas"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	args := os.Args[2:]
	var err error
	switch os.Args[1] {
	case "info":
		err = infoCmd(args)
	case "validate":
		err = validateCmd(args)
	case "convert":
		err = convertCmd(args)
	case "paint":
		err = paintCmd(args)
	case "watch":
		err = watchCmd(args)
	case "slots":
		err = slotsCmd(args)
	case "export":
		err = exportCmd(args)
	case "edits":
		err = editsCmd(args)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, os.Args[1]+":", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: worldtool <info|validate|convert|paint|watch|slots|export|edits> [flags]")
}

func newLogger() *log.Logger {
	return log.New(os.Stdout, "[worldtool] ", log.LstdFlags|log.Lmicroseconds)
}

// loadWorld builds an empty world from the config directory. Missing config
// files fall back to built-in defaults.
func loadWorld(configDir string, logger *log.Logger) (*world.World, error) {
	tune, err := tuning.Load(filepath.Join(configDir, "tuning.yaml"))
	if errors.Is(err, os.ErrNotExist) {
		tune, err = tuning.Defaults(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load tuning: %w", err)
	}
	tiles, err := catalogs.Load(configDir)
	if err != nil {
		return nil, fmt.Errorf("load tiles: %w", err)
	}
	cfg, err := world.ConfigFromTuning(tune)
	if err != nil {
		return nil, err
	}
	return world.New(cfg, tiles, logger), nil
}

func infoCmd(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	file := fs.String("file", "", "save file (.topdownworld or .topdownworld.zst)")
	configDir := fs.String("configs", "./configs", "config directory")
	_ = fs.Parse(args)
	if *file == "" {
		return fmt.Errorf("missing -file")
	}

	doc, err := snapshot.ReadDocument(*file)
	if err != nil {
		return err
	}
	w, err := loadWorld(*configDir, newLogger())
	if err != nil {
		return err
	}
	if err := w.Load(doc); err != nil {
		return err
	}

	counts := make(map[store.LayerID]int, store.NumLayers)
	tiledataN := 0
	s := w.Store()
	for _, k := range s.LoadedChunkKeys() {
		ch, _ := s.Chunk(k)
		for _, id := range ch.LayerIDs() {
			l, _ := ch.Layer(id)
			counts[id] += l.TileCount()
			tiledataN += l.TiledataLen()
		}
	}
	fmt.Printf("save version=%d palette=%d chunkSize=%v chunks=%d tiledata=%d\n",
		doc.Version, len(doc.Palette), doc.ChunkSize, s.Len(), tiledataN)
	for _, id := range store.AllLayers {
		fmt.Printf("  %-12s %d tiles\n", id, counts[id])
	}
	return nil
}

func validateCmd(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configDir := fs.String("configs", "./configs", "config directory")
	_ = fs.Parse(args)
	if fs.NArg() == 0 {
		return fmt.Errorf("no files given")
	}
	w, err := loadWorld(*configDir, log.New(os.Stderr, "[worldtool] ", log.LstdFlags))
	if err != nil {
		return err
	}
	failed := 0
	for _, path := range fs.Args() {
		if err := validateFile(w.Config().ChunkSize, path); err != nil {
			fmt.Printf("FAIL %s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Printf("ok   %s\n", path)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed", failed, fs.NArg())
	}
	return nil
}

// validateFile decodes a save fully; documents that decode but are not in the
// current layout (legacy chunk records) are reported without failing.
func validateFile(chunkSize int, path string) error {
	raw, err := snapshot.ReadFile(path)
	if err != nil {
		return err
	}
	doc, err := savecodec.Unmarshal(raw)
	if err != nil {
		return err
	}
	if _, err := savecodec.Decode(doc, chunkSize); err != nil {
		return err
	}
	if err := schemas.ValidateSave(raw); err != nil {
		fmt.Printf("note %s: not in the current save layout (%v)\n", path, err)
	}
	return nil
}

func convertCmd(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	in := fs.String("in", "", "input save file")
	out := fs.String("out", "", "output save file; a .zst suffix compresses")
	configDir := fs.String("configs", "./configs", "config directory")
	_ = fs.Parse(args)
	if *in == "" || *out == "" {
		return fmt.Errorf("missing -in or -out")
	}
	w, err := loadWorld(*configDir, newLogger())
	if err != nil {
		return err
	}
	if err := w.LoadFile(*in); err != nil {
		return err
	}
	return w.SaveFile(*out)
}

func parseTile(s string) (coords.TilePos, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return coords.TilePos{}, fmt.Errorf("bad tile %q, want x,y", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return coords.TilePos{}, fmt.Errorf("bad tile %q: %w", s, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return coords.TilePos{}, fmt.Errorf("bad tile %q: %w", s, err)
	}
	return coords.TilePos{X: x, Y: y}, nil
}

// paintCmd applies one brush stroke to a save file, journaling the edit and
// autosaving into the slot database.
func paintCmd(args []string) error {
	fs := flag.NewFlagSet("paint", flag.ExitOnError)
	file := fs.String("file", "", "save file to edit (created if missing)")
	tile := fs.String("tile", "", "tile to place")
	erase := fs.Bool("erase", false, "erase instead of placing")
	from := fs.String("from", "0,0", "stroke start tile x,y")
	to := fs.String("to", "", "stroke end tile x,y (defaults to -from)")
	configDir := fs.String("configs", "./configs", "config directory")
	dataDir := fs.String("data", "./data", "runtime data directory (journal and slot db)")
	_ = fs.Parse(args)
	if *file == "" {
		return fmt.Errorf("missing -file")
	}
	if *to == "" {
		*to = *from
	}
	prev, err := parseTile(*from)
	if err != nil {
		return err
	}
	cur, err := parseTile(*to)
	if err != nil {
		return err
	}

	logger := newLogger()
	w, err := loadWorld(*configDir, logger)
	if err != nil {
		return err
	}
	if _, err := os.Stat(*file); err == nil {
		if err := w.LoadFile(*file); err != nil {
			return err
		}
	}

	worldDir := filepath.Join(*dataDir, "worlds", w.Config().ID)
	journal := editlog.NewEditLogger(worldDir)
	defer journal.Close()
	w.AddEditSink(journal)

	idx, err := indexdb.OpenSQLite(filepath.Join(*dataDir, "index.db"))
	if err != nil {
		return err
	}
	defer idx.Close()
	w.AddEditSink(idx)
	w.SetSaveRecorder(idx)
	w.EnableAutosave(idx)

	tool := editor.Tool{Mode: editor.ModePlace, Tile: *tile}
	if *erase {
		tool = editor.Tool{Mode: editor.ModeErase}
	}
	s := w.Paint(tool, prev, cur)
	logger.Printf("%s %s..%s: %d tile(s), %d changed", tool.Mode, prev, cur, len(s.Tiles), s.Changed)

	if err := w.SaveFile(*file); err != nil {
		return err
	}
	return w.Flush(context.Background())
}

func watchCmd(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configDir := fs.String("configs", "./configs", "config directory")
	_ = fs.Parse(args)
	dirs := fs.Args()
	if len(dirs) == 0 {
		dirs = []string{"."}
	}
	logger := newLogger()
	w, err := loadWorld(*configDir, logger)
	if err != nil {
		return err
	}
	watcher, err := watch.NewWatcher(dirs...)
	if err != nil {
		return err
	}
	defer watcher.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Printf("watching %s", strings.Join(dirs, ", "))
	for {
		select {
		case path, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if err := validateFile(w.Config().ChunkSize, path); err != nil {
				logger.Printf("WARN %s: %v", path, err)
				continue
			}
			logger.Printf("%s ok", path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Printf("WARN watch: %v", err)
		case <-ctx.Done():
			return nil
		}
	}
}

func slotsCmd(args []string) error {
	fs := flag.NewFlagSet("slots", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "also print save history for this world")
	limit := fs.Int("limit", 20, "history rows")
	_ = fs.Parse(args)

	idx, err := indexdb.OpenSQLite(filepath.Join(*dataDir, "index.db"))
	if err != nil {
		return err
	}
	defer idx.Close()
	ctx := context.Background()

	infos, err := idx.SlotInfos(ctx)
	if err != nil {
		return err
	}
	for _, in := range infos {
		fmt.Printf("%s\t%d bytes\t%s\t%s\n", in.Key, in.Bytes, in.Digest[:12], in.UpdatedAt)
	}
	if *worldID == "" {
		return nil
	}
	hist, err := idx.SaveHistory(ctx, *worldID, *limit)
	if err != nil {
		return err
	}
	for _, r := range hist {
		fmt.Printf("%s\t%s\tv%d\t%d chunk(s)\t%d bytes\n", r.RecordedAt, r.Target, r.Version, r.Chunks, r.Bytes)
	}
	return nil
}

func exportCmd(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	key := fs.String("key", "", "slot key, e.g. world.autosave")
	out := fs.String("out", "", "output save file")
	_ = fs.Parse(args)
	if *key == "" || *out == "" {
		return fmt.Errorf("missing -key or -out")
	}
	idx, err := indexdb.OpenSQLite(filepath.Join(*dataDir, "index.db"))
	if err != nil {
		return err
	}
	defer idx.Close()
	raw, ok, err := idx.GetSlot(context.Background(), *key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no slot %q", *key)
	}
	return snapshot.WriteFile(*out, raw)
}

func editsCmd(args []string) error {
	fs := flag.NewFlagSet("edits", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "world", "world id")
	_ = fs.Parse(args)
	entries, err := editlog.ReadEdits(filepath.Join(*dataDir, "worlds", *worldID))
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("t=%.2f %s %s %s..%s tiles=%d changed=%d\n", e.Time, e.Mode, e.Tile, e.From, e.To, e.Tiles, e.Changed)
	}
	return nil
}
