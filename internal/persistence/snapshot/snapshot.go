// Package snapshot reads and writes save files on disk. Paths ending in
// ".zst" are zstd-compressed; anything else is plain JSON.
package snapshot

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	"topdown.ai/internal/sim/world/io/savecodec"
)

const CompressedExt = ".zst"

// Compressed reports whether path is written through zstd.
func Compressed(path string) bool {
	return strings.HasSuffix(path, CompressedExt)
}

// WriteFile stores raw save bytes at path, replacing any previous file only
// once the new one is complete.
func WriteFile(path string, raw []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := writeTo(tmp, raw, Compressed(path)); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func writeTo(f *os.File, raw []byte, compress bool) error {
	if !compress {
		_, err := f.Write(raw)
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)
	if _, err := bw.Write(raw); err != nil {
		_ = enc.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

// ReadFile returns the uncompressed save bytes at path.
func ReadFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if !Compressed(path) {
		return io.ReadAll(f)
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	raw, err := io.ReadAll(bufio.NewReaderSize(dec, 256*1024))
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	return raw, nil
}

// WriteDocument encodes doc as JSON and writes it to path.
func WriteDocument(path string, doc savecodec.Document) error {
	raw, err := savecodec.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return WriteFile(path, raw)
}

// ReadDocument reads and parses the save at path.
func ReadDocument(path string) (savecodec.Document, error) {
	raw, err := ReadFile(path)
	if err != nil {
		return savecodec.Document{}, err
	}
	doc, err := savecodec.Unmarshal(raw)
	if err != nil {
		return savecodec.Document{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// DirSlots keeps named save slots as compressed files in one directory.
type DirSlots struct {
	dir string
}

func NewDirSlots(dir string) *DirSlots { return &DirSlots{dir: dir} }

func (d *DirSlots) path(key string) string {
	return filepath.Join(d.dir, key+savecodec.FileExt+CompressedExt)
}

func validKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("invalid slot key %q", key)
	}
	return nil
}

func (d *DirSlots) PutSlot(ctx context.Context, key string, raw []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validKey(key); err != nil {
		return err
	}
	return WriteFile(d.path(key), raw)
}

// GetSlot returns ok=false when the slot has never been written.
func (d *DirSlots) GetSlot(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if err := validKey(key); err != nil {
		return nil, false, err
	}
	raw, err := ReadFile(d.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

// ListSlots returns slot keys in lexical order.
func (d *DirSlots) ListSlots(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ents, err := os.ReadDir(d.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	suffix := savecodec.FileExt + CompressedExt
	var out []string
	for _, e := range ents {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		out = append(out, strings.TrimSuffix(e.Name(), suffix))
	}
	sort.Strings(out)
	return out, nil
}
