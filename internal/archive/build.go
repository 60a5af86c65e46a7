package archive

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"context"
	"fmt"
	"io"
	"time"
)

// CompressionLevel is the deflate level used for bundles.
const CompressionLevel = 6

// compressChunk bounds how much input is deflated between progress reports
// and cancellation checks.
const compressChunk = 1 << 20

// ProgressFunc receives build progress in [0,100] with a short status line.
type ProgressFunc func(percent int, message string)

// Bundle is a built archive.
type Bundle struct {
	Data      []byte
	Name      string
	FileCount int
}

// BundleName returns the file name for a bundle built at t.
func BundleName(t time.Time) string {
	return "bundle-" + t.UTC().Format("2006-01-02") + ".zip"
}

type entry struct {
	name string
	data []byte
}

// Build validates files, resolves their names and writes them into a deflate
// zip. Adding entries covers 0-50% of progress, one step per file;
// compression covers 50-100% in proportion to the bytes deflated.
func Build(ctx context.Context, files []File, now time.Time, onProgress ProgressFunc) (*Bundle, error) {
	if v := Validate(files); !v.Valid {
		return nil, &ValidationError{Message: v.Error, TotalSize: v.TotalSize}
	}
	if onProgress == nil {
		onProgress = func(int, string) {}
	}

	names := ResolveNames(files)
	entries := make([]entry, 0, len(files))
	var total int64
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entries = append(entries, entry{name: names[i], data: f.Data})
		total += int64(len(f.Data))
		onProgress((i+1)*50/len(files), fmt.Sprintf("Adding file %d/%d...", i+1, len(files)))
	}

	onProgress(50, "Compressing bundle...")

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, CompressionLevel)
	})

	var done int64
	last := 50
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.name,
			Method:   zip.Deflate,
			Modified: now,
		})
		if err != nil {
			return nil, fmt.Errorf("add %q: %w", e.name, err)
		}

		for off := 0; off < len(e.data); off += compressChunk {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			end := min(off+compressChunk, len(e.data))
			if _, err := w.Write(e.data[off:end]); err != nil {
				return nil, fmt.Errorf("compress %q: %w", e.name, err)
			}
			done += int64(end - off)
			if p := 50 + int(done*50/total); p > last && p < 100 {
				last = p
				onProgress(p, fmt.Sprintf("Compressing... %d%%", (p-50)*2))
			}
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finish archive: %w", err)
	}

	onProgress(100, "Bundle created")

	return &Bundle{
		Data:      buf.Bytes(),
		Name:      BundleName(now),
		FileCount: len(files),
	}, nil
}

// ValidationError reports a selection that breaks the bundle limits.
type ValidationError struct {
	Message   string
	TotalSize int64
}

func (e *ValidationError) Error() string {
	return e.Message
}
