// Package archive packs several files into one deflate zip bundle before
// encryption. Names are de-duplicated deterministically so that a bundle
// never holds two entries with the same name.
package archive

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// MaxFiles is the maximum number of files in one bundle.
	MaxFiles = 10
	// MaxTotalSize is the maximum combined size of the bundled files.
	MaxTotalSize int64 = 500 * 1024 * 1024

	maxListedEmpty = 3
)

// File is a named in-memory input.
type File struct {
	Name string
	Data []byte
}

// Validation is the outcome of Validate.
type Validation struct {
	Valid     bool
	Error     string
	TotalSize int64
}

// Validate checks a selection against the bundle limits. It does no I/O.
func Validate(files []File) Validation {
	if len(files) == 0 {
		return Validation{Error: "No files selected"}
	}
	if len(files) > MaxFiles {
		return Validation{
			Error: fmt.Sprintf("Maximum %d files allowed. You selected %d files.", MaxFiles, len(files)),
		}
	}

	var total int64
	var empty []string
	for _, f := range files {
		if len(f.Data) == 0 {
			empty = append(empty, f.Name)
		}
		total += int64(len(f.Data))
	}

	if len(empty) > 0 {
		listed := empty
		suffix := ""
		if len(empty) > maxListedEmpty {
			listed = empty[:maxListedEmpty]
			suffix = fmt.Sprintf(" +%d more", len(empty)-maxListedEmpty)
		}
		return Validation{
			Error:     "Empty files are not allowed: " + strings.Join(listed, ", ") + suffix,
			TotalSize: total,
		}
	}

	if total > MaxTotalSize {
		return Validation{
			Error:     fmt.Sprintf("Total size (%s) exceeds %s limit", FormatSize(total), FormatSize(MaxTotalSize)),
			TotalSize: total,
		}
	}

	return Validation{Valid: true, TotalSize: total}
}

// FormatSize renders a byte count with binary units and at most two decimals,
// e.g. "1.5 KB" or "500 MB".
func FormatSize(n int64) string {
	if n <= 0 {
		return "0 B"
	}
	units := []string{"B", "KB", "MB", "GB", "TB"}
	v := float64(n)
	i := 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}
	v = math.Round(v*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + units[i]
}
