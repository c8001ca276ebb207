package persist

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/offlinefirst/inputtrail/pkg/screenshots"
)

// Encoder turns a captured frame into file bytes.
type Encoder interface {
	Encode(img image.Image) ([]byte, error)
	Extension() string
}

// WriterOptions configure a Writer.
type WriterOptions struct {
	// Dir is the data directory; empty means the working directory.
	Dir      string
	Provider screenshots.Provider
	Encoder  Encoder
	// WriteFile replaces the atomic file writer (tests simulate disk failures).
	WriteFile func(path string, data []byte) error
}

// Writer persists one artifact pair per job: {dir}/{stamp}.json and
// {dir}/{stamp}.{ext}. The frame is captured when the job runs, so the image
// may lag the triggering input.
type Writer struct {
	dir       string
	provider  screenshots.Provider
	encoder   Encoder
	writeFile func(path string, data []byte) error
}

// NewWriter validates options and constructs a writer. The directory is not
// checked here; write failures surface per job.
func NewWriter(opts WriterOptions) (*Writer, error) {
	if opts.Provider == nil {
		return nil, errors.New("screen provider must be provided")
	}
	if opts.Encoder == nil {
		return nil, errors.New("image encoder must be provided")
	}
	writeFile := opts.WriteFile
	if writeFile == nil {
		writeFile = writeFileAtomic
	}
	return &Writer{
		dir:       opts.Dir,
		provider:  opts.Provider,
		encoder:   opts.Encoder,
		writeFile: writeFile,
	}, nil
}

// BasePath returns the artifact path without extension for a stamp.
func (w *Writer) BasePath(stamp int64) string {
	return filepath.Join(w.dir, strconv.FormatInt(stamp, 10))
}

// Handle captures the display and writes the artifact pair. When the image
// cannot be written the record is removed so pairs stay complete.
func (w *Writer) Handle(ctx context.Context, job Job) error {
	if len(job.JSON) == 0 {
		return errors.New("empty record")
	}
	frame, err := w.provider.Grab(ctx)
	if err != nil {
		return fmt.Errorf("capture screen: %w", err)
	}
	encoded, err := w.encoder.Encode(frame)
	if err != nil {
		return err
	}

	base := w.BasePath(job.Stamp)
	recordPath := base + ".json"
	imagePath := base + "." + w.encoder.Extension()

	if err := w.writeFile(recordPath, job.JSON); err != nil {
		return fmt.Errorf("write record %q: %w", recordPath, err)
	}
	if err := w.writeFile(imagePath, encoded); err != nil {
		if rmErr := os.Remove(recordPath); rmErr != nil && !os.IsNotExist(rmErr) {
			return fmt.Errorf("write image %q: %v (additionally failed to remove record: %w)", imagePath, err, rmErr)
		}
		return fmt.Errorf("write image %q: %w", imagePath, err)
	}
	return nil
}

// writeFileAtomic writes to a temporary file in the target directory, then
// renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// LatestStamp returns the largest {stamp}.json stem in dir, or 0 when there
// is none. A missing directory is not an error.
func LatestStamp(dir string) (int64, error) {
	if dir == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("scan data directory: %w", err)
	}
	var latest int64
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		stamp, err := strconv.ParseInt(strings.TrimSuffix(name, ".json"), 10, 64)
		if err != nil {
			continue
		}
		if stamp > latest {
			latest = stamp
		}
	}
	return latest, nil
}
