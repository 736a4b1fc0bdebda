package sink

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// headerFormat is prepended to every script.
const headerFormat = "// Test: %s\n// Generated by Rohan\n\n"

// FileSink writes scripts into a directory. It is not safe for concurrent
// use; the generator calls it from a single goroutine.
type FileSink struct {
	dir       string
	overwrite bool
	manifest  *Manifest
	log       zerolog.Logger
}

// NewFileSink creates dir if needed.
func NewFileSink(dir string, overwrite bool, log zerolog.Logger) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", dir, err)
	}
	return &FileSink{
		dir:       dir,
		overwrite: overwrite,
		manifest:  NewManifest(),
		log:       log.With().Str("component", "sink").Logger(),
	}, nil
}

// Dir returns the output directory.
func (s *FileSink) Dir() string { return s.dir }

// Manifest returns the entries recorded so far.
func (s *FileSink) Manifest() *Manifest { return s.manifest }

// Write records name in the manifest and writes its script, unless the
// file already exists and overwrite is off, in which case it reports
// skipped.
func (s *FileSink) Write(name, code string) (skipped bool, err error) {
	file := FileName(name)
	path := filepath.Join(s.dir, file)
	s.manifest.Add(name, file)

	if !s.overwrite {
		_, statErr := os.Stat(path)
		if statErr == nil {
			s.log.Debug().Str("file", file).Msg("file exists, skipping")
			return true, nil
		}
		if !errors.Is(statErr, fs.ErrNotExist) {
			return false, fmt.Errorf("checking %s: %w", path, statErr)
		}
	}

	content := fmt.Sprintf(headerFormat, name) + code
	if err := WriteFileAtomic(path, []byte(content), 0o644); err != nil {
		return false, err
	}
	s.log.Debug().Str("file", file).Msg("wrote script")
	return false, nil
}

// Flush writes the manifest into the output directory.
func (s *FileSink) Flush() (string, error) {
	path := filepath.Join(s.dir, ManifestFile)
	return path, s.manifest.Save(path)
}
