package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/hocr-report/constants"
)

// Scratch is a private directory holding one input file's conversion output.
type Scratch struct {
	// ID names the directory in reports: temp_dir_<source>_<timestamp>.
	ID string
	// Path is the directory on disk; its base name ends with ID.
	Path string

	keep   bool
	logger *slog.Logger
}

// New creates a scratch directory under root for the given source file.
// The random prefix from os.MkdirTemp keeps two runs in the same second apart.
func New(root, sourceName string, now time.Time, keep bool, logger *slog.Logger) (*Scratch, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch root: %w", err)
	}
	id := ID(sourceName, now)
	dir, err := os.MkdirTemp(root, "*"+id)
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	if err := os.Chmod(dir, 0o777); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("chmod scratch dir: %w", err)
	}
	logger.Debug("workspace.scratch.created", "path", dir, "id", id)
	return &Scratch{ID: id, Path: dir, keep: keep, logger: logger}, nil
}

// ID builds the scratch identifier for sourceName at now.
func ID(sourceName string, now time.Time) string {
	// path separators would split the identifier across directories
	safe := strings.NewReplacer("/", "_", string(filepath.Separator), "_").Replace(sourceName)
	return constants.ScratchPrefix + safe + "_" + now.Format(constants.ScratchTimestampLayout)
}

// Cleanup removes the directory unless it was created with keep set.
// Safe to call more than once.
func (s *Scratch) Cleanup() {
	if s == nil || s.keep || s.Path == "" {
		return
	}
	if err := os.RemoveAll(s.Path); err != nil {
		s.logger.Warn("workspace.scratch.cleanup_error", "path", s.Path, "error", err)
		return
	}
	s.logger.Debug("workspace.scratch.removed", "path", s.Path)
}

// Kept reports whether Cleanup leaves the directory in place.
func (s *Scratch) Kept() bool { return s.keep }
