// Package filehandler rewrites report output paths before they are stored,
// e.g. to archive them or push them to object storage.
package filehandler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Handler names accepted by New
const (
	NameNone    = ""
	NameArchive = "archive"
	NameMinIO   = "minio"
)

// ErrUnknownHandler is returned by New for an unknown handler name
var ErrUnknownHandler = errors.New("unknown file handler")

// Handler receives an output file path and returns the location to store in
// the report record: a new path, a URL...
type Handler interface {
	Handle(ctx context.Context, path string) (string, error)
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(ctx context.Context, path string) (string, error)

func (f HandlerFunc) Handle(ctx context.Context, path string) (string, error) {
	return f(ctx, path)
}

type identity struct{}

func (identity) Handle(ctx context.Context, path string) (string, error) {
	return path, nil
}

// Identity keeps output paths unchanged; used when no handler is configured
var Identity Handler = identity{}

// HandleAll runs every path through h, in order
func HandleAll(ctx context.Context, h Handler, paths []string) ([]string, error) {
	if h == nil {
		h = Identity
	}
	results := make([]string, 0, len(paths))
	for _, p := range paths {
		location, err := h.Handle(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("failed to handle output %s: %w", p, err)
		}
		results = append(results, location)
	}
	return results, nil
}

// ArchiveHandler moves outputs into Dir, keeping their file names
type ArchiveHandler struct {
	Dir string
}

// NewArchiveHandler creates a handler moving files into dir
func NewArchiveHandler(dir string) *ArchiveHandler {
	return &ArchiveHandler{Dir: dir}
}

func (h *ArchiveHandler) Handle(ctx context.Context, path string) (string, error) {
	if err := os.MkdirAll(h.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive dir: %w", err)
	}
	dst := filepath.Join(h.Dir, filepath.Base(path))

	if err := os.Rename(path, dst); err == nil {
		return dst, nil
	}
	// rename fails across filesystems, fall back to copy and remove
	if err := copyFile(path, dst); err != nil {
		return "", err
	}
	if err := os.Remove(path); err != nil {
		return "", fmt.Errorf("failed to remove archived output: %w", err)
	}
	return dst, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy output: %w", err)
	}
	return out.Close()
}

// Config selects and configures the handler built by New
type Config struct {
	Name       string
	ArchiveDir string
	MinIO      MinIOConfig
}

// New builds the handler named in cfg
func New(ctx context.Context, cfg Config) (Handler, error) {
	switch strings.ToLower(cfg.Name) {
	case NameNone, "none", "identity":
		return Identity, nil
	case NameArchive:
		if cfg.ArchiveDir == "" {
			return nil, fmt.Errorf("archive handler needs an archive dir")
		}
		return NewArchiveHandler(cfg.ArchiveDir), nil
	case NameMinIO, "s3":
		return NewMinIOHandler(ctx, cfg.MinIO)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownHandler, cfg.Name)
	}
}
