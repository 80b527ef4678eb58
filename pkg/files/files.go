package files

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jkovarik/dispecink-backend/pkg/config"
)

// Upload describes one staged upload. Filename is the generated storage
// name, DisplayName the client-provided one.
type Upload struct {
	Filename    string
	DisplayName string
	Type        string
	stagedPath  string
}

// Store keeps uploads on local disk: a staging area for in-flight requests
// and a persist area laid out as <persist>/<group>/<id>/<filename><ext>.
type Store struct {
	stagingDir string
	persistDir string
}

func NewStore(cfg config.Files) (*Store, error) {
	if err := os.MkdirAll(cfg.StagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating staging dir: %w", err)
	}
	if err := os.MkdirAll(cfg.PersistDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating persist dir: %w", err)
	}
	return &Store{stagingDir: cfg.StagingDir, persistDir: cfg.PersistDir}, nil
}

// Stage copies a multipart part into the staging area under a generated
// name, keeping the original extension for later reads.
func (s *Store) Stage(header *multipart.FileHeader) (*Upload, error) {
	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("opening upload: %w", err)
	}
	defer src.Close()

	filename := uuid.NewString()
	stagedPath := filepath.Join(s.stagingDir, filename)

	dst, err := os.Create(stagedPath)
	if err != nil {
		return nil, fmt.Errorf("creating staged file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(stagedPath)
		return nil, fmt.Errorf("writing staged file: %w", err)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &Upload{
		Filename:    filename,
		DisplayName: header.Filename,
		Type:        contentType,
		stagedPath:  stagedPath,
	}, nil
}

// DiscardStaged removes staged files after a failed request.
func (s *Store) DiscardStaged(uploads []*Upload) {
	for _, u := range uploads {
		if u.stagedPath != "" {
			os.Remove(u.stagedPath)
		}
	}
}

func (s *Store) path(group, id string, filename, displayName string) string {
	return filepath.Join(s.persistDir, group, id, filename+filepath.Ext(displayName))
}

// Persist moves staged files into the group directory.
func (s *Store) Persist(group, id string, uploads []*Upload) error {
	dir := filepath.Join(s.persistDir, group, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating group dir: %w", err)
	}

	for _, u := range uploads {
		target := s.path(group, id, u.Filename, u.DisplayName)
		if err := os.Rename(u.stagedPath, target); err != nil {
			return fmt.Errorf("persisting %s: %w", u.Filename, err)
		}
		u.stagedPath = ""
	}
	return nil
}

// Read returns the stored content of one file.
func (s *Store) Read(group, id, filename, displayName string) ([]byte, error) {
	return os.ReadFile(s.path(group, id, filename, displayName))
}

// Remove deletes individual stored files.
func (s *Store) Remove(group, id string, entries map[string]string) error {
	for filename, displayName := range entries {
		if err := os.Remove(s.path(group, id, filename, displayName)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// RemoveGroup deletes the entire directory of a record. A missing
// directory counts as success.
func (s *Store) RemoveGroup(group, id string) error {
	err := os.RemoveAll(filepath.Join(s.persistDir, group, id))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
