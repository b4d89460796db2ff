// Package imagestore persists uploaded frame images on disk, one directory
// per session with a subdirectory per question. Images are an audit artifact;
// losing one never invalidates the recorded frame.
package imagestore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// allowedExtensions is the set of upload filename extensions accepted for
// frame images.
var allowedExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
}

// AllowedExtension reports whether the filename carries an accepted image
// extension.
func AllowedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	_, ok := allowedExtensions[ext]
	return ok
}

// Store lays out images as root/<session>/<question>/<frame>.jpg. Frames
// recorded directly against a session land in root/<session>.
type Store struct {
	root string
}

// safeName rejects identifiers that would escape the store root when joined
// into a path. IDs come from clients, not just from uuid minting.
func safeName(id string) error {
	if id == "" {
		return errors.New("empty identifier")
	}
	if id == "." || id == ".." ||
		strings.ContainsAny(id, `/\`) || strings.ContainsRune(id, os.PathSeparator) {
		return fmt.Errorf("identifier %q is not a valid path element", id)
	}
	return nil
}

// New creates a Store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating image root: %w", err)
	}
	return &Store{root: dir}, nil
}

// EnsureSession creates the session's directory.
func (s *Store) EnsureSession(sessionID string) error {
	if err := safeName(sessionID); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(s.root, sessionID), 0o755); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}
	return nil
}

// SaveFrame writes the image bytes for a frame and returns the stored path.
// questionID may be empty for session-direct frames.
func (s *Store) SaveFrame(sessionID, questionID, frameID string, image []byte) (string, error) {
	if err := safeName(sessionID); err != nil {
		return "", err
	}
	if err := safeName(frameID); err != nil {
		return "", err
	}
	dir := filepath.Join(s.root, sessionID)
	if questionID != "" {
		if err := safeName(questionID); err != nil {
			return "", err
		}
		dir = filepath.Join(dir, questionID)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating frame directory: %w", err)
	}

	path := filepath.Join(dir, frameID+".jpg")
	if err := os.WriteFile(path, image, 0o644); err != nil {
		return "", fmt.Errorf("writing frame image: %w", err)
	}
	return path, nil
}

// RemoveSession deletes the session's directory tree. Missing directories are
// not an error.
func (s *Store) RemoveSession(sessionID string) error {
	if err := safeName(sessionID); err != nil {
		return err
	}
	if err := os.RemoveAll(filepath.Join(s.root, sessionID)); err != nil {
		return fmt.Errorf("removing session directory: %w", err)
	}
	return nil
}
