package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var videoExtensions = map[string]bool{
	".mp4": true, ".mkv": true, ".avi": true, ".mov": true,
	".wmv": true, ".flv": true, ".webm": true, ".m4v": true,
	".ts": true, ".mpg": true, ".mpeg": true,
}

var subtitleExtensions = map[string]bool{
	".srt": true, ".vtt": true, ".ass": true, ".ssa": true, ".sub": true,
}

func IsVideoFile(name string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(name))]
}

func IsSubtitleFile(name string) bool {
	return subtitleExtensions[strings.ToLower(filepath.Ext(name))]
}

// SaveUpload writes an uploaded file into the uploads root under a
// generated unique name that keeps the original extension, and returns
// that name. The extension is what later tells the extraction pipeline
// and stream handler what they're dealing with.
func SaveUpload(uploadsDir string, src io.Reader, originalName string) (string, error) {
	if err := os.MkdirAll(uploadsDir, 0755); err != nil {
		return "", fmt.Errorf("create uploads dir: %w", err)
	}

	name := uuid.NewString() + strings.ToLower(filepath.Ext(originalName))
	dst, err := os.Create(filepath.Join(uploadsDir, name))
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("write upload: %w", err)
	}
	return name, nil
}

// RemoveFromUploads deletes a file reference relative to the uploads root,
// refusing anything that escapes it. Missing files are not an error.
func RemoveFromUploads(uploadsDir, fileRef string) error {
	if fileRef == "" {
		return nil
	}
	absRoot, err := filepath.Abs(uploadsDir)
	if err != nil {
		return err
	}
	absTarget, err := filepath.Abs(filepath.Join(uploadsDir, fileRef))
	if err != nil {
		return err
	}
	if !strings.HasPrefix(absTarget, absRoot+string(filepath.Separator)) {
		return os.ErrPermission
	}
	if err := os.Remove(absTarget); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
