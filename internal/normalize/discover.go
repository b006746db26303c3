package normalize

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"slsk-audio-pipeline/internal/model"
)

// Audio containers the normalization transform accepts. Matching is
// case-insensitive; everything else in the tree is left alone.
var audioExts = map[string]struct{}{
	".mp3":  {},
	".flac": {},
	".wav":  {},
	".m4a":  {},
	".ogg":  {},
}

// Discover walks the tree under root and returns every candidate audio file.
// Discovery runs fresh per invocation; an empty result is a valid terminal
// state, not an error.
func Discover(root string) ([]model.AudioFile, error) {
	var files []model.AudioFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if _, ok := audioExts[ext]; !ok {
			return nil
		}
		files = append(files, model.AudioFile{Path: path, Ext: ext})
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return files, nil
}
