package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Panahifarah/kalpak/internal/output"
	"github.com/Panahifarah/kalpak/internal/utils"
)

// Save writes each result to dir, one file per URL, named after the
// URL's path basename. The directory is created with parents if absent;
// failure to create it fails the whole persistence step. Individual
// write failures are logged and skipped.
func Save(results map[string][]byte, dir string) error {
	log := utils.GetLogger("storage")
	_, statErr := os.Stat(dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Error().Err(err).Str("dir", dir).Msg("Failed to create directory")
		return fmt.Errorf("error creating directory %s: %w", dir, err)
	}
	if os.IsNotExist(statErr) {
		log.Info().Str("dir", dir).Msg("Created directory")
		output.PrintInfo(fmt.Sprintf("Created directory: %s", dir))
	}

	for rawURL, content := range results {
		path := filepath.Join(dir, utils.FilenameFromURL(rawURL))
		if err := os.WriteFile(path, content, 0644); err != nil {
			log.Error().Err(err).Str("file", path).Msg("Failed to save content")
			output.PrintError(fmt.Sprintf("Failed to save content to %s", path))
			continue
		}
		log.Info().Str("file", path).Msg("Saved content")
		output.PrintSuccess(fmt.Sprintf("Downloaded content saved to %s", path))
	}
	return nil
}
