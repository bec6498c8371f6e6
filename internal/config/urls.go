package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Panahifarah/kalpak/internal/utils"
)

type urlDocument struct {
	URLs []string `json:"urls"`
}

// ReadURLFile loads the URL list from a JSON document with a top-level
// "urls" array. Read or parse failures are fatal to the run.
func ReadURLFile(path string) ([]string, error) {
	log := utils.GetLogger("config")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading URL file: %w", err)
	}
	var doc urlDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error parsing URL file: %w", err)
	}
	log.Debug().Int("count", len(doc.URLs)).Str("file", path).Msg("URLs loaded from file")
	return doc.URLs, nil
}
