package helper

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// CreateFolder creates path and its parents if they do not exist yet.
func CreateFolder(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create folder %s: %w", path, err)
	}
	return nil
}

// DocumentID is the stable id of one chunk, so re-ingesting a file replaces
// its chunks instead of duplicating them.
func DocumentID(filename string, pageNumber, chunkID int) string {
	return fmt.Sprintf("%s-%d-%d", filepath.Base(filename), pageNumber, chunkID)
}

// PrettyPrint writes v as indented JSON to w.
func PrettyPrint(w io.Writer, v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Warn().Err(err).Msg("Error pretty printing")
		return
	}
	fmt.Fprintln(w, string(b))
}
