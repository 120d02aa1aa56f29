// Package seed provides the site content written on first start.
package seed

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/eringen/folio/store"
)

// Files contains the default seed documents.
//
//go:embed content.json
var Files embed.FS

// Content returns the seed document. An empty path selects the embedded
// default; otherwise the JSON file at path is used.
func Content(path string) (store.SiteContent, error) {
	var (
		data []byte
		err  error
	)
	if path == "" {
		data, err = Files.ReadFile("content.json")
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return store.SiteContent{}, fmt.Errorf("read seed: %w", err)
	}
	var c store.SiteContent
	if err := json.Unmarshal(data, &c); err != nil {
		return store.SiteContent{}, fmt.Errorf("decode seed %s: %w", path, err)
	}
	return c.Clone(), nil
}
