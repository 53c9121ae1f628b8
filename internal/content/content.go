package content

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/anth0nytran/coaching-site/internal/log"
)

// Catalog serves the static marketing content the site exposes as JSON:
// a curated video list and the credential images directory.
type Catalog struct {
	videosFile     string
	credentialsDir string
}

// NewCatalog creates a content catalog.
func NewCatalog(videosFile, credentialsDir string) *Catalog {
	return &Catalog{
		videosFile:     videosFile,
		credentialsDir: credentialsDir,
	}
}

// Videos returns the curated video list as a raw JSON array. A missing or
// malformed file reads as an empty list; the landing page must render either
// way.
func (c *Catalog) Videos() json.RawMessage {
	data, err := os.ReadFile(c.videosFile)
	if err != nil {
		return json.RawMessage("[]")
	}

	var list []json.RawMessage
	if err := json.Unmarshal(data, &list); err != nil {
		log.LogWarnWithFields("content", "Videos file is not a JSON array", map[string]any{
			"file": c.videosFile,
		})
		return json.RawMessage("[]")
	}
	return data
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".gif":  true,
}

// Credentials lists the image files in the credentials directory.
func (c *Catalog) Credentials() []string {
	entries, err := os.ReadDir(c.credentialsDir)
	if err != nil {
		return []string{}
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if imageExtensions[ext] {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}
