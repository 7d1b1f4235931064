package e2e

import (
	"os"
	"path/filepath"

	"github.com/abelbrown/shutter/internal/catalog"
	"github.com/abelbrown/shutter/internal/store"
)

// fixtureItem is added after the reference collection so it is the last
// nature image.
var fixtureItem = catalog.Item{
	URL:      "https://example.com/fixture-falls.jpg",
	Category: catalog.CategoryNature,
	Title:    "Fixture Falls",
}

// seedFixtureDB writes a catalog file under homeDir and returns its path.
func seedFixtureDB(homeDir string) (string, error) {
	dataDir := filepath.Join(homeDir, ".shutter")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}
	dbPath := filepath.Join(dataDir, "catalog.db")
	st, err := store.Open(dbPath)
	if err != nil {
		return "", err
	}
	defer st.Close()

	if _, err := st.SaveItems(catalog.Default()); err != nil {
		return "", err
	}
	if _, err := st.SaveItems([]catalog.Item{fixtureItem}); err != nil {
		return "", err
	}
	return dbPath, nil
}
