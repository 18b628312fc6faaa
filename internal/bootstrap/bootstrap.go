// Package bootstrap lays out a fresh ultah home directory.
package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/almeera/ultah/internal/config"
	"github.com/almeera/ultah/internal/store"
)

// Initialize creates the home tree, a starter config, an empty lead sheet,
// and an empty price list. Existing files are left alone. It returns the
// paths it created.
func Initialize(cfg *config.Config) ([]string, error) {
	dirs := []string{
		cfg.HomeDir,
		cfg.LogsDir(),
		cfg.ReportDir(),
		filepath.Dir(cfg.RecordsPath()),
	}
	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %q: %w", dir, err)
		}
	}

	configBody, err := config.DefaultUserConfigTOML()
	if err != nil {
		return nil, err
	}

	files := []struct {
		path    string
		content string
	}{
		{path: cfg.ConfigPath(), content: configBody},
		{path: cfg.RecordsPath(), content: sheetHeader(cfg.Fields)},
		{path: cfg.PricesPath(), content: emptyCatalog(cfg.PricesPath())},
	}

	var created []string
	for _, file := range files {
		if file.path == "" {
			continue
		}
		ok, err := store.WriteFileIfMissing(file.path, []byte(file.content))
		if err != nil {
			return created, err
		}
		if ok {
			created = append(created, file.path)
		}
	}
	return created, nil
}

func sheetHeader(f config.FieldsConfig) string {
	cols := []string{firstOr(f.NameAliases, "Nama"), firstOr(f.PhoneAliases, "No. Whatsapp"), f.DateOfBirth, f.Month, f.Day, f.Reminder}
	return strings.Join(cols, ",") + "\n"
}

func emptyCatalog(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "treatments: []\n"
	default:
		return "[]\n"
	}
}

func firstOr(values []string, fallback string) string {
	if len(values) == 0 || strings.TrimSpace(values[0]) == "" {
		return fallback
	}
	return values[0]
}
