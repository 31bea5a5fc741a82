package migration

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"
	"unicode"
)

const (
	upSuffix   = ".up.sql"
	downSuffix = ".down.sql"
)

var migrationTemplate = template.Must(template.New("migration").Parse(
	`-- {{.Name}} ({{.Direction}})
-- Created {{.Created}}
{{if eq .Direction "down"}}-- Reverts {{.Version}}_{{.Name}}.up.sql
{{end}}
`))

// Pair names the two files of a new migration
type Pair struct {
	Version  string
	Name     string
	UpPath   string
	DownPath string
}

// Create writes an empty up/down pair into dir, versioned by now (YYYYMMDDHHMMSS)
func Create(dir, name string, now time.Time) (*Pair, error) {
	slug := slugify(name)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create migrations directory: %w", err)
	}

	p := &Pair{Version: now.UTC().Format("20060102150405"), Name: slug}
	base := filepath.Join(dir, p.Version+"_"+slug)
	p.UpPath, p.DownPath = base+upSuffix, base+downSuffix

	if err := writeMigration(p.UpPath, p, "up", now); err != nil {
		return nil, err
	}
	if err := writeMigration(p.DownPath, p, "down", now); err != nil {
		_ = os.Remove(p.UpPath)
		return nil, err
	}
	return p, nil
}

func writeMigration(path string, p *Pair, direction string, now time.Time) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return migrationTemplate.Execute(f, map[string]string{
		"Name":      p.Name,
		"Version":   p.Version,
		"Direction": direction,
		"Created":   now.UTC().Format(time.RFC3339),
	})
}

// List returns the migration base names (version_name) found in source, oldest first
func List(source fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(source, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	var names []string
	for _, e := range entries {
		if base, ok := strings.CutSuffix(e.Name(), upSuffix); ok && !e.IsDir() {
			names = append(names, base)
		}
	}
	sort.Strings(names)
	return names, nil
}

// slugify lower-cases name and joins its words with underscores
func slugify(name string) string {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || unicode.IsDigit(r))
	})
	return strings.Join(words, "_")
}
