package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Entry is one migration pair as found on disk
type Entry struct {
	Version uint
	Name    string
}

// List returns the migration pairs in a directory, ordered by version. A
// missing directory yields an empty list.
func List(dir string) ([]Entry, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	var entries []Entry
	for _, f := range files {
		base, found := strings.CutSuffix(f.Name(), ".up.sql")
		if f.IsDir() || !found {
			continue
		}
		version, name, ok := splitBase(base)
		if !ok {
			continue
		}
		entries = append(entries, Entry{Version: version, Name: name})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Version < entries[j].Version })
	return entries, nil
}

// Create writes an empty up/down SQL pair with the next sequential version
// and returns their paths
func Create(dir, name string) (upPath, downPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create migrations directory: %w", err)
	}

	entries, err := List(dir)
	if err != nil {
		return "", "", err
	}
	next := uint(1)
	if n := len(entries); n > 0 {
		next = entries[n-1].Version + 1
	}

	base := fmt.Sprintf("%06d_%s", next, slugify(name))
	upPath = filepath.Join(dir, base+".up.sql")
	downPath = filepath.Join(dir, base+".down.sql")

	header := fmt.Sprintf("-- %s\n\n", base)
	if err := os.WriteFile(upPath, []byte(header), 0o644); err != nil {
		return "", "", fmt.Errorf("write up migration: %w", err)
	}
	if err := os.WriteFile(downPath, []byte(header), 0o644); err != nil {
		os.Remove(upPath)
		return "", "", fmt.Errorf("write down migration: %w", err)
	}
	return upPath, downPath, nil
}

// splitBase parses "000001_create_tables" into version and name
func splitBase(base string) (uint, string, bool) {
	versionPart, name, found := strings.Cut(base, "_")
	if !found || name == "" {
		return 0, "", false
	}
	version, err := strconv.ParseUint(versionPart, 10, 32)
	if err != nil {
		return 0, "", false
	}
	return uint(version), name, true
}

// slugify lowercases the name and collapses separators to single underscores
func slugify(name string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		case r == ' ' || r == '-' || r == '_':
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
