package loader

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotFound reports that no directory in the hierarchy contains the
// requested name.
var ErrNotFound = errors.New("not found")

// Dirs is an ordered hierarchy of configuration directories, highest
// precedence first.
type Dirs []string

// Primary returns the directory with the highest precedence.
func (d Dirs) Primary() string {
	if len(d) == 0 {
		return ""
	}
	return d[0]
}

// find returns the path of the first file named <name><ext> for any of the
// given extensions, searching directories in precedence order.
func (d Dirs) find(name string, exts []string) (string, error) {
	for _, dir := range d {
		for _, ext := range exts {
			path := filepath.Join(dir, name+ext)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}
	return "", ErrNotFound
}

// list returns one path per distinct name across all directories, sorted by
// name, with earlier directories shadowing later ones.
func (d Dirs) list(exts []string) []string {
	byName := make(map[string]string)
	for i := len(d) - 1; i >= 0; i-- {
		entries, err := os.ReadDir(d[i])
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			for _, ext := range exts {
				if strings.HasSuffix(entry.Name(), ext) {
					stem := strings.TrimSuffix(entry.Name(), ext)
					byName[stem] = filepath.Join(d[i], entry.Name())
				}
			}
		}
	}
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	paths := make([]string, 0, len(names))
	for _, name := range names {
		paths = append(paths, byName[name])
	}
	return paths
}

// stem returns the file name without directory or extension.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
