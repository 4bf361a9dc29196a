package trackdef

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/mpapenbr/iracelog-sector-monitor/log"
)

// Dir provides the definition files of a directory.
type Dir struct {
	path string
	l    *log.Logger
}

func NewDir(path string) *Dir {
	return &Dir{path: path, l: log.Default().Named("trackdef")}
}

func (d *Dir) Path() string {
	return d.path
}

// FilePath returns the full path of the definition file name.
func (d *Dir) FilePath(name string) string {
	return filepath.Join(d.path, name)
}

// List returns the definition files sorted by name.
func (d *Dir) List() ([]string, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", d.path, ErrDirNotFound)
		}
		return nil, err
	}
	ret := []string{}
	for _, e := range entries {
		if e.IsDir() || !isDefinitionFile(e.Name()) {
			continue
		}
		ret = append(ret, e.Name())
	}
	if len(ret) == 0 {
		return nil, fmt.Errorf("%s: %w", d.path, ErrNoDefinitions)
	}
	sort.Strings(ret)
	return ret, nil
}

// Load reads and parses the definition file name.
func (d *Dir) Load(name string) (*Definition, error) {
	data, err := os.ReadFile(d.FilePath(name))
	if err != nil {
		return nil, err
	}
	def, err := Parse(name, data)
	if err != nil {
		return nil, err
	}
	d.l.Debug("loaded definition",
		log.String("file", name),
		log.String("name", def.Name),
		log.Int("sectors", len(def.Sectors)))
	return def, nil
}

// Resolve maps arg to a file of the directory. arg is either the 1-based
// position within List, the file name or the file name without extension.
func (d *Dir) Resolve(arg string) (string, error) {
	files, err := d.List()
	if err != nil {
		return "", err
	}
	if idx, err := strconv.Atoi(arg); err == nil {
		if idx < 1 || idx > len(files) {
			return "", fmt.Errorf("%d: %w", idx, ErrInvalidChoice)
		}
		return files[idx-1], nil
	}
	for _, f := range files {
		if f == arg || strings.TrimSuffix(f, filepath.Ext(f)) == arg {
			return f, nil
		}
	}
	return "", fmt.Errorf("%s: %w", arg, ErrInvalidChoice)
}

func isDefinitionFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}
