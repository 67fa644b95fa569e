package pinkdots

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// DotMapExt is the file extension of dot map files.
const DotMapExt = ".fpm"

// DefectLookup returns the defect sites known for a camera type at a given
// raw resolution. When no usable pattern exists for that key the error
// wraps ErrUnknownDefectPattern.
type DefectLookup interface {
	Dots(cameraType string, width, height int) ([]DefectSite, error)
}

func unknownPattern(key MapKey) error {
	return fmt.Errorf("%w: camera %q at %dx%d", ErrUnknownDefectPattern, key.CameraType, key.Width, key.Height)
}

// MapKey identifies one dot map.
type MapKey struct {
	CameraType string
	Width      int
	Height     int
}

func (k MapKey) String() string {
	return fmt.Sprintf("%s_%dx%d", k.CameraType, k.Width, k.Height)
}

// FileName is the dot map file name DirLookup expects for k.
func (k MapKey) FileName() string { return k.String() + DotMapExt }

// ParseMapKey parses a name of the form <camera>_<width>x<height>, with or
// without the .fpm extension.
func ParseMapKey(name string) (MapKey, error) {
	base := strings.TrimSuffix(filepath.Base(name), DotMapExt)
	sep := strings.LastIndex(base, "_")
	if sep <= 0 {
		return MapKey{}, fmt.Errorf("dot map name %q: want <camera>_<width>x<height>", name)
	}
	dims := strings.SplitN(base[sep+1:], "x", 2)
	if len(dims) != 2 {
		return MapKey{}, fmt.Errorf("dot map name %q: missing resolution", name)
	}
	w, err := strconv.Atoi(dims[0])
	if err != nil || w <= 0 {
		return MapKey{}, fmt.Errorf("dot map name %q: bad width", name)
	}
	h, err := strconv.Atoi(dims[1])
	if err != nil || h <= 0 {
		return MapKey{}, fmt.Errorf("dot map name %q: bad height", name)
	}
	return MapKey{CameraType: base[:sep], Width: w, Height: h}, nil
}

// MapLookup is an in-memory DefectLookup.
type MapLookup struct {
	mu   sync.RWMutex
	maps map[MapKey][]DefectSite
}

func NewMapLookup() *MapLookup {
	return &MapLookup{maps: make(map[MapKey][]DefectSite)}
}

// Register stores a copy of sites under the given key, replacing any
// previous entry.
func (l *MapLookup) Register(cameraType string, width, height int, sites []DefectSite) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.maps[MapKey{cameraType, width, height}] = append([]DefectSite(nil), sites...)
}

func (l *MapLookup) Dots(cameraType string, width, height int) ([]DefectSite, error) {
	key := MapKey{cameraType, width, height}
	l.mu.RLock()
	defer l.mu.RUnlock()
	sites, ok := l.maps[key]
	if !ok || len(sites) == 0 {
		return nil, unknownPattern(key)
	}
	return sites, nil
}

// Keys lists the registered keys in sorted order.
func (l *MapLookup) Keys() []MapKey {
	l.mu.RLock()
	keys := make([]MapKey, 0, len(l.maps))
	for k := range l.maps {
		keys = append(keys, k)
	}
	l.mu.RUnlock()
	sortKeys(keys)
	return keys
}

// DirLookup serves dot maps from a directory of <camera>_<w>x<h>.fpm files.
// Files are parsed on first use and cached.
type DirLookup struct {
	dir   string
	cache *MapLookup
	mu    sync.Mutex
	// missing remembers keys whose file does not exist or lists no sites.
	// Unreadable or malformed files are retried on every call.
	missing map[MapKey]bool
}

func NewDirLookup(dir string) *DirLookup {
	return &DirLookup{
		dir:     dir,
		cache:   NewMapLookup(),
		missing: make(map[MapKey]bool),
	}
}

func (l *DirLookup) Dots(cameraType string, width, height int) ([]DefectSite, error) {
	if sites, err := l.cache.Dots(cameraType, width, height); err == nil {
		return sites, nil
	}
	key := MapKey{cameraType, width, height}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.missing[key] {
		return nil, unknownPattern(key)
	}
	sites, err := l.load(key)
	if errors.Is(err, os.ErrNotExist) || (err == nil && len(sites) == 0) {
		l.missing[key] = true
		return nil, unknownPattern(key)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", unknownPattern(key), err)
	}
	l.cache.Register(cameraType, width, height, sites)
	return sites, nil
}

func (l *DirLookup) load(key MapKey) ([]DefectSite, error) {
	path := filepath.Join(l.dir, key.FileName())
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sites, err := ParseDotList(f)
	if err != nil {
		return nil, fmt.Errorf("dot map %s: %w", path, err)
	}
	return sites, nil
}

// Keys lists the dot maps present in the directory.
func (l *DirLookup) Keys() ([]MapKey, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("reading dot map directory: %w", err)
	}
	var keys []MapKey
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), DotMapExt) {
			continue
		}
		k, err := ParseMapKey(e.Name())
		if err != nil {
			continue
		}
		keys = append(keys, k)
	}
	sortKeys(keys)
	return keys, nil
}

// ParseDotList reads one "x y" pair per line. Fields may be separated by
// spaces, tabs or a comma; blank lines and lines starting with # are
// ignored.
func ParseDotList(r io.Reader) ([]DefectSite, error) {
	var sites []DefectSite
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ' ' || r == '\t' || r == ','
		})
		if len(fields) < 2 {
			return nil, fmt.Errorf("dot list line %d: want two coordinates, got %q", lineNo, line)
		}
		x, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("dot list line %d: bad x: %w", lineNo, err)
		}
		y, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("dot list line %d: bad y: %w", lineNo, err)
		}
		sites = append(sites, DefectSite{X: x, Y: y})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading dot list: %w", err)
	}
	return sites, nil
}

func sortKeys(keys []MapKey) {
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.CameraType != b.CameraType {
			return a.CameraType < b.CameraType
		}
		if a.Width != b.Width {
			return a.Width < b.Width
		}
		return a.Height < b.Height
	})
}
