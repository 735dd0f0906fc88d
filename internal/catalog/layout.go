package catalog

import (
	"fmt"
	"path/filepath"
	"slices"
)

// Layout describes where event folders live. With ClipTypes set, each clip
// type is a root directory under BaseDir (multi-root). With no clip types the
// event folders sit directly in BaseDir (single-root).
type Layout struct {
	BaseDir   string
	ClipTypes []string
}

// Root is one directory whose immediate children are event folders.
type Root struct {
	ClipType string
	Dir      string
}

// MultiRoot reports whether event ids carry a clip type prefix.
func (l Layout) MultiRoot() bool {
	return len(l.ClipTypes) > 0
}

// Roots lists the directories scanned and watched for event folders.
func (l Layout) Roots() []Root {
	base := filepath.Clean(l.BaseDir)
	if !l.MultiRoot() {
		return []Root{{Dir: base}}
	}

	roots := make([]Root, 0, len(l.ClipTypes))
	for _, ct := range l.ClipTypes {
		roots = append(roots, Root{ClipType: ct, Dir: filepath.Join(base, ct)})
	}
	return roots
}

// RootFor returns the root whose directory is exactly dir.
func (l Layout) RootFor(dir string) (Root, bool) {
	dir = filepath.Clean(dir)
	for _, r := range l.Roots() {
		if r.Dir == dir {
			return r, true
		}
	}
	return Root{}, false
}

// Classify maps the path of an event folder to its clip type and folder name.
// Paths outside the configured roots, or with a non-matching name, are
// rejected.
func (l Layout) Classify(path string) (clipType, folder string, ok bool) {
	path = filepath.Clean(path)
	root, ok := l.RootFor(filepath.Dir(path))
	if !ok {
		return "", "", false
	}

	folder = filepath.Base(path)
	if !IsEventFolder(folder) {
		return "", "", false
	}
	return root.ClipType, folder, true
}

// FolderPath decodes an event id to the folder it names. The folder is not
// required to exist.
func (l Layout) FolderPath(id string) (string, error) {
	clipType, folder, err := SplitEventID(id, l.MultiRoot())
	if err != nil {
		return "", err
	}

	if l.MultiRoot() && !slices.Contains(l.ClipTypes, clipType) {
		return "", fmt.Errorf("%w: unknown clip type %q", ErrMalformed, clipType)
	}

	for _, r := range l.Roots() {
		if r.ClipType == clipType {
			return filepath.Join(r.Dir, folder), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrMalformed, id)
}
