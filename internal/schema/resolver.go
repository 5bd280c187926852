// Package schema resolves schema names against the include paths and
// schema files collected from the command line. Candidate files are
// mmap'd read-only to sniff their content before being handed to the
// loader, so a multi-megabyte schema never gets fully read just to be
// rejected.
package schema

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/tysontate/gommap"
)

const (
	resolveRetentionTime = 30 * time.Minute
	cleanupInterval      = 15 * time.Minute
	sniffWindow          = 256
)

var (
	ErrSchemaNotFound = errors.New("schema not found in schema files or include paths")
	ErrNotASchema     = errors.New("file does not look like a schema")
	ErrEmptySchema    = errors.New("schema file is empty")
)

// Resolver holds the ordered schema-file and include-path lists. Each
// list entry may itself be a colon-separated group, matching how the
// CLI flags are repeated and combined.
type Resolver struct {
	includes []string
	files    []string
	resolved *cache.Cache
}

func NewResolver(includes, files []string) *Resolver {
	return &Resolver{
		includes: splitPathList(includes),
		files:    splitPathList(files),
		resolved: cache.New(resolveRetentionTime, cleanupInterval),
	}
}

// splitPathList flattens repeated flag values, splitting each on ':'
// and dropping empty segments.
func splitPathList(groups []string) []string {
	var out []string
	for _, g := range groups {
		for _, p := range strings.Split(g, ":") {
			if p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// Includes returns the flattened include-path list, in search order.
func (r *Resolver) Includes() []string { return r.includes }

// Files returns the flattened schema-file list, in search order.
func (r *Resolver) Files() []string { return r.files }

// ResolveSchema finds the file backing the named schema: first an exact
// or basename match in the schema-file list, then the name joined onto
// each include path. The winning path is verified once and cached.
func (r *Resolver) ResolveSchema(name string) (string, error) {
	if name == "" {
		return "", errors.Wrap(ErrSchemaNotFound, "empty schema name")
	}
	if hit, ok := r.resolved.Get(name); ok {
		return hit.(string), nil
	}

	for _, f := range r.files {
		if f == name || filepath.Base(f) == name {
			if err := verify(f); err != nil {
				return "", errors.Wrapf(err, "schema file %s", f)
			}
			r.resolved.SetDefault(name, f)
			return f, nil
		}
	}
	for _, dir := range r.includes {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := verify(p); err != nil {
			return "", errors.Wrapf(err, "schema file %s", p)
		}
		r.resolved.SetDefault(name, p)
		return p, nil
	}
	return "", errors.Wrapf(ErrSchemaNotFound, "schema %q", name)
}

// verify maps the file read-only and sniffs the leading bytes. A schema
// is plain text; a NUL in the sniff window means we were pointed at a
// binary file.
func verify(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "failed to open schema file")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return errors.Wrap(err, "failed to stat schema file")
	}
	if info.Size() == 0 {
		return ErrEmptySchema
	}

	m, err := gommap.Map(f.Fd(), gommap.PROT_READ, gommap.MAP_SHARED)
	if err != nil {
		return errors.Wrap(err, "failed to mmap schema file")
	}
	defer m.UnsafeUnmap()

	window := m
	if len(window) > sniffWindow {
		window = window[:sniffWindow]
	}
	for _, b := range window {
		if b == 0 {
			return ErrNotASchema
		}
	}
	return nil
}
