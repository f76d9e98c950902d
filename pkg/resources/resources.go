// Package resources indexes the versioned resource files of a package or host
// directory and splits their basenames into an ordering sequence and a
// descriptor.
//
// A migration basename starts with a fixed-width sequence:
//
//	2020_01_01_000001_create_plans_table.up.sql
//	|---- sequence ---||------ descriptor ------|
//
// The descriptor identifies the logical resource across republishes. A
// configuration file has no sequence; its whole basename is the descriptor.
package resources

import (
	"path"
	"sort"

	"github.com/spf13/afero"

	"github.com/muhamedRadwan/subscriptions/pkg/constants"
	"github.com/muhamedRadwan/subscriptions/pkg/errors"
)

// Kind selects how basenames of an index are split.
type Kind int

const (
	// KindMigration splits a basename into a fixed-width sequence and a descriptor.
	KindMigration Kind = iota
	// KindConfig treats the whole basename as the descriptor.
	KindConfig
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindMigration:
		return "migration"
	case KindConfig:
		return "config"
	default:
		return "unknown"
	}
}

// File is one resource file found by a scan. Path is relative to the
// filesystem that was scanned.
type File struct {
	Path     string
	Basename string
}

// SequencedName is the split form of a basename.
type SequencedName struct {
	Sequence   string
	Descriptor string
}

// Malformed reports whether a migration basename was too short to carry a sequence.
func (n SequencedName) Malformed() bool {
	return n.Sequence == ""
}

// SequencedNameOf splits a basename according to kind. Migration basenames
// shorter than the sequence width fall back to an empty sequence with the
// whole basename as descriptor.
func SequencedNameOf(basename string, kind Kind) SequencedName {
	if kind == KindConfig || len(basename) < constants.SequenceWidth {
		return SequencedName{Descriptor: basename}
	}
	return SequencedName{
		Sequence:   basename[:constants.SequenceWidth],
		Descriptor: basename[constants.SequenceWidth:],
	}
}

// Index is the ordered listing of resource files in one directory.
type Index struct {
	dir   string
	kind  Kind
	files []File
}

// Scan lists the regular files of dir matching pattern, non-recursively,
// ordered lexicographically by basename. A missing dir yields a
// *errors.NotFoundError.
func Scan(fs afero.Fs, dir, pattern string, kind Kind) (*Index, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, errors.NewValidationError("pattern", pattern, err.Error())
	}

	exists, err := afero.DirExists(fs, dir)
	if err != nil {
		return nil, errors.WrapIO("scan", dir, err)
	}
	if !exists {
		return nil, errors.NewNotFoundError("directory", dir)
	}

	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, errors.WrapIO("scan", dir, err)
	}

	idx := &Index{dir: dir, kind: kind}
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		name := info.Name()
		if ok, _ := path.Match(pattern, name); !ok {
			continue
		}
		idx.files = append(idx.files, File{
			Path:     path.Join(dir, name),
			Basename: name,
		})
	}

	sort.Slice(idx.files, func(i, j int) bool {
		return idx.files[i].Basename < idx.files[j].Basename
	})

	return idx, nil
}

// ScanOrEmpty is Scan with a missing directory reported as an empty index.
func ScanOrEmpty(fs afero.Fs, dir, pattern string, kind Kind) (*Index, error) {
	idx, err := Scan(fs, dir, pattern, kind)
	if errors.IsNotFound(err) {
		return &Index{dir: dir, kind: kind}, nil
	}
	return idx, err
}

// Dir returns the scanned directory.
func (idx *Index) Dir() string {
	return idx.dir
}

// Kind returns how the index splits basenames.
func (idx *Index) Kind() Kind {
	return idx.kind
}

// Files returns the files in scan order.
func (idx *Index) Files() []File {
	out := make([]File, len(idx.files))
	copy(out, idx.files)
	return out
}

// Len returns the number of indexed files.
func (idx *Index) Len() int {
	return len(idx.files)
}

// SequencedName splits f according to the index kind.
func (idx *Index) SequencedName(f File) SequencedName {
	return SequencedNameOf(f.Basename, idx.kind)
}

// Has reports whether a file with the given basename is indexed.
func (idx *Index) Has(basename string) bool {
	i := sort.Search(len(idx.files), func(i int) bool {
		return idx.files[i].Basename >= basename
	})
	return i < len(idx.files) && idx.files[i].Basename == basename
}
