// Package depio locates, names, and moves the versioned data files of a
// structural-biology deposition archive.
//
// The package centers on typed file references: a reference combines a
// dataset identifier, a storage class, a content type and format, a
// partition number, and a version selector, and resolves to a concrete
// filesystem path (or to a glob template when a field is wildcarded).
// Filenames follow one grammar everywhere:
//
//	<dataset_id>_<content_token>_P<partition>.<extension>[.V<version>]
//
// Around the core sit the operational utilities that consume it: version
// maintenance and purging, cold-archive compression, deposit tree
// synchronization, and public-release naming.
package depio

import (
	"context"
	"fmt"
	"io"
)

// -----------------------------------------------------------------------------
// Core types
// -----------------------------------------------------------------------------

// StorageClass names the filesystem area a managed file lives in.
// Each class has its own root-directory rule; see SiteConfig.BaseDir.
type StorageClass string

const (
	StorageArchive         StorageClass = "archive"
	StorageWFArchive       StorageClass = "wf-archive"
	StorageDeposit         StorageClass = "deposit"
	StorageDepositUI       StorageClass = "deposit-ui"
	StorageTempDep         StorageClass = "tempdep"
	StorageAutogroup       StorageClass = "autogroup"
	StorageWFInstance      StorageClass = "wf-instance"
	StorageSession         StorageClass = "session"
	StorageWFSession       StorageClass = "wf-session"
	StorageSessionDownload StorageClass = "session-download"
	StorageUploads         StorageClass = "uploads"
	StoragePickles         StorageClass = "pickles"
)

var storageClasses = map[StorageClass]bool{
	StorageArchive:         true,
	StorageWFArchive:       true,
	StorageDeposit:         true,
	StorageDepositUI:       true,
	StorageTempDep:         true,
	StorageAutogroup:       true,
	StorageWFInstance:      true,
	StorageSession:         true,
	StorageWFSession:       true,
	StorageSessionDownload: true,
	StorageUploads:         true,
	StoragePickles:         true,
}

// ParseStorageClass validates a storage class name.
// An out-of-set name is a caller defect and returns ErrStorageClass.
func ParseStorageClass(s string) (StorageClass, error) {
	sc := StorageClass(s)
	if !storageClasses[sc] {
		return "", fmt.Errorf("storage class %q: %w", s, ErrStorageClass)
	}
	return sc, nil
}

// Known returns whether the storage class is a member of the closed set.
func (sc StorageClass) Known() bool { return storageClasses[sc] }

// -----------------------------------------------------------------------------
// Version and partition selectors
// -----------------------------------------------------------------------------

type versionKind int

const (
	versionUnset versionKind = iota
	versionNumber
	versionLatest
	versionNext
	versionPrevious
	versionNone
)

// Version selects a file version, either as a concrete positive integer or
// symbolically against the versions present on disk.
//
// VersionNone selects no version at all: rendering produces a template with
// the ".V*" suffix wildcarded rather than a concrete path.
type Version struct {
	kind versionKind
	num  int
}

var (
	// VersionLatest selects the highest version present.
	VersionLatest = Version{kind: versionLatest}

	// VersionNext selects one past the highest version present
	// (1 when no versions exist yet).
	VersionNext = Version{kind: versionNext}

	// VersionPrevious selects the second-highest version present.
	VersionPrevious = Version{kind: versionPrevious}

	// VersionNone requests a version-wildcard template instead of a path.
	VersionNone = Version{kind: versionNone}
)

// VersionNumber selects an explicit version. n must be >= 1.
func VersionNumber(n int) Version { return Version{kind: versionNumber, num: n} }

// ParseVersion interprets the textual version selectors accepted by the
// command line and legacy call sites: "latest", "next", "previous", "none",
// or a positive integer.
func ParseVersion(s string) (Version, error) {
	switch s {
	case "latest":
		return VersionLatest, nil
	case "next":
		return VersionNext, nil
	case "previous", "prev":
		return VersionPrevious, nil
	case "none", "":
		return VersionNone, nil
	}
	n, err := parsePositiveInt(s)
	if err != nil {
		return Version{}, fmt.Errorf("version %q: %w", s, err)
	}
	return VersionNumber(n), nil
}

// Concrete reports whether v is an explicit version number, and its value.
func (v Version) Concrete() (int, bool) {
	return v.num, v.kind == versionNumber
}

func (v Version) valid() bool {
	switch v.kind {
	case versionNumber:
		return v.num >= 1
	case versionUnset:
		return false
	}
	return true
}

func (v Version) String() string {
	switch v.kind {
	case versionNumber:
		return fmt.Sprintf("%d", v.num)
	case versionLatest:
		return "latest"
	case versionNext:
		return "next"
	case versionPrevious:
		return "previous"
	case versionNone:
		return "none"
	}
	return "unset"
}

// Partition selects the partition slot of a content object: a concrete
// positive integer, or the next free slot.
type Partition struct {
	next bool
	num  int
}

// PartitionNext selects one past the highest partition present.
var PartitionNext = Partition{next: true}

// PartitionNumber selects an explicit partition. n must be >= 1.
func PartitionNumber(n int) Partition { return Partition{num: n} }

// ParsePartition interprets "next" or a positive integer.
func ParsePartition(s string) (Partition, error) {
	if s == "next" {
		return PartitionNext, nil
	}
	n, err := parsePositiveInt(s)
	if err != nil {
		return Partition{}, fmt.Errorf("partition %q: %w", s, err)
	}
	return PartitionNumber(n), nil
}

// Concrete reports whether p is an explicit partition number, and its value.
func (p Partition) Concrete() (int, bool) { return p.num, !p.next && p.num >= 1 }

func (p Partition) valid() bool { return p.next || p.num >= 1 }

func (p Partition) String() string {
	if p.next {
		return "next"
	}
	return fmt.Sprintf("%d", p.num)
}

// -----------------------------------------------------------------------------
// ArchiveStore interface
// -----------------------------------------------------------------------------

// ArchiveStore abstracts the object store holding off-site copies of
// cold-archive tarballs.
//
// Implementations may target the local filesystem, S3, or other object
// stores. Keys are forward-slash relative paths.
type ArchiveStore interface {
	// Put writes data under the given key.
	Put(ctx context.Context, key string, r io.Reader) error

	// Get retrieves the data stored under the given key.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists checks whether a key exists.
	Exists(ctx context.Context, key string) (bool, error)

	// List returns keys under the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the key if it exists.
	Delete(ctx context.Context, key string) error
}

// -----------------------------------------------------------------------------
// Compressor interface
// -----------------------------------------------------------------------------

// Compressor handles compression and decompression of cold-archive streams.
type Compressor interface {
	// Name returns the compressor identifier (for example, "gzip", "zstd", "noop").
	Name() string

	// Extension returns the file extension (for example, ".gz", ".zst", "").
	Extension() string

	// Compress wraps a writer with compression.
	Compress(w io.Writer) (io.WriteCloser, error)

	// Decompress wraps a reader with decompression.
	Decompress(r io.Reader) (io.ReadCloser, error)
}

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

// Error sentinel values for common conditions.
//
// ErrStorageClass and ErrReleaseDir signal closed-set violations: the caller
// asked for a name outside the recognized enumeration. Everything else is an
// expected absence condition and is handled locally by callers.
var (
	// ErrNotFound indicates a requested resource does not exist.
	ErrNotFound = errNotFound{}

	// ErrUnresolved indicates a symbolic version or partition request that
	// cannot be satisfied by the files present (e.g. "previous" with a
	// single version on disk). Expected and common; not logged as an error.
	ErrUnresolved = errUnresolved{}

	// ErrInvalidReference indicates a reference whose fields do not resolve
	// against the catalog or storage configuration.
	ErrInvalidReference = errInvalidReference{}

	// ErrStorageClass indicates a storage class outside the recognized set.
	ErrStorageClass = errStorageClass{}

	// ErrReleaseDir indicates a for-release subdirectory or version label
	// outside the recognized set.
	ErrReleaseDir = errReleaseDir{}

	// ErrKeyExists indicates an attempt to write to an existing store key.
	ErrKeyExists = errKeyExists{}

	// ErrInvalidKey indicates a store key that is empty or escapes the root.
	ErrInvalidKey = errInvalidKey{}
)

type errNotFound struct{}

func (errNotFound) Error() string { return "not found" }

type errUnresolved struct{}

func (errUnresolved) Error() string { return "version not resolvable" }

type errInvalidReference struct{}

func (errInvalidReference) Error() string { return "invalid file reference" }

type errStorageClass struct{}

func (errStorageClass) Error() string { return "unknown storage class" }

type errReleaseDir struct{}

func (errReleaseDir) Error() string { return "unknown release area" }

type errKeyExists struct{}

func (errKeyExists) Error() string { return "key exists" }

type errInvalidKey struct{}

func (errInvalidKey) Error() string { return "invalid key: escapes store root" }

func parsePositiveInt(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty: %w", ErrInvalidReference)
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("not a positive integer: %w", ErrInvalidReference)
		}
		n = n*10 + int(c-'0')
		if n > 1<<30 {
			return 0, fmt.Errorf("out of range: %w", ErrInvalidReference)
		}
	}
	if n < 1 {
		return 0, fmt.Errorf("must be positive: %w", ErrInvalidReference)
	}
	return n, nil
}
