package depio

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// ListVersions globs dir for filenames matching pattern (a filename with the
// version digits wildcarded) and returns the distinct version numbers
// present, ascending. Duplicate numbers from odd directory listings are
// collapsed; names without a well-formed ".V<n>" suffix are ignored.
//
// The listing is performed fresh on every call; no snapshot is cached.
func ListVersions(dir, pattern string) ([]int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("version listing %s: %w", pattern, err)
	}
	seen := make(map[int]bool)
	for _, m := range matches {
		name := filepath.Base(m)
		dot := strings.LastIndex(name, ".")
		if dot < 0 {
			continue
		}
		if v, ok := versionSuffix(name[dot+1:]); ok {
			seen[v] = true
		}
	}
	versions := make([]int, 0, len(seen))
	for v := range seen {
		versions = append(versions, v)
	}
	sort.Ints(versions)
	return versions, nil
}

// ResolveVersion resolves a version selector against the files in dir
// matching pattern.
//
//   - a concrete number resolves to itself without touching the filesystem
//   - latest resolves to the highest version present; ErrUnresolved when
//     no versions exist
//   - next resolves to highest+1, or 1 when no versions exist
//   - previous resolves to the second-highest; ErrUnresolved with fewer
//     than two versions present
//
// ErrUnresolved is an expected outcome ("no such file yet"), not a fault.
func ResolveVersion(dir, pattern string, v Version) (int, error) {
	if n, ok := v.Concrete(); ok {
		if n < 1 {
			return 0, fmt.Errorf("version %d: %w", n, ErrInvalidReference)
		}
		return n, nil
	}

	switch v.kind {
	case versionLatest, versionNext, versionPrevious:
	default:
		return 0, fmt.Errorf("version %s is not resolvable to a number: %w", v, ErrInvalidReference)
	}

	versions, err := ListVersions(dir, pattern)
	if err != nil {
		return 0, err
	}

	switch v.kind {
	case versionNext:
		if len(versions) == 0 {
			return 1, nil
		}
		return versions[len(versions)-1] + 1, nil
	case versionLatest:
		if len(versions) == 0 {
			return 0, fmt.Errorf("latest of %s: %w", pattern, ErrUnresolved)
		}
		return versions[len(versions)-1], nil
	case versionPrevious:
		if len(versions) < 2 {
			return 0, fmt.Errorf("previous of %s: %w", pattern, ErrUnresolved)
		}
		return versions[len(versions)-2], nil
	}
	return 0, fmt.Errorf("version %s: %w", v, ErrInvalidReference)
}

// ListPartitions globs dir for filenames matching pattern (a filename with
// the partition digits wildcarded) and returns the distinct partition
// numbers present, ascending.
func ListPartitions(dir, pattern string) ([]int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("partition listing %s: %w", pattern, err)
	}
	seen := make(map[int]bool)
	for _, m := range matches {
		if p, ok := SplitFileName(filepath.Base(m), false); ok {
			seen[p.Partition] = true
		}
	}
	parts := make([]int, 0, len(seen))
	for p := range seen {
		parts = append(parts, p)
	}
	sort.Ints(parts)
	return parts, nil
}

// resolvePartition resolves a partition selector; "next" means one past the
// highest partition present (1 when none exist).
func resolvePartition(dir, pattern string, p Partition) (int, error) {
	if n, ok := p.Concrete(); ok {
		return n, nil
	}
	if !p.next {
		return 0, fmt.Errorf("partition unset: %w", ErrInvalidReference)
	}
	parts, err := ListPartitions(dir, pattern)
	if err != nil {
		return 0, err
	}
	if len(parts) == 0 {
		return 1, nil
	}
	return parts[len(parts)-1] + 1, nil
}
