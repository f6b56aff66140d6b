package depio

import (
	"fmt"
	"strings"
)

// FileParts is the structural decomposition of a managed filename.
// The fields are raw grammar tokens; catalog resolution (content token to
// content type, extension to format) is layered on top by ParseFileName.
type FileParts struct {
	// DatasetID is the deposition or group identifier (D_... or G_...).
	DatasetID string

	// ContentToken is the filename token for the content type, including any
	// milestone suffix (e.g. "model", "sf", "model-deposit").
	ContentToken string

	// Extension is the filename extension without the dot.
	Extension string

	// Partition is the partition number (>= 1).
	Partition int

	// Version is the version number, or 0 when the name carries no
	// version suffix.
	Version int
}

// RenderFileName composes a managed filename from its grammar tokens:
//
//	<datasetID>_<contentToken>_P<partition>.<extension>[.V<version>]
//
// version selects the suffix: a concrete version number emits ".V<n>";
// VersionNone emits no suffix; any symbolic selector emits a "*" wildcard,
// producing a glob template rather than a concrete name.
//
// Tokens are not escaped. Content tokens and extensions must not contain
// "_P" or "." in ambiguous positions; the catalog guarantees this for its
// own vocabulary.
func RenderFileName(datasetID, contentToken, extension string, partition int, version Version) (string, error) {
	if datasetID == "" || contentToken == "" || extension == "" {
		return "", fmt.Errorf("render: empty component: %w", ErrInvalidReference)
	}
	if partition < 1 {
		return "", fmt.Errorf("render: partition %d: %w", partition, ErrInvalidReference)
	}
	base := fmt.Sprintf("%s_%s_P%d.%s", datasetID, contentToken, partition, extension)
	switch n, ok := version.Concrete(); {
	case ok:
		return fmt.Sprintf("%s.V%d", base, n), nil
	case version.kind == versionNone:
		return base, nil
	case version.valid():
		return base + ".V*", nil
	}
	return "", fmt.Errorf("render: version %s: %w", version, ErrInvalidReference)
}

// SplitFileName decomposes a managed filename into its grammar tokens.
//
// The parse is purely structural: the content token and extension are not
// checked against the catalog. Any structural deviation (missing partition
// marker, non-numeric partition or version, malformed dataset id) yields
// ok == false and a zero FileParts, never a partial result or a panic.
//
// When requireVersion is set, a name without a trailing ".V<n>" component
// fails even if the rest parses.
func SplitFileName(name string, requireVersion bool) (FileParts, bool) {
	var p FileParts

	rest := name
	if dot := strings.LastIndex(rest, "."); dot >= 0 {
		if v, ok := versionSuffix(rest[dot+1:]); ok {
			p.Version = v
			rest = rest[:dot]
		}
	}
	if requireVersion && p.Version == 0 {
		return FileParts{}, false
	}

	dot := strings.LastIndex(rest, ".")
	if dot <= 0 || dot == len(rest)-1 {
		return FileParts{}, false
	}
	p.Extension = rest[dot+1:]
	base := rest[:dot]

	mark := strings.LastIndex(base, "_P")
	if mark <= 0 {
		return FileParts{}, false
	}
	part, err := parsePositiveInt(base[mark+2:])
	if err != nil {
		return FileParts{}, false
	}
	p.Partition = part

	id, token, ok := splitDatasetID(base[:mark])
	if !ok {
		return FileParts{}, false
	}
	p.DatasetID = id
	p.ContentToken = token
	return p, true
}

// versionSuffix recognizes a trailing V<digits> component.
func versionSuffix(s string) (int, bool) {
	if len(s) < 2 || s[0] != 'V' {
		return 0, false
	}
	n, err := parsePositiveInt(s[1:])
	if err != nil {
		return 0, false
	}
	return n, true
}

// splitDatasetID separates "<id>_<token>" where id is D_<digits> or
// G_<digits>. Dataset ids are constrained to this shape precisely so the
// "_P" partition marker cannot collide with id content.
func splitDatasetID(s string) (id, token string, ok bool) {
	if len(s) < 4 || (s[0] != 'D' && s[0] != 'G') || s[1] != '_' {
		return "", "", false
	}
	i := 2
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 2 || i >= len(s)-1 || s[i] != '_' {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}

// validDatasetID reports whether s is a well-formed deposition (D_) or
// group (G_) identifier.
func validDatasetID(s string) bool {
	if len(s) < 3 || (s[0] != 'D' && s[0] != 'G') || s[1] != '_' {
		return false
	}
	for _, c := range s[2:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
