package depio

import (
	"sort"
)

// ContentTypeDef declares one symbolic content type: its base name, the
// formats it may be stored in, and the token used for it inside filenames.
type ContentTypeDef struct {
	Name    string
	Formats []string
	Token   string
}

// FormatDef declares one symbolic format and its filename extension.
type FormatDef struct {
	Name      string
	Extension string
}

// Catalog is the static registry mapping content types to filename tokens
// and formats to extensions. It is read-only after construction; the reverse
// indexes used for parsing are derived from the same tables used for
// rendering, which is what makes render and parse exact inverses.
type Catalog struct {
	contentTypes map[string]ContentTypeDef
	tokenIndex   map[string]string // token -> base content type
	formatIndex  map[string]string // format -> extension
	extIndex     map[string]string // extension -> format (declaration order wins)
	milestones   map[string]bool
}

// NewCatalog builds a catalog from explicit tables. When two formats share
// an extension, the earlier declaration wins reverse (extension to format)
// lookups.
func NewCatalog(types []ContentTypeDef, formats []FormatDef, milestones []string) *Catalog {
	c := &Catalog{
		contentTypes: make(map[string]ContentTypeDef, len(types)),
		tokenIndex:   make(map[string]string, len(types)),
		formatIndex:  make(map[string]string, len(formats)),
		extIndex:     make(map[string]string, len(formats)),
		milestones:   make(map[string]bool, len(milestones)),
	}
	for _, t := range types {
		c.contentTypes[t.Name] = t
		c.tokenIndex[t.Token] = t.Name
	}
	for _, f := range formats {
		c.formatIndex[f.Name] = f.Extension
		if _, taken := c.extIndex[f.Extension]; !taken {
			c.extIndex[f.Extension] = f.Name
		}
	}
	for _, m := range milestones {
		c.milestones[m] = true
	}
	return c
}

// ExtensionFor returns the filename extension for a symbolic format.
// Unknown formats return ok == false, never a guessed extension.
func (c *Catalog) ExtensionFor(format string) (string, bool) {
	ext, ok := c.formatIndex[format]
	return ext, ok
}

// FormatForExtension is the reverse of ExtensionFor. For extensions claimed
// by more than one format the earliest catalog declaration wins.
func (c *Catalog) FormatForExtension(ext string) (string, bool) {
	f, ok := c.extIndex[ext]
	return f, ok
}

// TokenFor returns the filename token for a content type base, qualified by
// an optional milestone. The token is the base's token alone when milestone
// is empty, else "<token>-<milestone>".
func (c *Catalog) TokenFor(base, milestone string) (string, bool) {
	t, ok := c.contentTypes[base]
	if !ok {
		return "", false
	}
	if milestone == "" {
		return t.Token, true
	}
	if !c.milestones[milestone] {
		return "", false
	}
	return t.Token + "-" + milestone, true
}

// ContentTypeForToken recovers the base content type (and milestone, when
// the token carries one) from a filename token.
func (c *Catalog) ContentTypeForToken(token string) (base, milestone string, ok bool) {
	if b, hit := c.tokenIndex[token]; hit {
		return b, "", true
	}
	for m := range c.milestones {
		suffix := "-" + m
		if len(token) > len(suffix) && token[len(token)-len(suffix):] == suffix {
			if b, hit := c.tokenIndex[token[:len(token)-len(suffix)]]; hit {
				return b, m, true
			}
		}
	}
	return "", "", false
}

// FormatsFor returns the formats registered for a content type base.
func (c *Catalog) FormatsFor(base string) ([]string, bool) {
	t, ok := c.contentTypes[base]
	if !ok {
		return nil, false
	}
	return append([]string(nil), t.Formats...), true
}

// ContentTypes returns the registered base content type names, sorted.
func (c *Catalog) ContentTypes() []string {
	names := make([]string, 0, len(c.contentTypes))
	for n := range c.contentTypes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Milestones returns the recognized milestone qualifiers, sorted.
func (c *Catalog) Milestones() []string {
	ms := make([]string, 0, len(c.milestones))
	for m := range c.milestones {
		ms = append(ms, m)
	}
	sort.Strings(ms)
	return ms
}

// -----------------------------------------------------------------------------
// Catalog-resolved parsing
// -----------------------------------------------------------------------------

// Components is a parsed managed filename with its tokens resolved through
// the catalog: the content token replaced by the base content type and the
// extension replaced by the symbolic format.
//
// Milestone qualifiers are folded into the base content type on lookup, so
// parsing is lossy with respect to the milestone.
type Components struct {
	DatasetID   string
	ContentType string
	Format      string
	Partition   int
	Version     int // 0 when the name carries no version suffix
}

// ParseFileName decomposes a managed filename and resolves it against the
// catalog. The parse fails (ok == false, zero Components) when the name
// deviates from the grammar or when the content token or extension is not
// in the catalog.
func ParseFileName(c *Catalog, name string) (Components, bool) {
	p, ok := SplitFileName(name, false)
	if !ok {
		return Components{}, false
	}
	base, _, ok := c.ContentTypeForToken(p.ContentToken)
	if !ok {
		return Components{}, false
	}
	format, ok := c.FormatForExtension(p.Extension)
	if !ok {
		return Components{}, false
	}
	return Components{
		DatasetID:   p.DatasetID,
		ContentType: base,
		Format:      format,
		Partition:   p.Partition,
		Version:     p.Version,
	}, true
}

// -----------------------------------------------------------------------------
// Default tables
// -----------------------------------------------------------------------------

var defaultMilestones = []string{"deposit", "upload", "annotate", "review", "release"}

// Extension collisions are resolved by order: "xml" precedes "pdbml" so the
// reverse lookup of ".xml" yields the generic format.
var defaultFormats = []FormatDef{
	{"pdbx", "cif"},
	{"pdb", "pdb"},
	{"xml", "xml"},
	{"pdbml", "xml"},
	{"cifeps", "eps"},
	{"nmr-star", "str"},
	{"pic", "pic"},
	{"map", "map"},
	{"ccp4", "ccp4"},
	{"mrc2000", "mrc"},
	{"mtz", "mtz"},
	{"txt", "txt"},
	{"html", "html"},
	{"json", "json"},
	{"pdf", "pdf"},
	{"csv", "csv"},
	{"jpg", "jpg"},
	{"png", "png"},
	{"svg", "svg"},
	{"gif", "gif"},
	{"amber", "amber"},
	{"cns", "cns"},
	{"cyana", "cyana"},
	{"xplor", "xplor"},
	{"fasta", "fasta"},
	{"mdl", "mdl"},
	{"mol", "mol"},
	{"mol2", "mol2"},
	{"sdf", "sdf"},
	{"tar", "tar"},
	{"gz", "gz"},
	{"any", "any"},
}

var defaultContentTypes = []ContentTypeDef{
	{"model", []string{"pdbx", "pdb", "pdbml", "cifeps"}, "model"},
	{"structure-factors", []string{"pdbx", "mtz", "txt"}, "sf"},
	{"seq-data-stats", []string{"pic"}, "seq-data-stats"},
	{"seq-align-data", []string{"pic"}, "seq-align-data"},
	{"seqdb-match", []string{"pdbx", "pic"}, "seqdb-match"},
	{"blast-match", []string{"xml"}, "blast-match"},
	{"seq-assign", []string{"pdbx"}, "seq-assign"},
	{"assembly-assign", []string{"pdbx", "txt"}, "assembly-assign"},
	{"assembly-model", []string{"pdb", "pdbx"}, "assembly-model"},
	{"assembly-suggested", []string{"json"}, "assembly-suggested"},
	{"polymer-linkage-distances", []string{"pdbx", "json"}, "poly-link-dist"},
	{"polymer-linkage-report", []string{"html"}, "poly-link-report"},
	{"map-2fofc", []string{"map"}, "map-2fofc"},
	{"map-fofc", []string{"map"}, "map-fofc"},
	{"omit-map-2fofc", []string{"map"}, "omit-map-2fofc"},
	{"omit-map-fofc", []string{"map"}, "omit-map-fofc"},
	{"em-volume", []string{"map", "ccp4", "mrc2000"}, "em-volume"},
	{"em-mask-volume", []string{"map", "ccp4", "mrc2000"}, "em-mask-volume"},
	{"em-volume-fsc", []string{"xml"}, "em-volume-fsc"},
	{"deposit-volume-params", []string{"pic"}, "deposit-volume-params"},
	{"nmr-chemical-shifts", []string{"nmr-star", "pdbx", "any"}, "cs"},
	{"nmr-chemical-shifts-auth", []string{"nmr-star", "pdbx", "any"}, "cs-auth"},
	{"nmr-restraints", []string{"any", "nmr-star", "amber", "cns", "cyana", "xplor", "pdb"}, "mr"},
	{"nmr-data-str", []string{"pdbx", "nmr-star"}, "nmr-data-str"},
	{"nmrif", []string{"pdbx"}, "nmrif"},
	{"status-history", []string{"pdbx"}, "status-history"},
	{"validation-report", []string{"pdf"}, "valrpt"},
	{"validation-report-full", []string{"pdf"}, "valrpt-full"},
	{"validation-data", []string{"xml", "pdbx"}, "val-data"},
	{"correspondence-to-depositor", []string{"txt"}, "correspondence-to-depositor"},
}

var defaultCatalog = NewCatalog(defaultContentTypes, defaultFormats, defaultMilestones)

// DefaultCatalog returns the built-in content-type and format registry.
// The returned catalog is shared and must not be mutated; sites needing a
// different vocabulary construct their own with NewCatalog.
func DefaultCatalog() *Catalog { return defaultCatalog }
