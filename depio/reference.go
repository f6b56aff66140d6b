package depio

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Reference identifies one managed data file: dataset, storage class,
// content type and format, partition, and version. References are cheap
// per-call values; resolution never mutates them.
//
// A Reference may be under-specified (no content type) and still resolve a
// directory path, or carry wildcards (VersionNone, format "any") and resolve
// search templates instead of concrete paths.
type Reference struct {
	cfg         *SiteConfig
	datasetID   string
	class       StorageClass
	contentType string
	milestone   string
	format      string
	partition   Partition
	version     Version
	instanceID  string
	sessionRoot string
}

// RefOption configures a Reference under construction.
type RefOption func(*Reference)

// WithDatasetID sets the deposition or group identifier.
func WithDatasetID(id string) RefOption {
	return func(r *Reference) { r.datasetID = id }
}

// WithStorage sets the storage class.
func WithStorage(class StorageClass) RefOption {
	return func(r *Reference) { r.class = class }
}

// WithContent sets the base content type and symbolic format.
func WithContent(contentType, format string) RefOption {
	return func(r *Reference) { r.contentType, r.format = contentType, format }
}

// WithMilestone qualifies the content type with a lifecycle milestone
// (deposit, upload, ...).
func WithMilestone(milestone string) RefOption {
	return func(r *Reference) { r.milestone = milestone }
}

// WithPartition sets the partition selector.
func WithPartition(p Partition) RefOption {
	return func(r *Reference) { r.partition = p }
}

// WithVersion sets the version selector.
func WithVersion(v Version) RefOption {
	return func(r *Reference) { r.version = v }
}

// WithInstance sets the workflow instance id (required for wf-instance
// storage).
func WithInstance(id string) RefOption {
	return func(r *Reference) { r.instanceID = id }
}

// WithSessionRoot anchors the session storage classes.
func WithSessionRoot(dir string) RefOption {
	return func(r *Reference) { r.sessionRoot = dir }
}

// NewReference builds a file reference against a site configuration.
// Defaults: archive storage, partition 1, latest version.
func NewReference(cfg *SiteConfig, opts ...RefOption) *Reference {
	r := &Reference{
		cfg:       cfg,
		class:     StorageArchive,
		partition: PartitionNumber(1),
		version:   VersionLatest,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DatasetID returns the dataset identifier of the reference.
func (r *Reference) DatasetID() string { return r.datasetID }

// Storage returns the storage class of the reference.
func (r *Reference) Storage() StorageClass { return r.class }

func (r *Reference) keys() LocationKeys {
	return LocationKeys{
		DatasetID:   r.datasetID,
		InstanceID:  r.instanceID,
		SessionRoot: r.sessionRoot,
	}
}

// token resolves the effective content-type token, milestone included.
func (r *Reference) token() (string, bool) {
	return r.cfg.Catalog().TokenFor(r.contentType, r.milestone)
}

// extension resolves the filename extension; the format "any" renders as a
// glob wildcard and is only meaningful in search templates.
func (r *Reference) extension() (string, bool) {
	if r.format == "any" {
		return "*", true
	}
	return r.cfg.Catalog().ExtensionFor(r.format)
}

// Valid reports whether the reference is resolvable: the storage keys,
// content type, format, partition and version must all resolve against the
// configuration and catalog. Whether a concrete version exists on disk is
// not consulted.
func (r *Reference) Valid() bool {
	if _, err := r.cfg.BaseDir(r.class, r.keys()); err != nil {
		return false
	}
	if _, ok := r.token(); !ok {
		return false
	}
	if _, ok := r.extension(); !ok {
		return false
	}
	return r.partition.valid() && r.version.valid()
}

// DirPath returns the storage base directory of the reference. It succeeds
// whenever the storage class and its keys are valid, even when no content
// type is set; directory-level operations rely on this.
func (r *Reference) DirPath() (string, error) {
	return r.cfg.BaseDir(r.class, r.keys())
}

// FileName resolves the reference to a concrete filename, resolving
// symbolic partition and version selectors against the base directory.
func (r *Reference) FileName() (string, error) {
	_, name, err := r.resolve()
	return name, err
}

// FilePath resolves the reference to a concrete full path.
//
// Returns ErrInvalidReference when the reference is not resolvable or
// requests a template (VersionNone), and ErrUnresolved when a symbolic
// version cannot be satisfied by the files present.
func (r *Reference) FilePath() (string, error) {
	dir, name, err := r.resolve()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func (r *Reference) resolve() (dir, name string, err error) {
	if !r.Valid() {
		return "", "", fmt.Errorf("reference %s/%s: %w", r.datasetID, r.contentType, ErrInvalidReference)
	}
	if r.version.kind == versionNone || r.format == "any" {
		return "", "", fmt.Errorf("reference %s/%s requests a template, not a path: %w", r.datasetID, r.contentType, ErrInvalidReference)
	}
	dir, err = r.cfg.BaseDir(r.class, r.keys())
	if err != nil {
		return "", "", err
	}
	token, _ := r.token()
	ext, _ := r.extension()

	partPattern, err := RenderFileName(r.datasetID, token, ext, 1, VersionNone)
	if err != nil {
		return "", "", err
	}
	part, err := resolvePartition(dir, wildcardPartition(partPattern)+".V*", r.partition)
	if err != nil {
		return "", "", err
	}

	pattern, err := RenderFileName(r.datasetID, token, ext, part, VersionLatest)
	if err != nil {
		return "", "", err
	}
	version, err := ResolveVersion(dir, pattern, r.version)
	if err != nil {
		return "", "", err
	}

	name, err = RenderFileName(r.datasetID, token, ext, part, VersionNumber(version))
	if err != nil {
		return "", "", err
	}
	return dir, name, nil
}

// VersionSearchTarget returns the filename pattern selecting every version
// of the referenced file: the rendered name with the version digits
// wildcarded.
func (r *Reference) VersionSearchTarget() (string, error) {
	token, ok := r.token()
	if !ok {
		return "", fmt.Errorf("content type %q: %w", r.contentType, ErrInvalidReference)
	}
	ext, ok := r.extension()
	if !ok {
		return "", fmt.Errorf("format %q: %w", r.format, ErrInvalidReference)
	}
	part, ok := r.partition.Concrete()
	if !ok {
		part = 1
	}
	name, err := RenderFileName(r.datasetID, token, ext, part, VersionLatest)
	if err != nil {
		return "", err
	}
	return name, nil
}

// PartitionSearchTarget returns the filename pattern selecting every
// partition (and version) of the referenced content type.
func (r *Reference) PartitionSearchTarget() (string, error) {
	name, err := r.VersionSearchTarget()
	if err != nil {
		return "", err
	}
	return wildcardPartition(name), nil
}

// ContentTypeSearchTarget returns the filename pattern selecting every
// content type of the dataset at the referenced partition: the content
// token, extension and version are all wildcarded.
func (r *Reference) ContentTypeSearchTarget() (string, error) {
	if !validDatasetID(r.datasetID) {
		return "", fmt.Errorf("dataset id %q: %w", r.datasetID, ErrInvalidReference)
	}
	part, ok := r.partition.Concrete()
	if !ok {
		part = 1
	}
	return fmt.Sprintf("%s_*_P%d.*", r.datasetID, part), nil
}

// wildcardPartition replaces the "_P<digits>" component of a rendered
// filename with a glob wildcard.
func wildcardPartition(name string) string {
	mark := strings.LastIndex(name, "_P")
	if mark < 0 {
		return name
	}
	i := mark + 2
	for i < len(name) && name[i] >= '0' && name[i] <= '9' {
		i++
	}
	if i == mark+2 {
		return name
	}
	return name[:mark+2] + "*" + name[i:]
}
