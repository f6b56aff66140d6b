package depio

import (
	"path"
	"path/filepath"
	"strings"
)

// PathInfo is the convenience façade over Reference for the common path
// questions asked throughout the processing pipeline. Methods with a
// RefOption slice accept the usual overrides (storage class, version,
// milestone, partition); defaults are archive storage, partition 1,
// latest version.
type PathInfo struct {
	cfg         *SiteConfig
	sessionRoot string
}

// NewPathInfo builds a PathInfo over a site configuration.
func NewPathInfo(cfg *SiteConfig) *PathInfo {
	return &PathInfo{cfg: cfg}
}

// SetSessionRoot sets the directory searched by the session storage classes.
func (p *PathInfo) SetSessionRoot(dir string) { p.sessionRoot = dir }

func (p *PathInfo) ref(datasetID string, opts ...RefOption) *Reference {
	base := []RefOption{
		WithDatasetID(datasetID),
		WithSessionRoot(p.sessionRoot),
	}
	return NewReference(p.cfg, append(base, opts...)...)
}

// -----------------------------------------------------------------------------
// Generic path operations
// -----------------------------------------------------------------------------

// FilePath returns the concrete full path for a content object.
func (p *PathInfo) FilePath(datasetID string, opts ...RefOption) (string, error) {
	return p.ref(datasetID, opts...).FilePath()
}

// FileName returns the concrete filename for a content object.
func (p *PathInfo) FileName(datasetID string, opts ...RefOption) (string, error) {
	return p.ref(datasetID, opts...).FileName()
}

// DirPath returns the storage base directory for a dataset in a storage
// class. Content typing is not required.
func (p *PathInfo) DirPath(datasetID string, class StorageClass, opts ...RefOption) (string, error) {
	return p.ref(datasetID, append([]RefOption{WithStorage(class)}, opts...)...).DirPath()
}

// ArchivePath returns the archive directory of a dataset; group datasets
// (G_...) route to the autogroup area.
func (p *PathInfo) ArchivePath(datasetID string) (string, error) {
	return p.DirPath(datasetID, StorageArchive)
}

// DepositPath returns the deposit directory of a dataset.
func (p *PathInfo) DepositPath(datasetID string) (string, error) {
	return p.DirPath(datasetID, StorageDeposit)
}

// TempDepPath returns the tempdep directory of a dataset.
func (p *PathInfo) TempDepPath(datasetID string) (string, error) {
	return p.DirPath(datasetID, StorageTempDep)
}

// InstancePath returns the directory of one workflow instance.
func (p *PathInfo) InstancePath(datasetID, instanceID string) (string, error) {
	return p.DirPath(datasetID, StorageWFInstance, WithInstance(instanceID))
}

// InstanceTopPath returns the directory holding all workflow instances of a
// dataset.
func (p *PathInfo) InstanceTopPath(datasetID string) (string, error) {
	return p.cfg.InstanceTopDir(datasetID)
}

// WebDownloadPath returns the URL path under which a session download is
// served: /sessions/<session-id>/downloads/<filename>.
func (p *PathInfo) WebDownloadPath(datasetID string, opts ...RefOption) (string, error) {
	name, err := p.FileName(datasetID, append([]RefOption{WithStorage(StorageSessionDownload)}, opts...)...)
	if err != nil {
		return "", err
	}
	return path.Join("/sessions", filepath.Base(p.sessionRoot), "downloads", name), nil
}

// -----------------------------------------------------------------------------
// Search templates
// -----------------------------------------------------------------------------

// VersionTemplate returns the full-path glob selecting every version of a
// content object.
func (p *PathInfo) VersionTemplate(datasetID string, opts ...RefOption) (string, error) {
	r := p.ref(datasetID, opts...)
	dir, err := r.DirPath()
	if err != nil {
		return "", err
	}
	target, err := r.VersionSearchTarget()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, target), nil
}

// PartitionTemplate returns the full-path glob selecting every partition of
// a content type.
func (p *PathInfo) PartitionTemplate(datasetID string, opts ...RefOption) (string, error) {
	r := p.ref(datasetID, opts...)
	dir, err := r.DirPath()
	if err != nil {
		return "", err
	}
	target, err := r.PartitionSearchTarget()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, target), nil
}

// ContentTypeTemplate returns the full-path glob selecting every content
// type of a dataset.
func (p *PathInfo) ContentTypeTemplate(datasetID string, opts ...RefOption) (string, error) {
	r := p.ref(datasetID, opts...)
	dir, err := r.DirPath()
	if err != nil {
		return "", err
	}
	target, err := r.ContentTypeSearchTarget()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, target), nil
}

// -----------------------------------------------------------------------------
// Filename predicates and parsing
// -----------------------------------------------------------------------------

// ParseFileName decomposes a managed filename, resolving tokens through the
// site catalog. All-or-nothing: ok is false unless every component resolves.
func (p *PathInfo) ParseFileName(name string) (Components, bool) {
	return ParseFileName(p.cfg.Catalog(), name)
}

// SplitFileName is the tolerant sibling of ParseFileName: it recovers as
// many components as the name yields, leaving the rest zero. A name without
// a partition marker still yields its dataset id, content type and version;
// the format is only reported for fully compliant names.
func (p *PathInfo) SplitFileName(name string) Components {
	if c, ok := p.ParseFileName(name); ok {
		return c
	}
	var c Components

	rest := name
	if dot := strings.LastIndex(rest, "."); dot >= 0 {
		if v, ok := versionSuffix(rest[dot+1:]); ok {
			c.Version = v
			rest = rest[:dot]
		}
	}
	if dot := strings.LastIndex(rest, "."); dot > 0 {
		rest = rest[:dot]
	}
	if mark := strings.LastIndex(rest, "_P"); mark > 0 {
		if n, err := parsePositiveInt(rest[mark+2:]); err == nil {
			c.Partition = n
			rest = rest[:mark]
		}
	}
	id, token, ok := splitDatasetID(rest)
	if !ok {
		if validDatasetID(rest) {
			c.DatasetID = rest
		}
		return c
	}
	c.DatasetID = id
	if base, _, ok := p.cfg.Catalog().ContentTypeForToken(token); ok {
		c.ContentType = base
	}
	return c
}

// IsValidFileName reports whether a filename is compliant: structurally
// well-formed with its content token and extension registered in the
// catalog. With requireVersion set, names lacking a ".V<n>" suffix fail.
func (p *PathInfo) IsValidFileName(name string, requireVersion bool) bool {
	parts, ok := SplitFileName(name, requireVersion)
	if !ok {
		return false
	}
	if _, _, ok := p.cfg.Catalog().ContentTypeForToken(parts.ContentToken); !ok {
		return false
	}
	_, ok = p.cfg.Catalog().FormatForExtension(parts.Extension)
	return ok
}

// FileExtension returns the filename extension for a symbolic format, or
// ok == false for unknown formats.
func (p *PathInfo) FileExtension(format string) (string, bool) {
	return p.cfg.Catalog().ExtensionFor(format)
}

// -----------------------------------------------------------------------------
// Typed convenience paths
// -----------------------------------------------------------------------------

// ModelPdbxFilePath returns the path of the PDBx/mmCIF model file.
func (p *PathInfo) ModelPdbxFilePath(datasetID string, opts ...RefOption) (string, error) {
	return p.FilePath(datasetID, append([]RefOption{WithContent("model", "pdbx")}, opts...)...)
}

// ModelPdbFilePath returns the path of the legacy PDB-format model file.
func (p *PathInfo) ModelPdbFilePath(datasetID string, opts ...RefOption) (string, error) {
	return p.FilePath(datasetID, append([]RefOption{WithContent("model", "pdb")}, opts...)...)
}

// StructureFactorsPdbxFilePath returns the path of the structure-factor
// file in PDBx format.
func (p *PathInfo) StructureFactorsPdbxFilePath(datasetID string, opts ...RefOption) (string, error) {
	return p.FilePath(datasetID, append([]RefOption{WithContent("structure-factors", "pdbx")}, opts...)...)
}

// SequenceStatsFilePath returns the path of the sequence statistics file.
func (p *PathInfo) SequenceStatsFilePath(datasetID string, opts ...RefOption) (string, error) {
	return p.FilePath(datasetID, append([]RefOption{WithContent("seq-data-stats", "pic")}, opts...)...)
}

// SequenceAlignFilePath returns the path of the sequence alignment file for
// one entity (the entity id is the partition number).
func (p *PathInfo) SequenceAlignFilePath(datasetID string, entity int, opts ...RefOption) (string, error) {
	return p.FilePath(datasetID,
		append([]RefOption{WithContent("seq-align-data", "pic"), WithPartition(PartitionNumber(entity))}, opts...)...)
}

// ReferenceSequenceFilePath returns the path of the reference-sequence
// match file for one entity.
func (p *PathInfo) ReferenceSequenceFilePath(datasetID string, entity int, opts ...RefOption) (string, error) {
	return p.FilePath(datasetID,
		append([]RefOption{WithContent("seqdb-match", "pdbx"), WithPartition(PartitionNumber(entity))}, opts...)...)
}

// SequenceAssignmentFilePath returns the path of the sequence assignment file.
func (p *PathInfo) SequenceAssignmentFilePath(datasetID string, opts ...RefOption) (string, error) {
	return p.FilePath(datasetID, append([]RefOption{WithContent("seq-assign", "pdbx")}, opts...)...)
}

// AssemblyAssignmentFilePath returns the path of the assembly assignment file.
func (p *PathInfo) AssemblyAssignmentFilePath(datasetID string, opts ...RefOption) (string, error) {
	return p.FilePath(datasetID, append([]RefOption{WithContent("assembly-assign", "pdbx")}, opts...)...)
}

// BlastMatchFilePath returns the path of the BLAST match file for one entity.
func (p *PathInfo) BlastMatchFilePath(datasetID string, entity int, opts ...RefOption) (string, error) {
	return p.FilePath(datasetID,
		append([]RefOption{WithContent("blast-match", "xml"), WithPartition(PartitionNumber(entity))}, opts...)...)
}

// PolyLinkFilePath returns the path of the polymer linkage distance file.
func (p *PathInfo) PolyLinkFilePath(datasetID string, opts ...RefOption) (string, error) {
	return p.FilePath(datasetID, append([]RefOption{WithContent("polymer-linkage-distances", "pdbx")}, opts...)...)
}

// PolyLinkReportFilePath returns the path of the polymer linkage report.
func (p *PathInfo) PolyLinkReportFilePath(datasetID string, opts ...RefOption) (string, error) {
	return p.FilePath(datasetID, append([]RefOption{WithContent("polymer-linkage-report", "html")}, opts...)...)
}

// Map2fofcFilePath returns the path of the 2Fo-Fc map.
func (p *PathInfo) Map2fofcFilePath(datasetID string, opts ...RefOption) (string, error) {
	return p.FilePath(datasetID, append([]RefOption{WithContent("map-2fofc", "map")}, opts...)...)
}

// MapfofcFilePath returns the path of the Fo-Fc map.
func (p *PathInfo) MapfofcFilePath(datasetID string, opts ...RefOption) (string, error) {
	return p.FilePath(datasetID, append([]RefOption{WithContent("map-fofc", "map")}, opts...)...)
}

// EmVolumeFilePath returns the path of the EM volume map.
func (p *PathInfo) EmVolumeFilePath(datasetID string, opts ...RefOption) (string, error) {
	return p.FilePath(datasetID, append([]RefOption{WithContent("em-volume", "map")}, opts...)...)
}

// EmMaskFilePath returns the path of one EM mask volume (the mask number is
// the partition number).
func (p *PathInfo) EmMaskFilePath(datasetID string, mask int, opts ...RefOption) (string, error) {
	return p.FilePath(datasetID,
		append([]RefOption{WithContent("em-mask-volume", "map"), WithPartition(PartitionNumber(mask))}, opts...)...)
}

// ChemicalShiftsFilePath returns the path of the chemical shifts file.
func (p *PathInfo) ChemicalShiftsFilePath(datasetID string, opts ...RefOption) (string, error) {
	return p.FilePath(datasetID, append([]RefOption{WithContent("nmr-chemical-shifts", "nmr-star")}, opts...)...)
}

// AuthChemicalShiftsFilePath returns the path of the author-provided
// chemical shifts file; partitions accumulate, so the default selector is
// the next free slot.
func (p *PathInfo) AuthChemicalShiftsFilePath(datasetID string, opts ...RefOption) (string, error) {
	return p.FilePath(datasetID,
		append([]RefOption{WithContent("nmr-chemical-shifts-auth", "nmr-star"), WithPartition(PartitionNext)}, opts...)...)
}

// MolecularRestraintsFilePath returns the path of the NMR restraints file.
func (p *PathInfo) MolecularRestraintsFilePath(datasetID string, opts ...RefOption) (string, error) {
	return p.FilePath(datasetID, append([]RefOption{WithContent("nmr-restraints", "nmr-star")}, opts...)...)
}

// NMRCombinedFilePath returns the path of the combined NMR data file.
func (p *PathInfo) NMRCombinedFilePath(datasetID string, opts ...RefOption) (string, error) {
	return p.FilePath(datasetID, append([]RefOption{WithContent("nmr-data-str", "nmr-star")}, opts...)...)
}

// StatusHistoryFilePath returns the path of the status history file.
func (p *PathInfo) StatusHistoryFilePath(datasetID string, opts ...RefOption) (string, error) {
	return p.FilePath(datasetID, append([]RefOption{WithContent("status-history", "pdbx")}, opts...)...)
}
