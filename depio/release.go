package depio

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Release area subdirectories. The set is closed: anything else passed to
// ForReleasePath is a caller defect.
const (
	ReleaseAdded        = "added"
	ReleaseModified     = "modified"
	ReleaseObsolete     = "obsolete"
	ReleaseEMD          = "emd"
	ReleaseValReports   = "val-reports"
	ReleaseEMValReports = "em-val-reports"
)

var releaseSubdirs = map[string]bool{
	ReleaseAdded:        true,
	ReleaseModified:     true,
	ReleaseObsolete:     true,
	ReleaseEMD:          true,
	ReleaseValReports:   true,
	ReleaseEMValReports: true,
}

// ReleasePaths resolves directories under the for-release staging area.
type ReleasePaths struct {
	cfg *SiteConfig
}

// NewReleasePaths builds a ReleasePaths over a site configuration.
func NewReleasePaths(cfg *SiteConfig) *ReleasePaths {
	return &ReleasePaths{cfg: cfg}
}

// ForReleasePath returns the for-release directory for a cycle and
// subdirectory. cycle is "current" or "previous"; subdir may be empty for
// the area root. Out-of-set names return ErrReleaseDir.
func (r *ReleasePaths) ForReleasePath(subdir, cycle string) (string, error) {
	dir := r.cfg.ForReleaseDir()
	switch cycle {
	case "current":
	case "previous":
		dir = filepath.Join(dir, "previous")
	default:
		return "", fmt.Errorf("release cycle %q: %w", cycle, ErrReleaseDir)
	}
	if subdir != "" {
		if !releaseSubdirs[subdir] {
			return "", fmt.Errorf("release subdirectory %q: %w", subdir, ErrReleaseDir)
		}
		dir = filepath.Join(dir, subdir)
	}
	return dir, nil
}

// -----------------------------------------------------------------------------
// Released file names
// -----------------------------------------------------------------------------

type accessionRemap int

const (
	remapNone accessionRemap = iota
	remapEMDBHyphen
	remapEMDBUnderscore
)

// releaseName describes how one released artifact is named in the public
// archive versus the for-release staging area, including compression.
type releaseName struct {
	public     string
	forRelease string
	gzipPublic bool
	gzipStage  bool
	remapPub   accessionRemap
	remapStage accessionRemap
}

var releaseNames = map[string]releaseName{
	"model":        {public: "%s.cif", forRelease: "%s.cif", gzipPublic: true, gzipStage: true},
	"sf":           {public: "r%ssf.ent", forRelease: "%s-sf.cif", gzipPublic: true},
	"cs":           {public: "%s_cs.str", forRelease: "%s_cs.str", gzipPublic: true},
	"nmr-data":     {public: "%s_nmr-data.str", forRelease: "%s_nmr-data.str", gzipPublic: true},
	"emd-xml":      {public: "%s-v30.xml", forRelease: "%s_v3.xml", remapPub: remapEMDBHyphen, remapStage: remapEMDBUnderscore},
	"emd-map":      {public: "%s.map", forRelease: "%s.map", gzipPublic: true, gzipStage: true, remapPub: remapEMDBUnderscore, remapStage: remapEMDBUnderscore},
	"emd-fsc":      {public: "%s_fsc.xml", forRelease: "%s_fsc.xml", remapPub: remapEMDBUnderscore, remapStage: remapEMDBUnderscore},
	"val-pdf":      {public: "%s_validation.pdf", forRelease: "%s_validation.pdf"},
	"val-pdf-full": {public: "%s_full_validation.pdf", forRelease: "%s_full_validation.pdf"},
	"val-xml":      {public: "%s_validation.xml", forRelease: "%s_validation.xml"},
	"val-png":      {public: "%s_multipercentile_validation.png", forRelease: "%s_multipercentile_validation.png"},
	"val-svg":      {public: "%s_multipercentile_validation.svg", forRelease: "%s_multipercentile_validation.svg"},
	"val-2fofc":    {public: "%s_validation_2fo-fc_map_coef.cif", forRelease: "%s_validation_2fo-fc_map_coef.cif"},
	"val-fofc":     {public: "%s_validation_fo-fc_map_coef.cif", forRelease: "%s_validation_fo-fc_map_coef.cif"},
}

// EMDBUnderscore converts an EMDB accession ("EMD-1234") to the lowercase
// underscore form "emd_1234".
func EMDBUnderscore(accession string) string {
	return "emd_" + emdbNumber(accession)
}

// EMDBHyphen converts an EMDB accession to the lowercase hyphen form
// "emd-1234".
func EMDBHyphen(accession string) string {
	return "emd-" + emdbNumber(accession)
}

func emdbNumber(accession string) string {
	if len(accession) > 4 {
		return accession[4:]
	}
	return accession
}

func applyRemap(r accessionRemap, accession string) string {
	switch r {
	case remapEMDBHyphen:
		return EMDBHyphen(accession)
	case remapEMDBUnderscore:
		return EMDBUnderscore(accession)
	default:
		return strings.ToLower(accession)
	}
}

// ReleaseFileName returns the name of one released artifact for an
// accession. forRelease selects the staging-area name over the public
// archive name. Unknown artifact kinds return ErrNotFound.
func ReleaseFileName(kind, accession string, forRelease bool) (string, error) {
	n, ok := releaseNames[kind]
	if !ok {
		return "", fmt.Errorf("release artifact %q: %w", kind, ErrNotFound)
	}
	pattern, gz, remap := n.public, n.gzipPublic, n.remapPub
	if forRelease {
		pattern, gz, remap = n.forRelease, n.gzipStage, n.remapStage
	}
	name := fmt.Sprintf(pattern, applyRemap(remap, accession))
	if gz {
		name += ".gz"
	}
	return name, nil
}

// Convenience wrappers for the artifact kinds callers reach for most.

func ReleaseModelName(accession string, forRelease bool) string {
	name, _ := ReleaseFileName("model", accession, forRelease)
	return name
}

func ReleaseSFName(accession string, forRelease bool) string {
	name, _ := ReleaseFileName("sf", accession, forRelease)
	return name
}

func ReleaseCSName(accession string, forRelease bool) string {
	name, _ := ReleaseFileName("cs", accession, forRelease)
	return name
}

func ReleaseNMRDataName(accession string, forRelease bool) string {
	name, _ := ReleaseFileName("nmr-data", accession, forRelease)
	return name
}

func ReleaseEMDBXMLName(accession string, forRelease bool) string {
	name, _ := ReleaseFileName("emd-xml", accession, forRelease)
	return name
}

func ReleaseEMDBMapName(accession string, forRelease bool) string {
	name, _ := ReleaseFileName("emd-map", accession, forRelease)
	return name
}

// -----------------------------------------------------------------------------
// Public FTP tree
// -----------------------------------------------------------------------------

// LocalFTP resolves paths within local mirrors of the public PDB and EMDB
// FTP trees.
type LocalFTP struct {
	PDBRoot  string
	EMDBRoot string
}

// NewLocalFTP builds a LocalFTP from the site configuration roots.
func NewLocalFTP(cfg *SiteConfig) *LocalFTP {
	return &LocalFTP{PDBRoot: cfg.PDBFTPRoot, EMDBRoot: cfg.EMDBFTPRoot}
}

// PDBDir returns the all-structures directory of the PDB mirror, or "" when
// no mirror is configured.
func (f *LocalFTP) PDBDir() string {
	if f.PDBRoot == "" {
		return ""
	}
	return filepath.Join(f.PDBRoot, "pdb", "data", "structures", "all")
}

// EMDBDir returns the structures directory of the EMDB mirror, or "" when
// no mirror is configured.
func (f *LocalFTP) EMDBDir() string {
	if f.EMDBRoot == "" {
		return ""
	}
	return filepath.Join(f.EMDBRoot, "emdb", "structures")
}

// ModelPath returns the mirror path of a released model file.
func (f *LocalFTP) ModelPath(accession string) string {
	return filepath.Join(f.PDBDir(), "mmCIF", ReleaseModelName(accession, false))
}

// SFPath returns the mirror path of a released structure-factor file.
func (f *LocalFTP) SFPath(accession string) string {
	return filepath.Join(f.PDBDir(), "structure_factors", ReleaseSFName(accession, false))
}

// CSPath returns the mirror path of a released chemical-shift file.
func (f *LocalFTP) CSPath(accession string) string {
	return filepath.Join(f.PDBDir(), "nmr_chemical_shifts", ReleaseCSName(accession, false))
}

// NMRDataPath returns the mirror path of a released combined NMR data file.
func (f *LocalFTP) NMRDataPath(accession string) string {
	return filepath.Join(f.PDBDir(), "nmr_data", ReleaseNMRDataName(accession, false))
}

// EMDBEntryDir returns the mirror directory of one EMDB entry.
func (f *LocalFTP) EMDBEntryDir(accession string) string {
	return filepath.Join(f.EMDBDir(), strings.ToUpper(accession))
}
