package depio

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
)

// Purge strategies. The exp strategy applies to experimental and model
// content: the latest version stays live, the two oldest are compressed and
// everything between is removed. The report strategy keeps the latest live,
// compresses the oldest and removes the rest.
const (
	PurgeExperimental = "exp"
	PurgeReport       = "report"
)

// VersionFileInfo describes one on-disk version of a content object.
type VersionFileInfo struct {
	Path    string
	Version int
	Size    int64
	ModTime time.Time
}

// Maintenance bundles the housekeeping operations run over the archive:
// version audits, purge planning and workflow cleanup. With testMode set,
// destructive operations report what they would remove without touching
// the filesystem.
type Maintenance struct {
	cfg      *SiteConfig
	paths    *PathInfo
	testMode bool
	log      *log.Entry
}

// NewMaintenance builds a Maintenance over a site configuration.
func NewMaintenance(cfg *SiteConfig, testMode bool) *Maintenance {
	return &Maintenance{
		cfg:      cfg,
		paths:    NewPathInfo(cfg),
		testMode: testMode,
		log:      log.WithField("site", cfg.SiteID),
	}
}

// SetSessionRoot forwards the session directory to path resolution.
func (m *Maintenance) SetSessionRoot(dir string) { m.paths.SetSessionRoot(dir) }

// VersionFileList returns every on-disk version of a content object, newest
// version first.
func (m *Maintenance) VersionFileList(datasetID string, opts ...RefOption) ([]VersionFileInfo, error) {
	pattern, err := m.paths.VersionTemplate(datasetID, opts...)
	if err != nil {
		return nil, err
	}
	return m.globVersions(pattern)
}

// ContentTypeFileList returns every on-disk version across a set of content
// types, newest version first within each glob.
func (m *Maintenance) ContentTypeFileList(datasetID string, contentTypes []string, opts ...RefOption) ([]VersionFileInfo, error) {
	var out []VersionFileInfo
	for _, ct := range contentTypes {
		pattern, err := m.paths.VersionTemplate(datasetID, append([]RefOption{WithContent(ct, "any")}, opts...)...)
		if err != nil {
			return nil, err
		}
		infos, err := m.globVersions(pattern)
		if err != nil {
			return nil, err
		}
		out = append(out, infos...)
	}
	return out, nil
}

func (m *Maintenance) globVersions(pattern string) ([]VersionFileInfo, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	infos := make([]VersionFileInfo, 0, len(matches))
	for _, p := range matches {
		parts, ok := SplitFileName(filepath.Base(p), true)
		if !ok {
			continue
		}
		st, err := os.Stat(p)
		if err != nil {
			continue
		}
		infos = append(infos, VersionFileInfo{
			Path:    p,
			Version: parts.Version,
			Size:    st.Size(),
			ModTime: st.ModTime(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Version > infos[j].Version })
	return infos, nil
}

// PurgeCandidates plans a purge for one content object. It returns the path
// of the latest version, the versions to remove and the versions to
// compress in place, following the named strategy. Nothing is removed here.
func (m *Maintenance) PurgeCandidates(datasetID, strategy string, opts ...RefOption) (latest string, remove, compress []string, err error) {
	infos, err := m.VersionFileList(datasetID, opts...)
	if err != nil {
		return "", nil, nil, err
	}
	n := len(infos)
	if n == 0 {
		return "", nil, nil, nil
	}
	latest = infos[0].Path
	if n < 2 {
		return latest, nil, nil, nil
	}
	switch strategy {
	case PurgeExperimental:
		switch {
		case n == 2:
			compress = append(compress, infos[1].Path)
		case n == 3:
			compress = append(compress, infos[1].Path, infos[2].Path)
		default:
			compress = append(compress, infos[n-2].Path, infos[n-1].Path)
			for i := 1; i < n-2; i++ {
				remove = append(remove, infos[i].Path)
			}
		}
	case PurgeReport:
		if n == 2 {
			compress = append(compress, infos[1].Path)
			break
		}
		compress = append(compress, infos[n-1].Path)
		for i := 1; i < n-1; i++ {
			remove = append(remove, infos[i].Path)
		}
	default:
		return "", nil, nil, fmt.Errorf("purge strategy %q: %w", strategy, ErrInvalidReference)
	}
	return latest, remove, compress, nil
}

// ReversePurge removes every version of a content object except V1. It
// returns the paths removed (or, in test mode, the paths that would be).
func (m *Maintenance) ReversePurge(datasetID, contentType, format string, partition int) ([]string, error) {
	r := m.paths.ref(datasetID,
		WithContent(contentType, format),
		WithPartition(PartitionNumber(partition)))
	dir, err := r.DirPath()
	if err != nil {
		return nil, err
	}
	target, err := r.VersionSearchTarget()
	if err != nil {
		return nil, err
	}
	matches, err := filepath.Glob(filepath.Join(dir, target))
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, p := range matches {
		if parts, ok := SplitFileName(filepath.Base(p), true); !ok || parts.Version == 1 {
			continue
		}
		removed = append(removed, p)
		if m.testMode {
			m.log.WithField("path", p).Info("test mode, keeping version file")
			continue
		}
		if err := os.Remove(p); err != nil {
			m.log.WithError(err).WithField("path", p).Warn("remove failed")
		}
	}
	return removed, nil
}

// PurgeLogs removes the log files under the archive log directory of a
// dataset and returns the paths affected.
func (m *Maintenance) PurgeLogs(datasetID string) ([]string, error) {
	dir, err := m.paths.ArchivePath(datasetID)
	if err != nil {
		return nil, err
	}
	matches, err := filepath.Glob(filepath.Join(dir, "log", "*log"))
	if err != nil {
		return nil, err
	}
	for _, p := range matches {
		if m.testMode {
			m.log.WithField("path", p).Info("test mode, keeping log file")
			continue
		}
		if err := os.Remove(p); err != nil {
			m.log.WithError(err).WithField("path", p).Warn("remove failed")
		}
	}
	return matches, nil
}

// LogFileList returns log files for a dataset in the archive or deposit
// areas: both loose *log files and the log/ subdirectory.
func (m *Maintenance) LogFileList(datasetID string, class StorageClass) ([]string, error) {
	var dir string
	var err error
	switch class {
	case StorageArchive, StorageWFArchive:
		dir, err = m.paths.ArchivePath(datasetID)
	case StorageDeposit:
		dir, err = m.paths.DepositPath(datasetID)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []string
	for _, pat := range []string{filepath.Join(dir, "*log"), filepath.Join(dir, "log", "*")} {
		matches, err := filepath.Glob(pat)
		if err != nil {
			return nil, err
		}
		out = append(out, matches...)
	}
	sort.Strings(out)
	return out, nil
}

// RemoveWorkflowDir removes the workflow instance tree of a dataset. The
// dataset id must be a D_ identifier longer than ten characters; anything
// else is refused as a guard against sweeping the wrong directory.
func (m *Maintenance) RemoveWorkflowDir(datasetID string) (bool, error) {
	if len(datasetID) <= 10 || datasetID[:2] != "D_" {
		return false, nil
	}
	dir := filepath.Join(m.cfg.ArchiveRoot, "workflow", datasetID)
	if _, err := os.Stat(dir); err != nil {
		return false, nil
	}
	if m.testMode {
		m.log.WithField("path", dir).Info("test mode, keeping workflow directory")
		return true, nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return false, fmt.Errorf("remove workflow dir: %w", err)
	}
	return true, nil
}

// RecoveryPair names a snapshot file and the live path it should be
// restored to.
type RecoveryPair struct {
	Snapshot string
	Target   string
}

// RecoverVersionFiles compares the versions of a content object present in
// a filesystem snapshot against the live area and returns the snapshot
// files missing from the live directory. Nothing is copied here.
func (m *Maintenance) RecoverVersionFiles(snapshotBase, datasetID string, opts ...RefOption) ([]RecoveryPair, error) {
	r := m.paths.ref(datasetID, opts...)
	liveDir, err := r.DirPath()
	if err != nil {
		return nil, err
	}
	target, err := r.VersionSearchTarget()
	if err != nil {
		return nil, err
	}
	snapDir := filepath.Join(snapshotBase, "archive", datasetID)
	if r.Storage() == StorageDeposit {
		snapDir = filepath.Join(snapshotBase, "deposit", datasetID)
	}
	infos, err := m.globVersions(filepath.Join(snapDir, target))
	if err != nil {
		return nil, err
	}
	var pairs []RecoveryPair
	for _, info := range infos {
		dst := filepath.Join(liveDir, filepath.Base(info.Path))
		if _, err := os.Stat(dst); err == nil {
			continue
		}
		pairs = append(pairs, RecoveryPair{Snapshot: info.Path, Target: dst})
	}
	return pairs, nil
}
