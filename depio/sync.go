package depio

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/fileutils"
	log "github.com/sirupsen/logrus"
)

// SyncDirection selects which way deposit data flows.
type SyncDirection int

const (
	// SyncToDepositUI copies from the deposit area to the deposit-ui area.
	SyncToDepositUI SyncDirection = iota
	// SyncFromDepositUI copies from the deposit-ui area to the deposit area.
	SyncFromDepositUI
)

func (d SyncDirection) String() string {
	if d == SyncFromDepositUI {
		return "from-deposit-ui"
	}
	return "to-deposit-ui"
}

// SyncStats summarizes one synchronization run.
type SyncStats struct {
	Examined    int
	Copied      int
	Skipped     int
	CopiedBytes int64
}

// DepositSync mirrors dataset files between the deposit and deposit-ui
// storage areas. Files are compared by content digest; identical files are
// never rewritten. With dryRun set the planned copies are logged and
// counted but not performed.
type DepositSync struct {
	cfg    *SiteConfig
	dryRun bool
	log    *log.Entry
}

// NewDepositSync builds a DepositSync over a site configuration.
func NewDepositSync(cfg *SiteConfig, dryRun bool) *DepositSync {
	return &DepositSync{
		cfg:    cfg,
		dryRun: dryRun,
		log:    log.WithField("site", cfg.SiteID),
	}
}

// Sync mirrors one dataset in the given direction and returns run
// statistics. Missing source directories are not an error; there is simply
// nothing to copy.
func (s *DepositSync) Sync(datasetID string, dir SyncDirection) (SyncStats, error) {
	keys := LocationKeys{DatasetID: datasetID}
	depositDir, err := s.cfg.BaseDir(StorageDeposit, keys)
	if err != nil {
		return SyncStats{}, err
	}
	uiDir, err := s.cfg.BaseDir(StorageDepositUI, keys)
	if err != nil {
		return SyncStats{}, err
	}
	src, dst := depositDir, uiDir
	if dir == SyncFromDepositUI {
		src, dst = uiDir, depositDir
	}
	return s.syncTree(datasetID, dir, src, dst)
}

// SyncPickles mirrors the pickle area of one dataset into or out of the
// deposit area, alongside the primary data files.
func (s *DepositSync) SyncPickles(datasetID string, dir SyncDirection) (SyncStats, error) {
	keys := LocationKeys{DatasetID: datasetID}
	pickleDir, err := s.cfg.BaseDir(StoragePickles, keys)
	if err != nil {
		return SyncStats{}, err
	}
	depositDir, err := s.cfg.BaseDir(StorageDeposit, keys)
	if err != nil {
		return SyncStats{}, err
	}
	mirror := filepath.Join(depositDir, "pickles")
	src, dst := pickleDir, mirror
	if dir == SyncFromDepositUI {
		src, dst = mirror, pickleDir
	}
	return s.syncTree(datasetID, dir, src, dst)
}

func (s *DepositSync) syncTree(datasetID string, dir SyncDirection, src, dst string) (SyncStats, error) {
	var stats SyncStats
	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return stats, err
	}

	err := filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		stats.Examined++
		target := filepath.Join(dst, rel)

		same, err := sameContent(path, target)
		if err != nil {
			return err
		}
		if same {
			stats.Skipped++
			return nil
		}

		if s.dryRun {
			s.log.WithFields(log.Fields{
				"dataset":   datasetID,
				"direction": dir.String(),
				"file":      rel,
			}).Info("dry run, would copy")
			stats.Copied++
			stats.CopiedBytes += info.Size()
			return nil
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := fileutils.CopyFile(target, path); err != nil {
			return fmt.Errorf("copy %s: %w", rel, err)
		}
		stats.Copied++
		stats.CopiedBytes += info.Size()
		return nil
	})
	if err != nil {
		return stats, err
	}

	s.log.WithFields(log.Fields{
		"dataset":   datasetID,
		"direction": dir.String(),
		"examined":  stats.Examined,
		"copied":    stats.Copied,
		"skipped":   stats.Skipped,
	}).Info("sync complete")
	return stats, nil
}

// Verify reports whether one relative file is byte-identical between the
// deposit and deposit-ui areas of a dataset.
func (s *DepositSync) Verify(datasetID, relPath string) (bool, error) {
	keys := LocationKeys{DatasetID: datasetID}
	depositDir, err := s.cfg.BaseDir(StorageDeposit, keys)
	if err != nil {
		return false, err
	}
	uiDir, err := s.cfg.BaseDir(StorageDepositUI, keys)
	if err != nil {
		return false, err
	}
	return sameContent(filepath.Join(depositDir, relPath), filepath.Join(uiDir, relPath))
}

// sameContent compares two files by SHA-256 digest. A missing b is simply
// different; a missing a is an error for Walk callers to surface.
func sameContent(a, b string) (bool, error) {
	db, err := fileDigest(b)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	da, err := fileDigest(a)
	if err != nil {
		return false, err
	}
	return da == db, nil
}

func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer closer(f)()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
