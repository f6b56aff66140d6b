package depio

import (
	"fmt"
	"path/filepath"
	"strings"
)

// LocationKeys carries the identifying keys a storage class may require.
type LocationKeys struct {
	// DatasetID is the deposition (D_...) or group (G_...) identifier.
	// Required for every storage class.
	DatasetID string

	// InstanceID identifies the workflow instance (W_...).
	// Required for StorageWFInstance.
	InstanceID string

	// SessionRoot anchors the session storage classes. Required for
	// StorageSession, StorageWFSession and StorageSessionDownload.
	SessionRoot string
}

// BaseDir computes the base directory for one storage class.
//
// A missing required key (instance id, session root) yields ErrInvalidReference:
// the reference is under-specified and no path is guessed. An unrecognized
// storage class yields ErrStorageClass, which marks a caller defect.
func (c *SiteConfig) BaseDir(class StorageClass, keys LocationKeys) (string, error) {
	if !validDatasetID(keys.DatasetID) {
		return "", fmt.Errorf("dataset id %q: %w", keys.DatasetID, ErrInvalidReference)
	}

	switch class {
	case StorageArchive, StorageWFArchive:
		// Group datasets are archived in the autogroup area.
		if strings.HasPrefix(keys.DatasetID, "G_") {
			return filepath.Join(c.ArchiveRoot, "autogroup", keys.DatasetID), nil
		}
		return filepath.Join(c.ArchiveRoot, "archive", keys.DatasetID), nil

	case StorageAutogroup:
		return filepath.Join(c.ArchiveRoot, "autogroup", keys.DatasetID), nil

	case StorageDeposit:
		return filepath.Join(c.ArchiveRoot, "deposit", keys.DatasetID), nil

	case StorageDepositUI:
		if c.DepositUIRoot != "" {
			return filepath.Join(c.DepositUIRoot, "deposit", keys.DatasetID), nil
		}
		return filepath.Join(c.ArchiveRoot, "deposit", keys.DatasetID), nil

	case StorageTempDep:
		if c.DepositUIRoot != "" {
			return filepath.Join(c.DepositUIRoot, "tempdep", keys.DatasetID), nil
		}
		return filepath.Join(c.ArchiveRoot, "tempdep", keys.DatasetID), nil

	case StorageUploads:
		// Uploads always live in a deposit-ui labeled subtree, whichever
		// volume that subtree is on.
		if c.DepositUIRoot != "" {
			return filepath.Join(c.DepositUIRoot, "deposit-ui", "uploads", keys.DatasetID), nil
		}
		return filepath.Join(c.ArchiveRoot, "deposit-ui", "uploads", keys.DatasetID), nil

	case StoragePickles:
		return filepath.Join(c.ArchiveRoot, "pickles", keys.DatasetID), nil

	case StorageWFInstance:
		if keys.InstanceID == "" {
			return "", fmt.Errorf("wf-instance without instance id: %w", ErrInvalidReference)
		}
		return filepath.Join(c.ArchiveRoot, "workflow", keys.DatasetID, "instance", keys.InstanceID), nil

	case StorageSession, StorageWFSession:
		if keys.SessionRoot == "" {
			return "", fmt.Errorf("session without session root: %w", ErrInvalidReference)
		}
		return filepath.Join(keys.SessionRoot, keys.DatasetID), nil

	case StorageSessionDownload:
		if keys.SessionRoot == "" {
			return "", fmt.Errorf("session-download without session root: %w", ErrInvalidReference)
		}
		return filepath.Join(keys.SessionRoot, "downloads", keys.DatasetID), nil
	}

	return "", fmt.Errorf("storage class %q: %w", string(class), ErrStorageClass)
}

// InstanceTopDir returns the directory holding all workflow instances of a
// dataset (the parent of every wf-instance base directory).
func (c *SiteConfig) InstanceTopDir(datasetID string) (string, error) {
	if !validDatasetID(datasetID) {
		return "", fmt.Errorf("dataset id %q: %w", datasetID, ErrInvalidReference)
	}
	return filepath.Join(c.ArchiveRoot, "workflow", datasetID, "instance"), nil
}

// WorkflowDir returns the top workflow directory of a dataset.
func (c *SiteConfig) WorkflowDir(datasetID string) (string, error) {
	if !validDatasetID(datasetID) {
		return "", fmt.Errorf("dataset id %q: %w", datasetID, ErrInvalidReference)
	}
	return filepath.Join(c.ArchiveRoot, "workflow", datasetID), nil
}
