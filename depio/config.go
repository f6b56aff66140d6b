package depio

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio"
	jsoniter "github.com/json-iterator/go"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// SiteConfig carries the per-site storage roots. It replaces ambient global
// site configuration: construct one per process (or several, for tests that
// exercise multiple sites) and inject it wherever paths are resolved.
//
// Only ArchiveRoot is required. Derived roots default relative to it.
type SiteConfig struct {
	// SiteID labels the site this configuration belongs to.
	SiteID string `json:"site_id,omitempty"`

	// ArchiveRoot is the top of the site archive tree; the archive, deposit,
	// tempdep, workflow, autogroup and pickles areas live under it.
	ArchiveRoot string `json:"archive_root"`

	// DepositUIRoot, when set, relocates the deposit-ui, tempdep and uploads
	// areas onto a distinct storage volume. When empty those areas resolve
	// under ArchiveRoot.
	DepositUIRoot string `json:"deposit_ui_root,omitempty"`

	// ColdArchiveRoot holds cold-archive tarballs.
	// Defaults to <ArchiveRoot>/cold_archive.
	ColdArchiveRoot string `json:"cold_archive_root,omitempty"`

	// ForReleaseRoot is the staging area for public release.
	// Defaults to <ArchiveRoot>/for-release.
	ForReleaseRoot string `json:"for_release_root,omitempty"`

	// PDBFTPRoot and EMDBFTPRoot locate the local mirrors of the public
	// FTP trees; empty when no mirror is present.
	PDBFTPRoot  string `json:"pdb_ftp_root,omitempty"`
	EMDBFTPRoot string `json:"emdb_ftp_root,omitempty"`

	catalog *Catalog
}

// LoadSiteConfig reads a SiteConfig from a JSON file.
func LoadSiteConfig(path string) (*SiteConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("site config: %w", err)
	}
	cfg := &SiteConfig{}
	if err := jsonCodec.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("site config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as JSON, replacing path atomically.
func (c *SiteConfig) Save(path string) error {
	data, err := jsonCodec.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("site config: %w", err)
	}
	return renameio.WriteFile(path, append(data, '\n'), 0o644)
}

func (c *SiteConfig) validate() error {
	if c.ArchiveRoot == "" {
		return fmt.Errorf("site config: archive_root is required: %w", ErrInvalidReference)
	}
	return nil
}

// SetCatalog overrides the content-type catalog used when resolving
// references against this configuration.
func (c *SiteConfig) SetCatalog(cat *Catalog) { c.catalog = cat }

// Catalog returns the catalog bound to this configuration, defaulting to
// the built-in registry.
func (c *SiteConfig) Catalog() *Catalog {
	if c.catalog != nil {
		return c.catalog
	}
	return DefaultCatalog()
}

// ColdArchiveDir returns the cold-archive tarball directory.
func (c *SiteConfig) ColdArchiveDir() string {
	if c.ColdArchiveRoot != "" {
		return c.ColdArchiveRoot
	}
	return filepath.Join(c.ArchiveRoot, "cold_archive")
}

// ForReleaseDir returns the for-release staging directory.
func (c *SiteConfig) ForReleaseDir() string {
	if c.ForReleaseRoot != "" {
		return c.ForReleaseRoot
	}
	return filepath.Join(c.ArchiveRoot, "for-release")
}
