package depio

import (
	"errors"
	"path/filepath"
	"testing"
)

func testConfig() *SiteConfig {
	return &SiteConfig{
		SiteID:      "WWPDB_DEPLOY_TEST",
		ArchiveRoot: "/data/site",
	}
}

func TestBaseDir_Classes(t *testing.T) {
	cfg := testConfig()
	session := "/scratch/sessions/abc123"

	tests := []struct {
		name  string
		class StorageClass
		keys  LocationKeys
		want  string
	}{
		{"archive", StorageArchive, LocationKeys{DatasetID: "D_1000000001"}, "/data/site/archive/D_1000000001"},
		{"wf-archive aliases archive", StorageWFArchive, LocationKeys{DatasetID: "D_1000000001"}, "/data/site/archive/D_1000000001"},
		{"group reroutes to autogroup", StorageArchive, LocationKeys{DatasetID: "G_1002003"}, "/data/site/autogroup/G_1002003"},
		{"autogroup", StorageAutogroup, LocationKeys{DatasetID: "G_1002003"}, "/data/site/autogroup/G_1002003"},
		{"deposit", StorageDeposit, LocationKeys{DatasetID: "D_1000000001"}, "/data/site/deposit/D_1000000001"},
		{"deposit-ui without ui root", StorageDepositUI, LocationKeys{DatasetID: "D_1000000001"}, "/data/site/deposit/D_1000000001"},
		{"tempdep", StorageTempDep, LocationKeys{DatasetID: "D_1000000001"}, "/data/site/tempdep/D_1000000001"},
		{"uploads", StorageUploads, LocationKeys{DatasetID: "D_1000000001"}, "/data/site/deposit-ui/uploads/D_1000000001"},
		{"pickles", StoragePickles, LocationKeys{DatasetID: "D_1000000001"}, "/data/site/pickles/D_1000000001"},
		{"wf-instance", StorageWFInstance, LocationKeys{DatasetID: "D_1000000001", InstanceID: "W_010"}, "/data/site/workflow/D_1000000001/instance/W_010"},
		{"session", StorageSession, LocationKeys{DatasetID: "D_1000000001", SessionRoot: session}, session + "/D_1000000001"},
		{"wf-session aliases session", StorageWFSession, LocationKeys{DatasetID: "D_1000000001", SessionRoot: session}, session + "/D_1000000001"},
		{"session-download", StorageSessionDownload, LocationKeys{DatasetID: "D_1000000001", SessionRoot: session}, session + "/downloads/D_1000000001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cfg.BaseDir(tt.class, tt.keys)
			if err != nil {
				t.Fatalf("BaseDir: %v", err)
			}
			if got != filepath.FromSlash(tt.want) {
				t.Errorf("BaseDir = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBaseDir_DepositUIRoot(t *testing.T) {
	cfg := testConfig()
	cfg.DepositUIRoot = "/fast/ui"

	tests := []struct {
		class StorageClass
		want  string
	}{
		{StorageDepositUI, "/fast/ui/deposit/D_1000000001"},
		{StorageTempDep, "/fast/ui/tempdep/D_1000000001"},
		{StorageUploads, "/fast/ui/deposit-ui/uploads/D_1000000001"},
		// Primary areas stay on the archive volume.
		{StorageArchive, "/data/site/archive/D_1000000001"},
		{StorageDeposit, "/data/site/deposit/D_1000000001"},
	}
	for _, tt := range tests {
		got, err := cfg.BaseDir(tt.class, LocationKeys{DatasetID: "D_1000000001"})
		if err != nil {
			t.Fatalf("BaseDir(%s): %v", tt.class, err)
		}
		if got != filepath.FromSlash(tt.want) {
			t.Errorf("BaseDir(%s) = %q, want %q", tt.class, got, tt.want)
		}
	}
}

func TestBaseDir_MissingKeys(t *testing.T) {
	cfg := testConfig()

	if _, err := cfg.BaseDir(StorageWFInstance, LocationKeys{DatasetID: "D_1000000001"}); !errors.Is(err, ErrInvalidReference) {
		t.Errorf("wf-instance without instance id: err = %v, want ErrInvalidReference", err)
	}
	if _, err := cfg.BaseDir(StorageSession, LocationKeys{DatasetID: "D_1000000001"}); !errors.Is(err, ErrInvalidReference) {
		t.Errorf("session without session root: err = %v, want ErrInvalidReference", err)
	}
	if _, err := cfg.BaseDir(StorageArchive, LocationKeys{DatasetID: "bogus"}); !errors.Is(err, ErrInvalidReference) {
		t.Errorf("bad dataset id: err = %v, want ErrInvalidReference", err)
	}
}

func TestBaseDir_UnknownClassIsDefect(t *testing.T) {
	cfg := testConfig()

	_, err := cfg.BaseDir(StorageClass("ceph"), LocationKeys{DatasetID: "D_1000000001"})
	if !errors.Is(err, ErrStorageClass) {
		t.Errorf("err = %v, want ErrStorageClass", err)
	}
	// The closed-set violation is distinct from absence conditions.
	if errors.Is(err, ErrUnresolved) || errors.Is(err, ErrNotFound) {
		t.Errorf("closed-set violation must not match absence sentinels: %v", err)
	}
}

func TestParseStorageClass(t *testing.T) {
	for _, s := range []string{"archive", "wf-archive", "deposit", "deposit-ui", "tempdep",
		"autogroup", "wf-instance", "session", "wf-session", "session-download", "uploads", "pickles"} {
		if _, err := ParseStorageClass(s); err != nil {
			t.Errorf("ParseStorageClass(%q): %v", s, err)
		}
	}
	if _, err := ParseStorageClass("nfs"); !errors.Is(err, ErrStorageClass) {
		t.Errorf("ParseStorageClass(nfs) err = %v, want ErrStorageClass", err)
	}
}

func TestInstanceTopDir(t *testing.T) {
	cfg := testConfig()
	got, err := cfg.InstanceTopDir("D_1000000001")
	if err != nil {
		t.Fatalf("InstanceTopDir: %v", err)
	}
	if got != filepath.FromSlash("/data/site/workflow/D_1000000001/instance") {
		t.Errorf("InstanceTopDir = %q", got)
	}
}
