package depio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func diskConfig(t *testing.T) *SiteConfig {
	t.Helper()
	cfg := &SiteConfig{SiteID: "WWPDB_DEPLOY_TEST", ArchiveRoot: t.TempDir()}
	if err := os.MkdirAll(filepath.Join(cfg.ArchiveRoot, "archive", "D_1000000001"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	return cfg
}

func seedArchive(t *testing.T, cfg *SiteConfig, names ...string) {
	t.Helper()
	dir := filepath.Join(cfg.ArchiveRoot, "archive", "D_1000000001")
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
}

func TestReference_FilePathLatest(t *testing.T) {
	cfg := diskConfig(t)
	seedArchive(t, cfg,
		"D_1000000001_model_P1.cif.V1",
		"D_1000000001_model_P1.cif.V2",
		"D_1000000001_model_P1.cif.V3",
	)

	r := NewReference(cfg,
		WithDatasetID("D_1000000001"),
		WithContent("model", "pdbx"),
	)
	got, err := r.FilePath()
	if err != nil {
		t.Fatalf("FilePath: %v", err)
	}
	want := filepath.Join(cfg.ArchiveRoot, "archive", "D_1000000001", "D_1000000001_model_P1.cif.V3")
	if got != want {
		t.Errorf("FilePath = %q, want %q", got, want)
	}
}

func TestReference_FilePathNext(t *testing.T) {
	cfg := diskConfig(t)

	r := NewReference(cfg,
		WithDatasetID("D_1000000001"),
		WithContent("model", "pdbx"),
		WithVersion(VersionNext),
	)

	// Empty directory bootstraps at V1.
	got, err := r.FileName()
	if err != nil {
		t.Fatalf("FileName: %v", err)
	}
	if got != "D_1000000001_model_P1.cif.V1" {
		t.Errorf("FileName = %q, want V1", got)
	}

	// The same reference resolves fresh after a write.
	seedArchive(t, cfg, "D_1000000001_model_P1.cif.V1")
	got, err = r.FileName()
	if err != nil {
		t.Fatalf("FileName: %v", err)
	}
	if got != "D_1000000001_model_P1.cif.V2" {
		t.Errorf("FileName = %q, want V2", got)
	}
}

func TestReference_FilePathPreviousUnresolved(t *testing.T) {
	cfg := diskConfig(t)
	seedArchive(t, cfg, "D_1000000001_model_P1.cif.V1")

	r := NewReference(cfg,
		WithDatasetID("D_1000000001"),
		WithContent("model", "pdbx"),
		WithVersion(VersionPrevious),
	)
	if _, err := r.FilePath(); !errors.Is(err, ErrUnresolved) {
		t.Errorf("err = %v, want ErrUnresolved", err)
	}
}

func TestReference_PartitionNext(t *testing.T) {
	cfg := diskConfig(t)
	seedArchive(t, cfg,
		"D_1000000001_seq-align-data_P1.pic.V1",
		"D_1000000001_seq-align-data_P2.pic.V1",
	)

	r := NewReference(cfg,
		WithDatasetID("D_1000000001"),
		WithContent("seq-align-data", "pic"),
		WithPartition(PartitionNext),
		WithVersion(VersionNext),
	)
	got, err := r.FileName()
	if err != nil {
		t.Fatalf("FileName: %v", err)
	}
	if got != "D_1000000001_seq-align-data_P3.pic.V1" {
		t.Errorf("FileName = %q, want P3 V1", got)
	}
}

func TestReference_Milestone(t *testing.T) {
	cfg := diskConfig(t)
	seedArchive(t, cfg, "D_1000000001_model-deposit_P1.cif.V1")

	r := NewReference(cfg,
		WithDatasetID("D_1000000001"),
		WithContent("model", "pdbx"),
		WithMilestone("deposit"),
	)
	got, err := r.FileName()
	if err != nil {
		t.Fatalf("FileName: %v", err)
	}
	if got != "D_1000000001_model-deposit_P1.cif.V1" {
		t.Errorf("FileName = %q", got)
	}
}

func TestReference_TemplateRequestsFailFilePath(t *testing.T) {
	cfg := diskConfig(t)

	// VersionNone means "give me a template"; FilePath refuses.
	r := NewReference(cfg,
		WithDatasetID("D_1000000001"),
		WithContent("model", "pdbx"),
		WithVersion(VersionNone),
	)
	if _, err := r.FilePath(); !errors.Is(err, ErrInvalidReference) {
		t.Errorf("VersionNone FilePath err = %v, want ErrInvalidReference", err)
	}

	// Same for the format wildcard.
	r = NewReference(cfg,
		WithDatasetID("D_1000000001"),
		WithContent("nmr-restraints", "any"),
	)
	if _, err := r.FilePath(); !errors.Is(err, ErrInvalidReference) {
		t.Errorf("format=any FilePath err = %v, want ErrInvalidReference", err)
	}
}

func TestReference_Valid(t *testing.T) {
	cfg := diskConfig(t)

	good := NewReference(cfg, WithDatasetID("D_1000000001"), WithContent("model", "pdbx"))
	if !good.Valid() {
		t.Error("expected valid reference")
	}

	tests := []struct {
		name string
		opts []RefOption
	}{
		{"unknown content type", []RefOption{WithDatasetID("D_1000000001"), WithContent("nope", "pdbx")}},
		{"unknown format", []RefOption{WithDatasetID("D_1000000001"), WithContent("model", "nope")}},
		{"bad dataset id", []RefOption{WithDatasetID("1000000001"), WithContent("model", "pdbx")}},
		{"instance storage without id", []RefOption{WithDatasetID("D_1000000001"), WithContent("model", "pdbx"), WithStorage(StorageWFInstance)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if NewReference(cfg, tt.opts...).Valid() {
				t.Error("expected invalid reference")
			}
		})
	}
}

func TestReference_SearchTargets(t *testing.T) {
	cfg := diskConfig(t)
	r := NewReference(cfg,
		WithDatasetID("D_1000000001"),
		WithContent("model", "pdbx"),
	)

	vt, err := r.VersionSearchTarget()
	if err != nil {
		t.Fatalf("VersionSearchTarget: %v", err)
	}
	if vt != "D_1000000001_model_P1.cif.V*" {
		t.Errorf("VersionSearchTarget = %q", vt)
	}

	pt, err := r.PartitionSearchTarget()
	if err != nil {
		t.Fatalf("PartitionSearchTarget: %v", err)
	}
	if pt != "D_1000000001_model_P*.cif.V*" {
		t.Errorf("PartitionSearchTarget = %q", pt)
	}

	ct, err := r.ContentTypeSearchTarget()
	if err != nil {
		t.Fatalf("ContentTypeSearchTarget: %v", err)
	}
	if ct != "D_1000000001_*_P1.*" {
		t.Errorf("ContentTypeSearchTarget = %q", ct)
	}
}

func TestReference_DirPathWithoutContent(t *testing.T) {
	cfg := diskConfig(t)
	r := NewReference(cfg, WithDatasetID("D_1000000001"), WithStorage(StorageDeposit))

	got, err := r.DirPath()
	if err != nil {
		t.Fatalf("DirPath: %v", err)
	}
	if got != filepath.Join(cfg.ArchiveRoot, "deposit", "D_1000000001") {
		t.Errorf("DirPath = %q", got)
	}
}
