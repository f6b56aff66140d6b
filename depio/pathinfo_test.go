package depio

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPathInfo_TypedHelpers(t *testing.T) {
	cfg := diskConfig(t)
	seedArchive(t, cfg,
		"D_1000000001_model_P1.cif.V1",
		"D_1000000001_sf_P1.cif.V1",
		"D_1000000001_seq-align-data_P2.pic.V1",
		"D_1000000001_cs_P1.str.V4",
	)
	pi := NewPathInfo(cfg)

	tests := []struct {
		name string
		call func() (string, error)
		want string
	}{
		{"model pdbx", func() (string, error) { return pi.ModelPdbxFilePath("D_1000000001") }, "D_1000000001_model_P1.cif.V1"},
		{"structure factors", func() (string, error) { return pi.StructureFactorsPdbxFilePath("D_1000000001") }, "D_1000000001_sf_P1.cif.V1"},
		{"seq align entity 2", func() (string, error) { return pi.SequenceAlignFilePath("D_1000000001", 2) }, "D_1000000001_seq-align-data_P2.pic.V1"},
		{"chemical shifts", func() (string, error) { return pi.ChemicalShiftsFilePath("D_1000000001") }, "D_1000000001_cs_P1.str.V4"},
	}
	dir := filepath.Join(cfg.ArchiveRoot, "archive", "D_1000000001")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.call()
			if err != nil {
				t.Fatalf("%v", err)
			}
			if got != filepath.Join(dir, tt.want) {
				t.Errorf("path = %q, want suffix %q", got, tt.want)
			}
		})
	}
}

func TestPathInfo_HelperOptionsOverride(t *testing.T) {
	cfg := diskConfig(t)
	pi := NewPathInfo(cfg)

	// Next-version resolution through a typed helper.
	got, err := pi.ModelPdbxFilePath("D_1000000001", WithVersion(VersionNext))
	if err != nil {
		t.Fatalf("ModelPdbxFilePath: %v", err)
	}
	if filepath.Base(got) != "D_1000000001_model_P1.cif.V1" {
		t.Errorf("path = %q, want V1 bootstrap", got)
	}

	// Storage override moves the directory.
	if err := os.MkdirAll(filepath.Join(cfg.ArchiveRoot, "deposit", "D_1000000001"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	got, err = pi.ModelPdbxFilePath("D_1000000001", WithStorage(StorageDeposit), WithVersion(VersionNext))
	if err != nil {
		t.Fatalf("ModelPdbxFilePath deposit: %v", err)
	}
	if filepath.Dir(got) != filepath.Join(cfg.ArchiveRoot, "deposit", "D_1000000001") {
		t.Errorf("dir = %q, want deposit area", filepath.Dir(got))
	}
}

func TestPathInfo_SessionPaths(t *testing.T) {
	cfg := diskConfig(t)
	session := filepath.Join(t.TempDir(), "sess-42")
	if err := os.MkdirAll(filepath.Join(session, "D_1000000001"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	pi := NewPathInfo(cfg)
	pi.SetSessionRoot(session)

	dir, err := pi.DirPath("D_1000000001", StorageSession)
	if err != nil {
		t.Fatalf("DirPath: %v", err)
	}
	if dir != filepath.Join(session, "D_1000000001") {
		t.Errorf("session dir = %q", dir)
	}

	web, err := pi.WebDownloadPath("D_1000000001", WithContent("model", "pdbx"), WithVersion(VersionNext))
	if err != nil {
		t.Fatalf("WebDownloadPath: %v", err)
	}
	want := "/sessions/sess-42/downloads/D_1000000001_model_P1.cif.V1"
	if web != want {
		t.Errorf("WebDownloadPath = %q, want %q", web, want)
	}
}

func TestPathInfo_Templates(t *testing.T) {
	cfg := diskConfig(t)
	pi := NewPathInfo(cfg)
	dir := filepath.Join(cfg.ArchiveRoot, "archive", "D_1000000001")

	vt, err := pi.VersionTemplate("D_1000000001", WithContent("model", "pdbx"))
	if err != nil {
		t.Fatalf("VersionTemplate: %v", err)
	}
	if vt != filepath.Join(dir, "D_1000000001_model_P1.cif.V*") {
		t.Errorf("VersionTemplate = %q", vt)
	}

	pt, err := pi.PartitionTemplate("D_1000000001", WithContent("model", "pdbx"))
	if err != nil {
		t.Fatalf("PartitionTemplate: %v", err)
	}
	if pt != filepath.Join(dir, "D_1000000001_model_P*.cif.V*") {
		t.Errorf("PartitionTemplate = %q", pt)
	}

	ct, err := pi.ContentTypeTemplate("D_1000000001")
	if err != nil {
		t.Fatalf("ContentTypeTemplate: %v", err)
	}
	if ct != filepath.Join(dir, "D_1000000001_*_P1.*") {
		t.Errorf("ContentTypeTemplate = %q", ct)
	}
}

func TestPathInfo_SplitFileNamePartial(t *testing.T) {
	cfg := testConfig()
	pi := NewPathInfo(cfg)

	// Fully compliant names resolve every component.
	got := pi.SplitFileName("D_1000000001_model_P1.cif.V1")
	want := Components{DatasetID: "D_1000000001", ContentType: "model", Format: "pdbx", Partition: 1, Version: 1}
	if got != want {
		t.Errorf("full split = %+v, want %+v", got, want)
	}

	// Without a partition marker the id, content type and version still
	// come back; the format does not.
	got = pi.SplitFileName("D_000001_model.cif.V1")
	if got.DatasetID != "D_000001" || got.ContentType != "model" || got.Version != 1 {
		t.Errorf("partial split = %+v", got)
	}
	if got.Format != "" || got.Partition != 0 {
		t.Errorf("partial split leaked format/partition: %+v", got)
	}

	// A bare dataset id yields just the id.
	got = pi.SplitFileName("D_000001")
	if got.DatasetID != "D_000001" || got.ContentType != "" {
		t.Errorf("id-only split = %+v", got)
	}

	// Garbage yields all zero values.
	if got = pi.SplitFileName("notes.txt"); got != (Components{}) {
		t.Errorf("garbage split = %+v, want zero", got)
	}
}

func TestPathInfo_IsValidFileName(t *testing.T) {
	cfg := testConfig()
	pi := NewPathInfo(cfg)

	tests := []struct {
		name       string
		requireVer bool
		want       bool
	}{
		{"D_1000000001_model_P1.cif.V1", true, true},
		{"D_1000000001_model_P1.cif", false, true},
		{"D_1000000001_model_P1.cif", true, false},
		{"D_1000000001_model-release_P1.cif.V2", true, true},
		{"D_1000000001_nosuchtoken_P1.cif.V1", false, false},
		{"D_1000000001_model_P1.zzz.V1", false, false},
		{"D_1000000001_model.cif.V1", false, false},
	}
	for _, tt := range tests {
		if got := pi.IsValidFileName(tt.name, tt.requireVer); got != tt.want {
			t.Errorf("IsValidFileName(%q, %v) = %v, want %v", tt.name, tt.requireVer, got, tt.want)
		}
	}
}

func TestPathInfo_FileExtension(t *testing.T) {
	pi := NewPathInfo(testConfig())

	ext, ok := pi.FileExtension("nmr-star")
	if !ok || ext != "str" {
		t.Errorf("FileExtension(nmr-star) = (%q, %v)", ext, ok)
	}
	if _, ok := pi.FileExtension("unknown"); ok {
		t.Error("expected unknown format to fail")
	}
}

func TestPathInfo_ArchiveAndInstancePaths(t *testing.T) {
	cfg := testConfig()
	pi := NewPathInfo(cfg)

	archive, err := pi.ArchivePath("D_1000000001")
	if err != nil {
		t.Fatalf("ArchivePath: %v", err)
	}
	if archive != filepath.FromSlash("/data/site/archive/D_1000000001") {
		t.Errorf("ArchivePath = %q", archive)
	}

	// Group datasets land in the autogroup area.
	group, err := pi.ArchivePath("G_1002003")
	if err != nil {
		t.Fatalf("ArchivePath group: %v", err)
	}
	if group != filepath.FromSlash("/data/site/autogroup/G_1002003") {
		t.Errorf("group ArchivePath = %q", group)
	}

	inst, err := pi.InstancePath("D_1000000001", "W_010")
	if err != nil {
		t.Fatalf("InstancePath: %v", err)
	}
	if inst != filepath.FromSlash("/data/site/workflow/D_1000000001/instance/W_010") {
		t.Errorf("InstancePath = %q", inst)
	}
}
