package depio

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestForReleasePath(t *testing.T) {
	rp := NewReleasePaths(testConfig())

	tests := []struct {
		name   string
		subdir string
		cycle  string
		want   string
	}{
		{"root current", "", "current", "/data/site/for-release"},
		{"root previous", "", "previous", "/data/site/for-release/previous"},
		{"added", ReleaseAdded, "current", "/data/site/for-release/added"},
		{"modified previous", ReleaseModified, "previous", "/data/site/for-release/previous/modified"},
		{"emd", ReleaseEMD, "current", "/data/site/for-release/emd"},
		{"val reports", ReleaseValReports, "current", "/data/site/for-release/val-reports"},
		{"em val reports", ReleaseEMValReports, "current", "/data/site/for-release/em-val-reports"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rp.ForReleasePath(tt.subdir, tt.cycle)
			if err != nil {
				t.Fatalf("ForReleasePath: %v", err)
			}
			if got != filepath.FromSlash(tt.want) {
				t.Errorf("ForReleasePath = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestForReleasePath_ClosedSet(t *testing.T) {
	rp := NewReleasePaths(testConfig())

	if _, err := rp.ForReleasePath("staging", "current"); !errors.Is(err, ErrReleaseDir) {
		t.Errorf("unknown subdir err = %v, want ErrReleaseDir", err)
	}
	if _, err := rp.ForReleasePath(ReleaseAdded, "next"); !errors.Is(err, ErrReleaseDir) {
		t.Errorf("unknown cycle err = %v, want ErrReleaseDir", err)
	}
}

func TestForReleasePath_ConfiguredRoot(t *testing.T) {
	cfg := testConfig()
	cfg.ForReleaseRoot = "/release/stage"
	rp := NewReleasePaths(cfg)

	got, err := rp.ForReleasePath(ReleaseObsolete, "current")
	if err != nil {
		t.Fatalf("ForReleasePath: %v", err)
	}
	if got != filepath.FromSlash("/release/stage/obsolete") {
		t.Errorf("ForReleasePath = %q", got)
	}
}

func TestReleaseFileName(t *testing.T) {
	tests := []struct {
		name       string
		kind       string
		accession  string
		forRelease bool
		want       string
	}{
		{"model public gz", "model", "1abc", false, "1abc.cif.gz"},
		{"model stage gz", "model", "1abc", true, "1abc.cif.gz"},
		{"sf public legacy name", "sf", "1abc", false, "r1abcsf.ent.gz"},
		{"sf stage modern name", "sf", "1abc", true, "1abc-sf.cif"},
		{"cs public", "cs", "1abc", false, "1abc_cs.str.gz"},
		{"cs stage uncompressed", "cs", "1abc", true, "1abc_cs.str"},
		{"nmr data", "nmr-data", "1abc", false, "1abc_nmr-data.str.gz"},
		{"emdb xml public hyphen", "emd-xml", "EMD-1234", false, "emd-1234-v30.xml"},
		{"emdb xml stage underscore", "emd-xml", "EMD-1234", true, "emd_1234_v3.xml"},
		{"emdb map underscore both", "emd-map", "EMD-1234", false, "emd_1234.map.gz"},
		{"emdb fsc", "emd-fsc", "EMD-1234", true, "emd_1234_fsc.xml"},
		{"validation pdf", "val-pdf", "1abc", false, "1abc_validation.pdf"},
		{"validation full pdf", "val-pdf-full", "1abc", true, "1abc_full_validation.pdf"},
		{"validation png", "val-png", "1abc", false, "1abc_multipercentile_validation.png"},
		{"validation 2fofc", "val-2fofc", "1abc", false, "1abc_validation_2fo-fc_map_coef.cif"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReleaseFileName(tt.kind, tt.accession, tt.forRelease)
			if err != nil {
				t.Fatalf("ReleaseFileName: %v", err)
			}
			if got != tt.want {
				t.Errorf("ReleaseFileName = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := ReleaseFileName("thumbnails", "1abc", false); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown kind err = %v, want ErrNotFound", err)
	}
}

func TestEMDBAccessionForms(t *testing.T) {
	if got := EMDBUnderscore("EMD-1234"); got != "emd_1234" {
		t.Errorf("EMDBUnderscore = %q", got)
	}
	if got := EMDBHyphen("EMD-1234"); got != "emd-1234" {
		t.Errorf("EMDBHyphen = %q", got)
	}
}

func TestLocalFTP_Paths(t *testing.T) {
	cfg := testConfig()
	cfg.PDBFTPRoot = "/ftp/pdb-mirror"
	cfg.EMDBFTPRoot = "/ftp/emdb-mirror"
	ftp := NewLocalFTP(cfg)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"pdb all dir", ftp.PDBDir(), "/ftp/pdb-mirror/pdb/data/structures/all"},
		{"emdb dir", ftp.EMDBDir(), "/ftp/emdb-mirror/emdb/structures"},
		{"model", ftp.ModelPath("1abc"), "/ftp/pdb-mirror/pdb/data/structures/all/mmCIF/1abc.cif.gz"},
		{"sf", ftp.SFPath("1abc"), "/ftp/pdb-mirror/pdb/data/structures/all/structure_factors/r1abcsf.ent.gz"},
		{"cs", ftp.CSPath("1abc"), "/ftp/pdb-mirror/pdb/data/structures/all/nmr_chemical_shifts/1abc_cs.str.gz"},
		{"nmr data", ftp.NMRDataPath("1abc"), "/ftp/pdb-mirror/pdb/data/structures/all/nmr_data/1abc_nmr-data.str.gz"},
		{"emdb entry", ftp.EMDBEntryDir("emd-1234"), "/ftp/emdb-mirror/emdb/structures/EMD-1234"},
	}
	for _, tt := range tests {
		if tt.got != filepath.FromSlash(tt.want) {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestLocalFTP_Unconfigured(t *testing.T) {
	ftp := NewLocalFTP(testConfig())
	if ftp.PDBDir() != "" || ftp.EMDBDir() != "" {
		t.Error("expected empty dirs without mirror roots")
	}
}
