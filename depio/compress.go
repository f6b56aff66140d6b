package depio

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio"
	"github.com/klauspost/compress/zstd"
	log "github.com/sirupsen/logrus"
)

// -----------------------------------------------------------------------------
// Gzip Compressor
// -----------------------------------------------------------------------------

// gzipCompressor implements Compressor using gzip compression.
type gzipCompressor struct{}

// NewGzipCompressor creates a gzip compressor.
//
// Files are compressed using standard gzip format with .gz extension.
func NewGzipCompressor() Compressor {
	return &gzipCompressor{}
}

func (g *gzipCompressor) Name() string {
	return "gzip"
}

func (g *gzipCompressor) Extension() string {
	return ".gz"
}

func (g *gzipCompressor) Compress(w io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriter(w), nil
}

func (g *gzipCompressor) Decompress(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

// -----------------------------------------------------------------------------
// Zstd Compressor
// -----------------------------------------------------------------------------

// zstdCompressor implements Compressor using zstd compression.
type zstdCompressor struct{}

// NewZstdCompressor creates a zstd compressor.
//
// Zstd provides higher compression ratios and faster decompression than
// gzip, at the cost of a tarball name outside the historical *.tar.gz
// convention.
func NewZstdCompressor() Compressor {
	return &zstdCompressor{}
}

func (z *zstdCompressor) Name() string {
	return "zstd"
}

func (z *zstdCompressor) Extension() string {
	return ".zst"
}

func (z *zstdCompressor) Compress(w io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(w)
}

func (z *zstdCompressor) Decompress(r io.Reader) (io.ReadCloser, error) {
	decoder, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return decoder.IOReadCloser(), nil
}

// -----------------------------------------------------------------------------
// NoOp Compressor
// -----------------------------------------------------------------------------

// noopCompressor implements Compressor with no compression.
type noopCompressor struct{}

// NewNoopCompressor creates a pass-through compressor.
func NewNoopCompressor() Compressor {
	return &noopCompressor{}
}

func (n *noopCompressor) Name() string {
	return "none"
}

func (n *noopCompressor) Extension() string {
	return ""
}

func (n *noopCompressor) Compress(w io.Writer) (io.WriteCloser, error) {
	return nopWriteCloser{w}, nil
}

func (n *noopCompressor) Decompress(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// -----------------------------------------------------------------------------
// Cold archive
// -----------------------------------------------------------------------------

// ColdArchive moves dormant dataset directories between the live archive
// area and their tarball form in the cold archive directory. An optional
// ArchiveStore pushes tarballs offsite.
type ColdArchive struct {
	cfg   *SiteConfig
	comp  Compressor
	store ArchiveStore
	log   *log.Entry
}

// ColdOption configures a ColdArchive.
type ColdOption func(*ColdArchive)

// WithCompressor overrides the default gzip compressor.
func WithCompressor(c Compressor) ColdOption {
	return func(ca *ColdArchive) { ca.comp = c }
}

// WithOffsiteStore attaches an offsite store for tarball replication.
func WithOffsiteStore(s ArchiveStore) ColdOption {
	return func(ca *ColdArchive) { ca.store = s }
}

// NewColdArchive builds a ColdArchive. The cold archive directory must
// already exist.
func NewColdArchive(cfg *SiteConfig, opts ...ColdOption) (*ColdArchive, error) {
	ca := &ColdArchive{
		cfg:  cfg,
		comp: NewGzipCompressor(),
		log:  log.WithField("site", cfg.SiteID),
	}
	for _, opt := range opts {
		opt(ca)
	}
	if _, err := os.Stat(cfg.ColdArchiveDir()); err != nil {
		return nil, fmt.Errorf("cold archive dir: %w", err)
	}
	return ca, nil
}

// TarballPath returns the cold-archive tarball path of a dataset.
func (ca *ColdArchive) TarballPath(datasetID string) string {
	return filepath.Join(ca.cfg.ColdArchiveDir(), datasetID+".tar"+ca.comp.Extension())
}

func (ca *ColdArchive) liveDir(datasetID string) string {
	return filepath.Join(ca.cfg.ArchiveRoot, "archive", datasetID)
}

// IsCompressed reports whether a dataset has a cold-archive tarball.
func (ca *ColdArchive) IsCompressed(datasetID string) bool {
	_, err := os.Stat(ca.TarballPath(datasetID))
	return err == nil
}

// Check walks the tarball of a dataset and fails on truncation or
// corruption.
func (ca *ColdArchive) Check(datasetID string) error {
	if !ca.IsCompressed(datasetID) {
		return fmt.Errorf("dataset %s: %w", datasetID, ErrNotFound)
	}
	f, err := os.Open(ca.TarballPath(datasetID))
	if err != nil {
		return err
	}
	defer closer(f)()

	dec, err := ca.comp.Decompress(f)
	if err != nil {
		return fmt.Errorf("check %s: %w", datasetID, err)
	}
	defer closer(dec)()

	tr := tar.NewReader(dec)
	for {
		_, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("check %s: %w", datasetID, err)
		}
	}
}

// Compress tars a dataset directory into the cold archive and removes the
// live directory once the tarball verifies. The tarball appears atomically.
func (ca *ColdArchive) Compress(datasetID string, overwrite bool) (string, error) {
	if !strings.HasPrefix(datasetID, "D_") {
		return "", fmt.Errorf("dataset id %q: %w", datasetID, ErrInvalidReference)
	}
	if ca.IsCompressed(datasetID) && !overwrite {
		return "", fmt.Errorf("dataset %s tarball: %w", datasetID, ErrKeyExists)
	}
	src := ca.liveDir(datasetID)
	if _, err := os.Stat(src); err != nil {
		return "", fmt.Errorf("dataset %s: %w", datasetID, ErrNotFound)
	}

	dst := ca.TarballPath(datasetID)
	pending, err := renameio.TempFile(ca.cfg.ColdArchiveDir(), dst)
	if err != nil {
		return "", err
	}
	defer func() { _ = pending.Cleanup() }()

	if err := ca.writeTar(pending, src, datasetID); err != nil {
		return "", err
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return "", err
	}

	if err := ca.Check(datasetID); err != nil {
		return "", err
	}
	ca.log.WithFields(log.Fields{"dataset": datasetID, "tarball": dst}).Info("dataset moved to cold archive")
	if err := os.RemoveAll(src); err != nil {
		return "", fmt.Errorf("remove live dir: %w", err)
	}
	return dst, nil
}

func (ca *ColdArchive) writeTar(w io.Writer, src, datasetID string) error {
	enc, err := ca.comp.Compress(w)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(enc)

	walkErr := filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(filepath.Join(datasetID, rel))
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer closer(f)()
		_, err = io.Copy(tw, f)
		return err
	})
	if walkErr != nil {
		return walkErr
	}
	if err := tw.Close(); err != nil {
		return err
	}
	return enc.Close()
}

// Decompress restores a dataset directory from its cold-archive tarball.
// The tarball is kept; removing it is the caller's decision.
func (ca *ColdArchive) Decompress(datasetID string, overwrite bool) error {
	if !ca.IsCompressed(datasetID) {
		return fmt.Errorf("dataset %s: %w", datasetID, ErrNotFound)
	}
	dst := ca.liveDir(datasetID)
	if _, err := os.Stat(dst); err == nil && !overwrite {
		return fmt.Errorf("dataset %s live dir: %w", datasetID, ErrKeyExists)
	}

	f, err := os.Open(ca.TarballPath(datasetID))
	if err != nil {
		return err
	}
	defer closer(f)()

	dec, err := ca.comp.Decompress(f)
	if err != nil {
		return err
	}
	defer closer(dec)()

	root := filepath.Join(ca.cfg.ArchiveRoot, "archive")
	tr := tar.NewReader(dec)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		target := filepath.Join(root, filepath.Clean(hdr.Name))
		if !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return fmt.Errorf("tar entry %q escapes archive root", hdr.Name)
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(hdr.Mode)); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, os.FileMode(hdr.Mode))
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				_ = out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
		}
	}
	ca.log.WithField("dataset", datasetID).Info("dataset restored from cold archive")
	return nil
}

// Count returns the number of tarballs in the cold archive directory.
func (ca *ColdArchive) Count() (int, error) {
	matches, err := filepath.Glob(filepath.Join(ca.cfg.ColdArchiveDir(), "*.tar"+ca.comp.Extension()))
	if err != nil {
		return 0, err
	}
	return len(matches), nil
}

// PushOffsite copies the tarball of a dataset to the offsite store under
// the key "cold/<dataset>.tar<ext>".
func (ca *ColdArchive) PushOffsite(ctx context.Context, datasetID string) error {
	if ca.store == nil {
		return fmt.Errorf("offsite store not configured: %w", ErrUnresolved)
	}
	if !ca.IsCompressed(datasetID) {
		return fmt.Errorf("dataset %s: %w", datasetID, ErrNotFound)
	}
	f, err := os.Open(ca.TarballPath(datasetID))
	if err != nil {
		return err
	}
	defer closer(f)()
	return ca.store.Put(ctx, ca.offsiteKey(datasetID), f)
}

// PullOffsite fetches the tarball of a dataset from the offsite store into
// the cold archive directory, appearing atomically.
func (ca *ColdArchive) PullOffsite(ctx context.Context, datasetID string) error {
	if ca.store == nil {
		return fmt.Errorf("offsite store not configured: %w", ErrUnresolved)
	}
	r, err := ca.store.Get(ctx, ca.offsiteKey(datasetID))
	if err != nil {
		return err
	}
	defer closer(r)()

	pending, err := renameio.TempFile(ca.cfg.ColdArchiveDir(), ca.TarballPath(datasetID))
	if err != nil {
		return err
	}
	defer func() { _ = pending.Cleanup() }()
	if _, err := io.Copy(pending, r); err != nil {
		return err
	}
	return pending.CloseAtomicallyReplace()
}

func (ca *ColdArchive) offsiteKey(datasetID string) string {
	return "cold/" + datasetID + ".tar" + ca.comp.Extension()
}
