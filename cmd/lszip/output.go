package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/snabb/lszip"
)

const partSuffix = ".part"

// outputDir creates the destination files of an extraction under root.
type outputDir struct {
	root      string
	overwrite bool
}

// destination maps an entry name to a path under root. Names that would
// leave root are refused.
func (o *outputDir) destination(name string) (string, error) {
	if name == "" || !filepath.IsLocal(filepath.FromSlash(name)) {
		return "", errors.Errorf("refusing to write outside the output directory: %q", name)
	}
	return filepath.Join(o.root, filepath.FromSlash(name)), nil
}

func (o *outputDir) open(e lszip.Entry) (io.WriteCloser, error) {
	path, err := o.destination(e.Name)
	if err != nil {
		return nil, err
	}
	if !o.overwrite {
		if _, err := os.Lstat(path); err == nil {
			return nil, errors.Errorf("%s already exists", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path+partSuffix, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	return &partFile{f: f, path: path, modified: e.Modified}, nil
}

// partFile is written under a temporary name and renamed into place once
// the data has been verified.
type partFile struct {
	f        *os.File
	path     string
	modified time.Time
}

func (p *partFile) Write(b []byte) (int, error) {
	return p.f.Write(b)
}

func (p *partFile) Close() error {
	if err := p.f.Close(); err != nil {
		os.Remove(p.f.Name())
		return err
	}
	if !p.modified.IsZero() {
		_ = os.Chtimes(p.f.Name(), p.modified, p.modified)
	}
	return os.Rename(p.f.Name(), p.path)
}

// Abort discards the partial file.
func (p *partFile) Abort() error {
	p.f.Close()
	return os.Remove(p.f.Name())
}

// extractVerified spools the entry to a temporary file and copies it to
// out only after its size and CRC-32 have been checked, so out never sees
// a partial or corrupt entry.
func extractVerified(ctx context.Context, ar *lszip.Archive, index int, out io.Writer) error {
	tmp, err := os.CreateTemp("", "lszip-stdout-*")
	if err != nil {
		return errors.Wrap(err, "create spool file")
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	n, err := ar.Extract(ctx, index, tmp)
	if err != nil {
		return err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return err
	}
	_, err = io.Copy(out, io.LimitReader(tmp, n))
	return err
}
