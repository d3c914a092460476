// Package archive gathers the files of a closed dossier: annexes copied
// next to the receipt, then everything zipped for the declarant.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	errs "github.com/a3tai/mcp-dtdict/internal/errors"
)

// CopyAnnexes copies the regular files of src into dst and returns their
// names. A missing src is not an error.
func CopyAnnexes(src, dst string) ([]string, error) {
	if src == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, errs.Wrap(errs.ErrorTypeArchive, "cannot read annex directory", err).WithFile(src)
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeArchive, "cannot create target directory", err).WithFile(dst)
	}

	var copied []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if err := copyFile(filepath.Join(src, e.Name()), filepath.Join(dst, e.Name())); err != nil {
			return copied, errs.Wrap(errs.ErrorTypeArchive, "cannot copy annex", err).WithFile(e.Name())
		}
		copied = append(copied, e.Name())
	}
	return copied, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

// Zippable reports whether a file belongs in the dossier archive. Archives
// and form data files are left out.
func Zippable(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext != ".zip" && ext != ".fdf"
}

// ZipDir writes every zippable regular file of dir, flat and in name order,
// into zipPath. An existing archive is replaced. It returns the archived
// names.
func ZipDir(dir, zipPath string) ([]string, error) {
	if err := os.Remove(zipPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errs.Wrap(errs.ErrorTypeArchive, "cannot remove previous archive", err).WithFile(zipPath)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeArchive, "cannot read dossier directory", err).WithFile(dir)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && Zippable(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	f, err := os.Create(zipPath)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeArchive, "cannot create archive", err).WithFile(zipPath)
	}

	zw := zip.NewWriter(f)
	for _, name := range names {
		if err := addFile(zw, filepath.Join(dir, name), name); err != nil {
			zw.Close()
			f.Close()
			os.Remove(zipPath)
			return nil, errs.Wrap(errs.ErrorTypeArchive, "cannot add file to archive", err).WithFile(name)
		}
	}
	if err := zw.Close(); err != nil {
		f.Close()
		os.Remove(zipPath)
		return nil, errs.Wrap(errs.ErrorTypeArchive, "cannot finish archive", err).WithFile(zipPath)
	}
	if err := f.Close(); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeArchive, "cannot close archive", err).WithFile(zipPath)
	}
	return names, nil
}

func addFile(zw *zip.Writer, path, name string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("header for %s: %w", name, err)
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, in)
	return err
}
