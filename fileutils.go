package main

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// localName returns the name a remote path gets when materialized locally.
func localName(remotePath string) string {
	trimmed := strings.TrimRight(remotePath, "/")
	if trimmed == "" {
		return ""
	}
	return path.Base(trimmed)
}

// remoteDir normalizes a destination directory to /dir/.
func remoteDir(dst string) string {
	trimmed := strings.Trim(dst, "/")
	if trimmed == "" {
		return "/"
	}
	return "/" + trimmed + "/"
}

// cleanLocal removes a file or a whole directory tree. A missing path is not an error.
func cleanLocal(p string) error {
	info, err := os.Lstat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return os.RemoveAll(p)
	}
	return os.Remove(p)
}

// iterFiles lists the regular files under root in lexical order, including
// symlinks that resolve to regular files. Linked directories are not
// descended into. A root that is itself a file yields just that file.
func iterFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("skipping unreadable entry", "path", p, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		switch {
		case d.Type().IsRegular():
			files = append(files, p)
		case d.Type()&fs.ModeSymlink != 0:
			if target, err := os.Stat(p); err == nil && target.Mode().IsRegular() {
				files = append(files, p)
			}
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// siblingWithExt swaps the extension of p, keeping it in the same directory.
func siblingWithExt(p, ext string) string {
	return strings.TrimSuffix(p, filepath.Ext(p)) + ext
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// saveFile lets write fill a temporary file and renames it to localPath on
// success, so a partial write never leaves a file under the final name.
func saveFile(localPath string, write func(io.Writer) (int64, error)) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	tmp := localPath + ".part"
	destFile, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("failed to create destination file: %w", err)
	}

	n, err := write(destFile)
	if cerr := destFile.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return n, fmt.Errorf("failed to copy file contents: %w", err)
	}
	if err := os.Rename(tmp, localPath); err != nil {
		_ = os.Remove(tmp)
		return n, fmt.Errorf("failed to move file into place: %w", err)
	}
	return n, nil
}
