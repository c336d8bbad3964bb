package files

import (
	"os"
	"path/filepath"
)

func FileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

func MkDirIfNotExists(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return err
	}
	return os.MkdirAll(path, os.ModePerm)
}

// FixPrefixPath joins suffix under potentialRoot unless suffix is absolute.
func FixPrefixPath(potentialRoot string, suffix string) string {
	if potentialRoot == "" || filepath.IsAbs(suffix) {
		return suffix
	}
	return filepath.Join(potentialRoot, suffix)
}
