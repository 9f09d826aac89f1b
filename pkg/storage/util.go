package storage

import "os"

func renameFile(oldPath, newPath string) error {
	return os.Rename(oldPath, newPath)
}
