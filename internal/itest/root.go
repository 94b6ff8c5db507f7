//go:build integration

package itest

import (
	"errors"
	"os"
	"path/filepath"
)

// findRepoRoot walks up from the working directory to the module that owns
// cmd/presserdigest.
func findRepoRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 10; i++ {
		_, modErr := os.Stat(filepath.Join(wd, "go.mod"))
		_, cmdErr := os.Stat(filepath.Join(wd, "cmd", "presserdigest"))
		if modErr == nil && cmdErr == nil {
			return wd, nil
		}
		parent := filepath.Dir(wd)
		if parent == wd {
			break
		}
		wd = parent
	}
	return "", errors.New("could not locate the presserdigest module root")
}
