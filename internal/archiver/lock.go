package archiver

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

const lockFileName = ".lock"

// ErrShowLocked is returned when another run holds the show directory
var ErrShowLocked = errors.New("show is being archived by another process")

// lockShow takes the exclusive lock of a show directory without waiting
func lockShow(showDir string) (*flock.Flock, error) {
	lock := flock.New(filepath.Join(showDir, lockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", showDir, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", showDir, ErrShowLocked)
	}
	return lock, nil
}
