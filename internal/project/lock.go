package project

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"vidforge/internal/services"
)

// Lock is an exclusive advisory lock on one project's assembly.
type Lock struct {
	path string
	lock *flock.Flock
}

// AcquireLock takes the assembly lock for layout without blocking. A second
// assembly of the same project fails immediately.
func AcquireLock(layout Layout) (*Lock, error) {
	path := layout.LockPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire project lock: %w", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "project", "lock",
			"another assembly of this project is running (lock: "+path+")", nil)
	}
	return &Lock{path: path, lock: fl}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string { return l.path }

// Release drops the lock. It is safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
