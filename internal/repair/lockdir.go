package repair

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/theckman/go-flock"
)

// resolverTempDir creates a fresh, exclusively-locked temporary directory
// for one ResolverDriver.Run invocation. The lock (a sentinel file guarded
// by go-flock) guarantees two concurrent invocations never share a
// directory, even when the caller's TMPDIR is shared across processes on
// the same machine.
//
// release() removes the directory and drops the lock; it is safe to call
// more than once and never returns an error worth acting on, since by the
// time it runs the directory's job is already done.
func resolverTempDir(prefix string) (dir string, release func(), err error) {
	dir, err = os.MkdirTemp("", prefix)
	if err != nil {
		return "", nil, errors.Wrap(err, "creating resolver temp dir")
	}

	lock := flock.NewFlock(filepath.Join(dir, ".lock"))
	if ok, lerr := lock.TryLock(); lerr != nil || !ok {
		os.RemoveAll(dir)
		if lerr != nil {
			return "", nil, errors.Wrap(lerr, "locking resolver temp dir")
		}
		return "", nil, errors.New("resolver temp dir already locked")
	}

	release = func() {
		lock.Unlock()
		os.RemoveAll(dir)
	}
	return dir, release, nil
}
