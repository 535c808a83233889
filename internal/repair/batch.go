package repair

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"

	"github.com/golang-dep-alumni/conflictrepair/internal/repairlog"
)

// BatchItem is one requirements file discovered by a batch run, paired
// with its outcome (or the error that kept it from running at all).
type BatchItem struct {
	Path   string
	Result Result
	Err    error
}

// BatchSolve walks dir for files matching suffix (e.g. ".txt"), running
// solve against each in traversal order. It backs the CLI's directory
// mode: a single invocation can repair a whole tree of requirements
// files in one pass.
//
// Traversal order is sorted (godirwalk's default), so repeated runs over
// an unchanged tree visit files in the same order; a run is not aborted
// by one file's failure, only recorded against that file's BatchItem.
func BatchSolve(dir, suffix string, solve func(content string) (Result, error), log *repairlog.Logger) ([]BatchItem, error) {
	var items []BatchItem

	err := godirwalk.Walk(dir, &godirwalk.Options{
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			if suffix != "" && !strings.HasSuffix(osPathname, suffix) {
				return nil
			}

			log.Verbosef("batch: processing %s", osPathname)
			content, rerr := os.ReadFile(osPathname)
			if rerr != nil {
				items = append(items, BatchItem{Path: osPathname, Err: errors.Wrapf(rerr, "reading %s", osPathname)})
				return nil
			}

			result, serr := solve(string(content))
			items = append(items, BatchItem{Path: osPathname, Result: result, Err: serr})
			return nil
		},
		ErrorCallback: func(osPathname string, err error) godirwalk.ErrorAction {
			log.Warnf("batch: skipping %s: %s", osPathname, err)
			return godirwalk.SkipNode
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walking %s", dir)
	}

	return items, nil
}

// RelativeLabel reports path relative to root for display, falling back to
// path itself if it isn't actually under root.
func RelativeLabel(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}
