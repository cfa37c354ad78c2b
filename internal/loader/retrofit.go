package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/charlievieth/fastwalk"
)

// Retrofit walks root and pre-loads (and so pre-transforms) every .js/.mjs
// file the matcher would count as application code, so the first request
// into a freshly started process doesn't pay a synchronous parse-and-
// splice cost on its hot path. It is best-effort: a single file's read or
// parse failure is logged by Load and does not abort the walk.
func (l *Loader) Retrofit(ctx context.Context, root string) error {
	conf := fastwalk.Config{Follow: false}
	return fastwalk.Walk(&conf, root, func(p string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err != nil || d.IsDir() {
			return nil
		}
		if !isJSFile(p) {
			return nil
		}
		if !l.matcher.IsApp(p) {
			return nil
		}
		_, _ = l.Load(p)
		return nil
	})
}

func isJSFile(p string) bool {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".js", ".mjs", ".cjs":
		return true
	default:
		return false
	}
}
