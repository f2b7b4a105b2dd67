package builder

import (
	"context"
	"os"
	"path/filepath"

	"github.com/karrick/godirwalk"
	"golang.org/x/sync/errgroup"
)

const copyConcurrency = 8

// CopyTree recursively copies srcDir into dstDir, preserving file modes and
// symlink targets. Directories are created in walk order; file contents are
// copied on a bounded worker group. Used for template bundles that ship
// auxiliary files next to the player executable.
func CopyTree(ctx context.Context, srcDir string, dstDir string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(copyConcurrency)

	walkErr := godirwalk.Walk(srcDir, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			rel, err := filepath.Rel(srcDir, path)
			if err != nil {
				return err
			}
			target := filepath.Join(dstDir, rel)

			if de.IsDir() {
				return os.MkdirAll(target, 0755)
			}

			if de.IsSymlink() {
				link, err := os.Readlink(path)
				if err != nil {
					return err
				}
				return os.Symlink(link, target)
			}

			src := path
			g.Go(func() error {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				return copyFile(src, target)
			})
			return nil
		},
		Unsorted: false,
	})

	copyErr := g.Wait()
	if walkErr != nil {
		return walkErr
	}
	return copyErr
}
