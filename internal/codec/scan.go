package codec

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Scan expands paths into a file list. Files are kept as given; directories
// are walked recursively for files the registry can write, skipping hidden
// directories. Order follows the arguments, then lexical walk order.
func (c *FileCodec) Scan(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := c.fs.Stat(p)
		if err != nil || !info.IsDir() {
			// Missing inputs are reported per file by the batch.
			out = append(out, p)
			continue
		}

		err = afero.Walk(c.fs, p, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				if path != p && strings.HasPrefix(info.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if c.registry.ForPath(path) != nil {
				out = append(out, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", p, err)
		}
	}
	return out, nil
}
