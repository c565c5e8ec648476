// Package source turns command-line arguments into batch inputs.
//
// Files must carry a .json suffix; directories contribute their *.json
// entries in lexical order; "-" reads pasted text from stdin. Problems with a
// single input are recorded on its Source and never stop the others.
package source

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/remitflat/internal/model"
)

// Stdin is the argument that stands for pasted input
const Stdin = "-"

const jsonSuffix = ".json"

// Loader collects sources in argument order
type Loader struct {
	stdin  io.Reader
	loaded int // sources accepted so far, used to number pasted input
}

// NewLoader creates a loader reading pasted input from stdin
func NewLoader(stdin io.Reader) *Loader {
	return &Loader{stdin: stdin}
}

// Load resolves every argument into one or more sources
func (l *Loader) Load(args []string) []model.Source {
	var sources []model.Source
	for _, arg := range args {
		if arg == Stdin {
			sources = append(sources, l.fromReader(l.stdin))
			continue
		}

		info, err := os.Stat(arg)
		if err == nil && info.IsDir() {
			files, err := ExpandDir(arg)
			if err != nil {
				sources = append(sources, model.Source{
					Name: filepath.Base(arg),
					Path: arg,
					Err:  fmt.Errorf("%w: %v", model.ErrReadFailed, err),
				})
				continue
			}
			for _, f := range files {
				sources = append(sources, l.File(f))
			}
			continue
		}

		sources = append(sources, l.File(arg))
	}
	return sources
}

// File loads a single file
func (l *Loader) File(path string) model.Source {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, jsonSuffix) {
		return model.Source{Name: base, Path: path, Err: model.ErrNotJSONFile}
	}

	src := model.Source{Name: DisplayName(path), Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		src.Err = fmt.Errorf("%w: %v", model.ErrReadFailed, err)
		return src
	}

	src.Data = data
	l.loaded++
	return src
}

// Text wraps pasted JSON as a source named manual_input_N
func (l *Loader) Text(data []byte) model.Source {
	l.loaded++
	return model.Source{
		Name: fmt.Sprintf("manual_input_%d", l.loaded),
		Data: data,
	}
}

func (l *Loader) fromReader(r io.Reader) model.Source {
	if r == nil {
		r = os.Stdin
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return model.Source{
			Name: fmt.Sprintf("manual_input_%d", l.loaded+1),
			Err:  fmt.Errorf("%w: %v", model.ErrReadFailed, err),
		}
	}
	return l.Text(data)
}

// DisplayName is the file name without directory and .json suffix
func DisplayName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), jsonSuffix)
}

// ExpandDir lists the .json files directly inside dir, sorted by name
func ExpandDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), jsonSuffix) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
