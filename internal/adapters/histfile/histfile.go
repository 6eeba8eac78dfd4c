// Package histfile stores booked histograms in a ROOT file and reads them
// back.
package histfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hbook/rootcnv"

	"github.com/okian/tauskim/internal/domain/histograms"
)

// Write stores every histogram of sets under its own name. The file is
// replaced atomically.
func Write(path string, sets ...*histograms.Set) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	_ = tmp.Close()

	if err := put(tmpName, sets); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}

func put(path string, sets []*histograms.Set) error {
	f, err := groot.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	for _, s := range sets {
		for _, h := range s.All() {
			if err := f.Put(h.Name(), rhist.NewH1DFrom(h)); err != nil {
				return fmt.Errorf("put %s: %w", h.Name(), err)
			}
		}
	}
	return f.Close()
}

// Read loads every 1D histogram of path keyed by name.
func Read(path string) (map[string]*hbook.H1D, error) {
	f, err := groot.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	out := make(map[string]*hbook.H1D)
	for _, k := range f.Keys() {
		obj, err := k.Object()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", k.Name(), err)
		}
		if h, ok := obj.(rhist.H1); ok {
			out[k.Name()] = rootcnv.H1D(h)
		}
	}
	return out, nil
}

// Names returns the sorted keys of hists.
func Names(hists map[string]*hbook.H1D) []string {
	names := make([]string, 0, len(hists))
	for n := range hists {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
