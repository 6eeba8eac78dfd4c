// Package skimfile writes and reads the flat output trees of the skim.
//
// Files are written under a temporary name next to the final path and only
// renamed into place by Commit, so an aborted sample leaves nothing behind.
package skimfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rtree"

	"github.com/okian/tauskim/internal/domain/variables"
)

// FileName returns the output file name of a sample.
func FileName(sample string) string {
	return sample + "Skim.root"
}

// Path returns the output path of a sample under dir.
func Path(dir, sample string) string {
	return filepath.Join(dir, FileName(sample))
}

// Writer appends records to one output tree.
type Writer struct {
	final string
	tmp   string

	file *groot.File
	tree rtree.Writer
	row  variables.Record
	rows int64
}

// Create opens a temporary file for the tree name beside path.
func Create(path, treeName string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	_ = tmp.Close()

	f, err := groot.Create(tmpName)
	if err != nil {
		_ = os.Remove(tmpName)
		return nil, fmt.Errorf("create %s: %w", tmpName, err)
	}

	w := &Writer{final: path, tmp: tmpName, file: f}
	wvars := make([]rtree.WriteVar, len(variables.Columns))
	for i, c := range variables.Columns {
		wvars[i] = rtree.WriteVar{Name: c.Name, Value: c.Field(&w.row)}
	}

	tree, err := rtree.NewWriter(f, treeName, wvars)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(tmpName)
		return nil, fmt.Errorf("create tree %s: %w", treeName, err)
	}
	w.tree = tree
	return w, nil
}

// Write appends records in order.
func (w *Writer) Write(records []variables.Record) error {
	for i := range records {
		w.row = records[i]
		if _, err := w.tree.Write(); err != nil {
			return fmt.Errorf("write row %d: %w", w.rows, err)
		}
		w.rows++
	}
	return nil
}

// Rows returns the number of records written so far.
func (w *Writer) Rows() int64 {
	return w.rows
}

// Commit flushes the tree and moves the file to its final path.
func (w *Writer) Commit() error {
	if err := w.tree.Close(); err != nil {
		w.discard()
		return fmt.Errorf("close tree: %w", err)
	}
	if err := w.file.Close(); err != nil {
		_ = os.Remove(w.tmp)
		return fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(w.tmp, w.final); err != nil {
		_ = os.Remove(w.tmp)
		return fmt.Errorf("rename into %s: %w", w.final, err)
	}
	return nil
}

// Abort discards the temporary file.
func (w *Writer) Abort() {
	w.discard()
}

func (w *Writer) discard() {
	_ = w.tree.Close()
	_ = w.file.Close()
	_ = os.Remove(w.tmp)
}

// Read streams every record of a skim file to fn in file order.
func Read(ctx context.Context, path, treeName string, fn func(*variables.Record) error) error {
	f, err := groot.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	obj, err := f.Get(treeName)
	if err != nil {
		return fmt.Errorf("get %s from %s: %w", treeName, path, err)
	}
	tree, ok := obj.(rtree.Tree)
	if !ok {
		return fmt.Errorf("%s in %s is %T, not a tree", treeName, path, obj)
	}

	var row variables.Record
	rvars := make([]rtree.ReadVar, len(variables.Columns))
	for i, c := range variables.Columns {
		rvars[i] = rtree.ReadVar{Name: c.Name, Value: c.Field(&row)}
	}
	r, err := rtree.NewReader(tree, rvars)
	if err != nil {
		return fmt.Errorf("reader for %s: %w", path, err)
	}
	defer r.Close()

	return r.Read(func(rtree.RCtx) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(&row)
	})
}
