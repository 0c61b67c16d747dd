package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kilianp07/tecsched/core/instance"
	"github.com/kilianp07/tecsched/core/result"
)

// ErrNotFound is returned when no result is stored under a key.
var ErrNotFound = errors.New("result not found")

// Saver persists a result under its key.
type Saver interface {
	Save(ctx context.Context, k Key, r *result.Result) error
}

// FileStore keeps results as JSON files in the data layout.
type FileStore struct {
	layout Layout
}

func NewFileStore(l Layout) *FileStore { return &FileStore{layout: l} }

// Layout returns the layout the store writes into.
func (s *FileStore) Layout() Layout { return s.layout }

// Save writes r atomically: a temporary file is renamed over the target.
func (s *FileStore) Save(ctx context.Context, k Key, r *result.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := k.Validate(); err != nil {
		return err
	}
	path := s.layout.ResultPath(k)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := r.Encode(&buf); err != nil {
		return fmt.Errorf("encode result %s: %w", k, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".result-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Load reads the result under k. inst, when set, validates job indices.
func (s *FileStore) Load(_ context.Context, k Key, inst *instance.Instance) (*result.Result, error) {
	if err := k.Validate(); err != nil {
		return nil, err
	}
	res, err := result.Load(s.layout.ResultPath(k), inst)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, k)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", k, err)
	}
	return res, nil
}

// Exists reports whether a result is stored under k.
func (s *FileStore) Exists(_ context.Context, k Key) (bool, error) {
	if err := k.Validate(); err != nil {
		return false, err
	}
	_, err := os.Stat(s.layout.ResultPath(k))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

// ClearSolver removes every result of a solver on a dataset.
func (s *FileStore) ClearSolver(prescription, dataset, solverID string) error {
	k := Key{Prescription: prescription, Dataset: dataset, SolverID: solverID, Instance: "x"}
	if err := k.Validate(); err != nil {
		return err
	}
	return os.RemoveAll(s.layout.SolverDir(prescription, dataset, solverID))
}

// Solvers lists the solver ids with results for a dataset.
func (s *FileStore) Solvers(prescription, dataset string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.layout.ResultsDir(), prescription, dataset))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

// Instances lists the instance file names with a result from solverID.
func (s *FileStore) Instances(prescription, dataset, solverID string) ([]string, error) {
	paths, err := listFiles(s.layout.SolverDir(prescription, dataset, solverID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return out, nil
}

// Tee fans a save out to several savers, stopping at the first error.
type Tee []Saver

func (t Tee) Save(ctx context.Context, k Key, r *result.Result) error {
	for _, s := range t {
		if s == nil {
			continue
		}
		if err := s.Save(ctx, k, r); err != nil {
			return err
		}
	}
	return nil
}
