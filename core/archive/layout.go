package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Key identifies one persisted result.
type Key struct {
	Prescription string `json:"prescription"`
	Dataset      string `json:"dataset"`
	SolverID     string `json:"solver_id"`
	Instance     string `json:"instance"`
}

func (k Key) String() string {
	return strings.Join([]string{k.Prescription, k.Dataset, k.SolverID, k.Instance}, "/")
}

// Validate rejects keys that would escape the results directory.
func (k Key) Validate() error {
	for name, v := range map[string]string{
		"prescription": k.Prescription,
		"dataset":      k.Dataset,
		"solver id":    k.SolverID,
		"instance":     k.Instance,
	} {
		if v == "" || v == "." || v == ".." || strings.ContainsAny(v, `/\`) {
			return fmt.Errorf("invalid %s %q in result key", name, v)
		}
	}
	return nil
}

// Layout resolves paths below a data root.
type Layout struct {
	Root string
}

func (l Layout) DatasetsDir() string { return filepath.Join(l.Root, "datasets") }

func (l Layout) DatasetDir(name string) string { return filepath.Join(l.DatasetsDir(), name) }

func (l Layout) PrescriptionsDir() string {
	return filepath.Join(l.Root, "experiments-prescriptions")
}

func (l Layout) PrescriptionPath(file string) string {
	return filepath.Join(l.PrescriptionsDir(), file)
}

func (l Layout) ResultsDir() string { return filepath.Join(l.Root, "results") }

// SolverDir is the directory holding every result of one solver on one
// dataset.
func (l Layout) SolverDir(prescription, dataset, solverID string) string {
	return filepath.Join(l.ResultsDir(), prescription, dataset, solverID)
}

func (l Layout) ResultPath(k Key) string {
	return filepath.Join(l.SolverDir(k.Prescription, k.Dataset, k.SolverID), k.Instance)
}

// PrescriptionName strips the extension of a prescription file name.
func PrescriptionName(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DatasetInstances lists the instance files of a dataset in name order.
func (l Layout) DatasetInstances(dataset string) ([]string, error) {
	return listFiles(l.DatasetDir(dataset))
}

func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}
