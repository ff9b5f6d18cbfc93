package datasets

import (
	"archive/zip"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gorgonia.org/tensor"
)

// WriteNpz writes named tensors to path as a NumPy .npz archive, which is a
// zip file holding one .npy member per tensor. Members are written in name
// order so the output is reproducible.
func WriteNpz(path string, members map[string]*tensor.Dense) (err error) {
	if len(members) == 0 {
		return errors.New("npz: no members to write")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()

	names := make([]string, 0, len(members))
	for name := range members {
		names = append(names, name)
	}
	sort.Strings(names)

	zw := zip.NewWriter(f)
	for _, name := range names {
		w, zerr := zw.Create(name + ".npy")
		if zerr != nil {
			return errors.Wrapf(zerr, "add member %s", name)
		}
		if werr := members[name].WriteNpy(w); werr != nil {
			return errors.Wrapf(werr, "write member %s", name)
		}
	}
	return zw.Close()
}

// ReadNpz reads a NumPy .npz archive back into named tensors.
func ReadNpz(path string) (map[string]*tensor.Dense, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer zr.Close()

	members := make(map[string]*tensor.Dense, len(zr.File))
	for _, file := range zr.File {
		rc, oerr := file.Open()
		if oerr != nil {
			return nil, errors.Wrapf(oerr, "open member %s", file.Name)
		}
		var d tensor.Dense
		rerr := d.ReadNpy(rc)
		cerr := rc.Close()
		if rerr != nil {
			return nil, errors.Wrapf(rerr, "read member %s", file.Name)
		}
		if cerr != nil {
			return nil, cerr
		}
		members[strings.TrimSuffix(file.Name, ".npy")] = &d
	}
	return members, nil
}

// SaveNpz writes the set to path with a float32 "features" member and an
// integer "labels" member.
func (s *FeatureSet) SaveNpz(path string) error {
	labels := make([]int, len(s.Y))
	copy(labels, s.Y)
	return WriteNpz(path, map[string]*tensor.Dense{
		"features": s.X,
		"labels":   tensor.New(tensor.WithShape(len(labels)), tensor.WithBacking(labels)),
	})
}

// LoadFeatureSetNpz reads a feature set written by SaveNpz.
func LoadFeatureSetNpz(path string) (*FeatureSet, error) {
	members, err := ReadNpz(path)
	if err != nil {
		return nil, err
	}
	features, ok := members["features"]
	if !ok {
		return nil, errors.Errorf("%s has no features member", path)
	}
	labels, ok := members["labels"]
	if !ok {
		return nil, errors.Errorf("%s has no labels member", path)
	}
	y, ok := labels.Data().([]int)
	if !ok {
		return nil, errors.Errorf("%s labels hold %v, want int", path, labels.Dtype())
	}
	return NewFeatureSet(features, y)
}
