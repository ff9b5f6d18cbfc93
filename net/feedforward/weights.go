package feedforward

import (
	"compress/gzip"
	"encoding/gob"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gorgonia.org/tensor"
)

// WriteCompressedWeightsToFile writes the model weights to a gzip file
func (f *FeedforwardNetwork) WriteCompressedWeightsToFile(name string) error {
	file, err := os.Create(name)
	if err != nil {
		return errors.Wrapf(err, "create weights file %s", name)
	}
	err = f.WriteCompressedWeights(file)
	return multierr.Combine(err, file.Close())
}

// WriteCompressedWeights writes the model weights to a writer as a gzipped
// gob stream of named tensors.
func (f *FeedforwardNetwork) WriteCompressedWeights(w io.Writer) error {
	zw := gzip.NewWriter(w)
	blobs := make(map[string]*tensor.Dense, len(f.Params()))
	for _, p := range f.Params() {
		blobs[p.Name] = tensor.New(tensor.WithShape(p.Shape...), tensor.WithBacking(p.Value))
	}
	if err := gob.NewEncoder(zw).Encode(blobs); err != nil {
		return errors.Wrap(err, "encode weights")
	}
	return zw.Close()
}

// ReadCompressedWeightsFromFile reads the model weights from a gzip file
func (f *FeedforwardNetwork) ReadCompressedWeightsFromFile(name string) error {
	file, err := os.Open(name)
	if err != nil {
		return errors.Wrapf(err, "open weights file %s", name)
	}
	err = f.ReadCompressedWeights(file)
	return multierr.Combine(err, file.Close())
}

// ReadCompressedWeights reads the model weights from a reader and copies
// them into the network parameters. Every network parameter must be present
// in the stream with a matching element count.
func (f *FeedforwardNetwork) ReadCompressedWeights(r io.Reader) error {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return errors.Wrap(err, "open weights stream")
	}
	var blobs map[string]*tensor.Dense
	if err := gob.NewDecoder(zr).Decode(&blobs); err != nil {
		return errors.Wrap(err, "decode weights")
	}
	for _, p := range f.Params() {
		blob, ok := blobs[p.Name]
		if !ok {
			return errors.Errorf("weights stream is missing tensor %q", p.Name)
		}
		data, ok := blob.Data().([]float32)
		if !ok {
			return errors.Errorf("tensor %q holds %v, want float32", p.Name, blob.Dtype())
		}
		if len(data) != p.Size() {
			return errors.Errorf("tensor %q has %d elements, want %d", p.Name, len(data), p.Size())
		}
		copy(p.Value, data)
	}
	return zr.Close()
}
