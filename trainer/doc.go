// Package trainer orchestrates a full classifier run over labeled image
// sets. It splits the training images, moves every part through
// preprocessing and the frozen convolutional base in batches, caches the
// extracted features as npz archives, and provides the checkpoint and
// resume hooks of head training.
package trainer
