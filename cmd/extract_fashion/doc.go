// Package main provides a program for extracting convolutional features
// from the Fashion-MNIST dataset. It loads the labeled images, writes a
// labeled sample grid, splits off a validation part, pushes every part
// through a pretrained frozen base and caches the resulting feature
// archives for head training.
package main
