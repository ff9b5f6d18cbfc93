// Package main provides a program for running the trained Fashion-MNIST
// classifier. It scores the whole test set and writes the classification
// report, the confusion matrix and a labeled prediction grid, or classifies
// a single image file when one is given.
package main
