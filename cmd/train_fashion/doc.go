// Package main provides a program for training the Fashion-MNIST classifier
// head on extracted convolutional features. It reuses cached feature
// archives when they are present, fits the dense head with minibatch
// gradient descent, checkpoints the best validation epoch, and writes the
// trained model, the training history and the accuracy and loss curves.
package main
