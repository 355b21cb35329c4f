package training

import "errors"

var (
	// ErrForwardNotConverged indicates inverse training was requested before
	// the forward model was trained and frozen.
	ErrForwardNotConverged = errors.New("forward model has not converged")

	// ErrNoTrainingData indicates an empty episode set.
	ErrNoTrainingData = errors.New("no training data")

	// ErrMissingChannel indicates an episode lacks a channel the model needs.
	ErrMissingChannel = errors.New("episode is missing a required channel")

	// ErrUnstableModel indicates a trained model failed the stability check.
	ErrUnstableModel = errors.New("model is unstable")
)
