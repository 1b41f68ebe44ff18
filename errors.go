package volcast

import "errors"

var (
	// ErrNoInput is returned by Render before SetInput was given a grid.
	ErrNoInput = errors.New("volcast: no input grid")
	// ErrRendererFailed wraps the error that latched a mapper. Only Reset clears it.
	ErrRendererFailed = errors.New("volcast: renderer failed, reset required")
	// ErrRendererInitialized rejects settings that are fixed once the program exists.
	ErrRendererInitialized = errors.New("volcast: renderer already initialized")
)
