package domain

import "errors"

// ErrNodeNotFound is returned when a node ID is not registered.
var ErrNodeNotFound = errors.New("node not found")

// ErrInvalidArguments wraps schema validation failures of a call.
var ErrInvalidArguments = errors.New("invalid arguments")

// ErrNoFrames is returned when an image directory holds no matching files.
var ErrNoFrames = errors.New("no frames found")

// ErrNotEnoughFrames is returned when fewer frames than required are found.
var ErrNotEnoughFrames = errors.New("not enough frames")

// ErrUnsupportedPairing is returned for a container/codec combination that cannot be encoded.
var ErrUnsupportedPairing = errors.New("unsupported container/codec pairing")

// ErrOutOfBounds is returned when an overlay would land entirely outside the base image.
var ErrOutOfBounds = errors.New("overlay outside base image")

// ErrTextDoesNotFit is returned when text does not fit the canvas even at the smallest size.
var ErrTextDoesNotFit = errors.New("text does not fit the canvas")
