package heatmap

import "github.com/rotisserie/eris"

// ErrInvalidInput is the root of every error returned by this package.
var ErrInvalidInput = eris.New("heatmap: invalid input")

func invalid(format string, args ...any) error {
	return eris.Wrapf(ErrInvalidInput, format, args...)
}
