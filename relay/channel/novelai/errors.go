package novelai

import "errors"

var (
	ErrUnsupportedHeader = errors.New("Unsupported header")
	ErrEmptyArchive      = errors.New("empty archive")
)
