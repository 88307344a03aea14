package image

import "errors"

var (
	ErrFileTooLarge        = errors.New(".file-too-large")
	ErrUnsupportedFileType = errors.New(".unsupported-file-type")
)
