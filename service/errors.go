package service

import "errors"

var ErrTranslatorUnavailable = errors.New("translator unavailable")
