package backup

import "errors"

var (
	ErrNothingToBackup   = errors.New("nothing to back up: check source paths")
	ErrInsufficientSpace = errors.New("insufficient free space at output location")
)
