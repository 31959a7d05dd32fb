package apikey

import "errors"

var (
	ErrReferenceNotFound = errors.New("user not found")
	ErrPersistence       = errors.New("api key persistence failed")
)
