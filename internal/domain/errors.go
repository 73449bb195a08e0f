package domain

import "errors"

var (
	ErrRecordNotFound         = errors.New("invoice record not found")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrForbidden              = errors.New("forbidden")
	ErrUnsupportedFileType    = errors.New("unsupported file type")
	ErrFileTooLarge           = errors.New("file exceeds maximum allowed size")
	ErrUploadFailed           = errors.New("file upload to storage failed")
	ErrInvalidDecision        = errors.New("decision must be approved or rejected")
	ErrInvalidStateTransition = errors.New("record is not in a state that allows this transition")
	ErrRecordNotRetryable     = errors.New("record is not eligible for retry")
)
