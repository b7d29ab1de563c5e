package dynamicimage

import "errors"

// ErrAttachmentNotFound matches every AttachmentNotFoundError with errors.Is.
var ErrAttachmentNotFound = errors.New("attachment not found")

const attachmentNotFoundMessage = "Attachment not found"

// AttachmentNotFoundError reports an image source that does not resolve to
// an attachment. File is the path relative to the upload base URL, or the
// ID as given.
type AttachmentNotFoundError struct {
	Message string
	File    string
}

func (e *AttachmentNotFoundError) Error() string {
	return e.Message + ": " + e.File
}

func (e *AttachmentNotFoundError) Is(target error) bool {
	return target == ErrAttachmentNotFound
}

func newAttachmentNotFound(file string) *AttachmentNotFoundError {
	return &AttachmentNotFoundError{Message: attachmentNotFoundMessage, File: file}
}
