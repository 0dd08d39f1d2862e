package models

import "io"

// Upload is an image submitted with a form.
type Upload struct {
	Filename    string
	ContentType string
	Content     io.Reader
}
