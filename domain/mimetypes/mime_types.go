package mimetypes

import (
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Family is the top-level media type of an attachment.
type Family string

const (
	Unknown     Family = "unknown"
	Image       Family = "image"
	Video       Family = "video"
	Audio       Family = "audio"
	Text        Family = "text"
	Application Family = "application"
)

// FamilyOf parses a declared content type, parameters included.
func FamilyOf(contentType string) Family {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return Unknown
	}
	top, _, _ := strings.Cut(mt, "/")
	switch f := Family(top); f {
	case Image, Video, Audio, Text, Application:
		return f
	default:
		return Unknown
	}
}

// Resolve prefers the declared content type and sniffs the sample otherwise.
func Resolve(contentType string, sample []byte) Family {
	if contentType != "" {
		return FamilyOf(contentType)
	}
	if len(sample) == 0 {
		return Unknown
	}
	return FamilyOf(mimetype.Detect(sample).String())
}
