// Package service provides content-type detection for uploaded artifacts.
package service

import (
	"github.com/gabriel-vasile/mimetype"

	artifactDomain "github.com/allisson/billvault/internal/artifact/domain"
)

// Sniffer detects the true content type of a payload from its byte signature.
// Caller-supplied names and MIME headers are never consulted.
type Sniffer interface {
	Sniff(data []byte) (detected string, ct artifactDomain.ContentType, allowed bool)
}

// extraNames lists other MIME names a detector may report for an allow-listed type.
var extraNames = map[string][]string{
	artifactDomain.ContentTypePDF.MIME: {"application/x-pdf"},
	artifactDomain.ContentTypeXML.MIME: {"text/xml"},
}

type mimeSniffer struct {
	allowed []artifactDomain.ContentType
}

// NewSniffer creates a Sniffer over the allow-list.
func NewSniffer() Sniffer {
	return &mimeSniffer{allowed: artifactDomain.AllowedContentTypes}
}

// Sniff returns the detected MIME type and, when it is allow-listed, the
// matching ContentType. Only the exact detected type counts: a format derived
// from an allowed one (SVG from XML, for instance) is not accepted.
func (s *mimeSniffer) Sniff(data []byte) (string, artifactDomain.ContentType, bool) {
	detected := mimetype.Detect(data)

	for _, ct := range s.allowed {
		if detected.Is(ct.MIME) {
			return detected.String(), ct, true
		}
		for _, name := range extraNames[ct.MIME] {
			if detected.Is(name) {
				return detected.String(), ct, true
			}
		}
	}

	return detected.String(), artifactDomain.ContentType{}, false
}
