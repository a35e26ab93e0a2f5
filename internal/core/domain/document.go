package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Kind identifies one of the four document namespaces.
type Kind string

// Document kinds. The string value doubles as the HTTP path segment
// and the store namespace.
const (
	KindHTML Kind = "html"
	KindXML  Kind = "xml"
	KindXSD  Kind = "xsd"
	KindXSLT Kind = "xslt"
)

// MIME types served for each document kind.
const (
	MIMETypeHTML = "text/html;charset=UTF-8"
	MIMETypeXML  = "text/xml;charset=UTF-8"
	MIMETypeText = "text/plain;charset=UTF-8"
)

// Kinds returns every document kind in routing order.
func Kinds() []Kind {
	return []Kind{KindHTML, KindXML, KindXSD, KindXSLT}
}

// ParseKind converts a path segment into a Kind.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(strings.TrimSpace(s)); k {
	case KindHTML, KindXML, KindXSD, KindXSLT:
		return k, true
	default:
		return "", false
	}
}

// String returns the path segment for the kind.
func (k Kind) String() string {
	return string(k)
}

// MIMEType returns the Content-Type used when serving documents of this kind.
func (k Kind) MIMEType() string {
	if k == KindHTML {
		return MIMETypeHTML
	}
	return MIMETypeXML
}

// Document is a text blob of one kind, identified by a UUID that is unique
// within the kind's namespace.
type Document struct {
	// ID is the document UUID.
	ID string `json:"id"`

	// Kind is the namespace the document lives in.
	Kind Kind `json:"kind"`

	// Content is the raw document text.
	Content string `json:"content"`

	// XSDRef is the UUID of the XSD an XSLT document depends on.
	// Empty for every other kind.
	XSDRef string `json:"xsd_ref,omitempty"`
}

// NewDocument creates a document of the given kind with a fresh UUID.
func NewDocument(kind Kind, content string) *Document {
	return &Document{
		ID:      NewID(),
		Kind:    kind,
		Content: content,
	}
}

// NewXSLTDocument creates an XSLT document bound to the XSD with id xsdRef.
func NewXSLTDocument(xsdRef, content string) *Document {
	d := NewDocument(KindXSLT, content)
	d.XSDRef = xsdRef
	return d
}

// NewID generates a new random document identifier.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether s is a well-formed document identifier.
func ValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
