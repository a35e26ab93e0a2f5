package xmlproc

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lestrrat-go/libxml2"
	"github.com/lestrrat-go/libxml2/xsd"
	"github.com/wamuir/go-xslt"
)

// Errors returned by Engine implementations.
var (
	// ErrInvalidXML is returned when the document does not parse or fails
	// schema validation.
	ErrInvalidXML = errors.New("invalid XML")

	// ErrInvalidSchema is returned when the XSD itself cannot be compiled.
	ErrInvalidSchema = errors.New("invalid XSD")

	// ErrTransform is returned when the stylesheet does not compile or the
	// transformation fails.
	ErrTransform = errors.New("transform failed")
)

// Engine validates and transforms XML text.
type Engine interface {
	// Validate checks xml against the schema in xsdText.
	Validate(xml, xsdText string) error

	// Transform applies the stylesheet in xsltText to xml.
	Transform(xml, xsltText string) (string, error)
}

// LibXML is the libxml2/libxslt backed Engine. It is safe for concurrent use;
// every call compiles its own schema and stylesheet.
type LibXML struct {
	logger *slog.Logger
}

// NewLibXML creates a LibXML engine.
func NewLibXML(logger *slog.Logger) *LibXML {
	if logger == nil {
		logger = slog.Default()
	}
	return &LibXML{logger: logger}
}

// Validate checks xml against the schema in xsdText.
func (e *LibXML) Validate(xml, xsdText string) error {
	if strings.TrimSpace(xsdText) == "" {
		return fmt.Errorf("%w: empty schema", ErrInvalidSchema)
	}
	diag, err := captureDiagnostics(func() error {
		return e.validate(xml, xsdText)
	})
	e.report("validate", diag)
	return err
}

func (e *LibXML) validate(xml, xsdText string) error {
	schema, err := xsd.Parse([]byte(xsdText))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	defer schema.Free()

	doc, err := libxml2.ParseString(xml)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidXML, err)
	}
	defer doc.Free()

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidXML, err)
	}
	return nil
}

// Transform applies the stylesheet in xsltText to xml.
func (e *LibXML) Transform(xml, xsltText string) (string, error) {
	var out []byte
	diag, err := captureDiagnostics(func() error {
		xs, err := xslt.NewStylesheet([]byte(xsltText))
		if err != nil {
			return fmt.Errorf("%w: compile stylesheet: %v", ErrTransform, err)
		}
		defer xs.Close()

		out, err = xs.Transform([]byte(xml))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTransform, err)
		}
		return nil
	})
	e.report("transform", diag)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// report logs whatever libxml2 wrote to its error channel during op.
func (e *LibXML) report(op, diag string) {
	if diag == "" {
		return
	}
	e.logger.Debug("libxml2 diagnostics", "op", op, "detail", diag)
}
