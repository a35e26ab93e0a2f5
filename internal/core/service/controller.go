package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/yndnr/docmesh-go/internal/core/domain"
	"github.com/yndnr/docmesh-go/internal/telemetry/metric"
)

// Options configures the controllers built by New.
type Options struct {
	// Metrics records store operations. Nil disables recording.
	Metrics *metric.Registry

	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// GetOptions carries the optional parameters of a Get.
type GetOptions struct {
	// XSLT is the id of the stylesheet an XML document is transformed
	// through. Ignored by every other kind.
	XSLT string
}

// CreateOptions carries the optional parameters of a Create.
type CreateOptions struct {
	// XSD is the id of the schema an XSLT document is bound to. Required for
	// XSLT, ignored by every other kind.
	XSD string
}

// Controller serves the operations of one document kind.
//
// Errors are domain errors: Document-Not-Found when a document is absent
// locally and on every peer, Bad-Request for an invalid operation and
// Server-Error for storage or processing faults.
type Controller interface {
	// Kind returns the kind this controller serves.
	Kind() domain.Kind

	// MIMEType returns the Content-Type documents are served with.
	MIMEType() string

	// List returns the local ids first, then one entry per peer.
	List(ctx context.Context) ([]Source, error)

	// Get returns the content of the document with id.
	Get(ctx context.Context, id string, opts GetOptions) (string, error)

	// Create stores a new document and returns its id.
	Create(ctx context.Context, content string, opts CreateOptions) (string, error)

	// Delete removes the document with id locally and from every peer
	// that holds it.
	Delete(ctx context.Context, id string) error
}

// controller is the Controller for a single kind. The kind-specific rules
// are plugged in as functions rather than by type.
type controller struct {
	*Resolver

	// build turns create input into a document ready to persist.
	build func(ctx context.Context, content string, opts CreateOptions) (*domain.Document, error)

	// get overrides Get when set; it falls back to the plain lookup by
	// returning handled=false.
	get func(ctx context.Context, id string, opts GetOptions) (content string, handled bool, err error)

	// cascade runs after a successful local delete.
	cascade func(ctx context.Context, id string) error
}

func newController(r *Resolver) *controller {
	c := &controller{Resolver: r}
	c.build = c.buildDocument
	return c
}

// MIMEType returns the Content-Type documents are served with.
func (c *controller) MIMEType() string {
	return c.kind.MIMEType()
}

// Get returns the content of the document with id.
func (c *controller) Get(ctx context.Context, id string, opts GetOptions) (string, error) {
	if c.get != nil {
		content, handled, err := c.get(ctx, id, opts)
		if handled {
			return content, err
		}
	}
	doc, err := c.Resolve(ctx, id)
	if err != nil {
		return "", err
	}
	return doc.Content, nil
}

// Create stores a new document and returns its id.
func (c *controller) Create(ctx context.Context, content string, opts CreateOptions) (string, error) {
	doc, err := c.build(ctx, content, opts)
	if err != nil {
		return "", err
	}
	if err := c.Resolver.Create(ctx, doc); err != nil {
		return "", err
	}
	return doc.ID, nil
}

// Delete removes the document locally, cascading when the kind requires
// it, and then on every peer that lists it.
func (c *controller) Delete(ctx context.Context, id string) error {
	local, err := c.deleteLocal(ctx, id)
	if err != nil {
		return err
	}
	remote := c.DeleteRemote(ctx, id)
	if !local && !remote {
		return domain.NotFound(id)
	}
	return nil
}

// deleteLocal deletes id from the local store and runs the cascade.
// The parent is removed first; a failing cascade leaves it removed.
func (c *controller) deleteLocal(ctx context.Context, id string) (bool, error) {
	deleted, err := c.DeleteLocal(ctx, id)
	if err != nil || !deleted {
		return deleted, err
	}
	if c.cascade != nil {
		if err := c.cascade(ctx, id); err != nil {
			return true, err
		}
	}
	return true, nil
}

func (c *controller) buildDocument(_ context.Context, content string, _ CreateOptions) (*domain.Document, error) {
	return domain.NewDocument(c.kind, content), nil
}

// isNotFound reports whether err is a Document-Not-Found error.
func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrDocumentNotFound)
}
