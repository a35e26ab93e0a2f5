package service

import (
	"context"
	"errors"

	"github.com/yndnr/docmesh-go/internal/core/domain"
	"github.com/yndnr/docmesh-go/internal/xmlproc"
)

// bindXSD requires every XSLT to reference an existing XSD. An XSD held
// only by a peer is copied into the local store before the XSLT is built.
func (s *Service) bindXSD(ctx context.Context, content string, opts CreateOptions) (*domain.Document, error) {
	if opts.XSD == "" {
		return nil, domain.ErrDocumentNotFound.WithDetails("missing xsd parameter")
	}

	xsds := s.resolvers[domain.KindXSD]
	if _, err := xsds.Resolve(ctx, opts.XSD); err != nil {
		if isNotFound(err) {
			s.logger.Info("xslt rejected, referenced xsd not found", "xsd", opts.XSD)
		}
		return nil, err
	}
	return domain.NewXSLTDocument(opts.XSD, content), nil
}

// transform validates the XML document against the schema its stylesheet
// references and returns the transformed output. Without an xslt option
// the plain lookup applies.
func (s *Service) transform(ctx context.Context, id string, opts GetOptions) (string, bool, error) {
	if opts.XSLT == "" {
		return "", false, nil
	}

	doc, err := s.resolvers[domain.KindXML].Resolve(ctx, id)
	if err != nil {
		return "", true, err
	}

	stylesheet, err := s.resolvers[domain.KindXSLT].Resolve(ctx, opts.XSLT)
	if err != nil {
		return "", true, err
	}

	schema, err := s.resolvers[domain.KindXSD].Resolve(ctx, stylesheet.XSDRef)
	if err != nil {
		if isNotFound(err) {
			return "", true, domain.BadRequest("referenced XSD not found: %s", stylesheet.XSDRef).WithCause(err)
		}
		return "", true, err
	}

	if err := s.engine.Validate(doc.Content, schema.Content); err != nil {
		s.logger.Debug("xml validation failed", "xml", id, "xsd", schema.ID, "error", err)
		switch {
		case errors.Is(err, xmlproc.ErrInvalidXML):
			return "", true, domain.BadRequest("invalid XML").WithCause(err)
		case errors.Is(err, xmlproc.ErrInvalidSchema):
			return "", true, domain.BadRequest("invalid XSD: %s", schema.ID).WithCause(err)
		}
		return "", true, domain.ServerError("validating XML", err)
	}

	out, err := s.engine.Transform(doc.Content, stylesheet.Content)
	if err != nil {
		return "", true, domain.ServerError("transforming XML", err)
	}
	return out, true, nil
}

// cascadeXSLT deletes every local XSLT bound to the XSD with id.
func (s *Service) cascadeXSLT(ctx context.Context, xsdID string) error {
	xslts := s.resolvers[domain.KindXSLT]
	ids, err := xslts.LocalIDs(ctx)
	if err != nil {
		return err
	}

	for _, id := range ids {
		doc, err := xslts.Local(ctx, id)
		if isNotFound(err) {
			continue
		}
		if err != nil {
			return err
		}
		if doc.XSDRef != xsdID {
			continue
		}
		if _, err := xslts.DeleteLocal(ctx, id); err != nil {
			return err
		}
		s.logger.Info("deleted xslt bound to xsd", "xslt", id, "xsd", xsdID)
	}
	return nil
}
