package service

import (
	"context"
	"log/slog"

	"github.com/yndnr/docmesh-go/internal/core/domain"
	"github.com/yndnr/docmesh-go/internal/peer"
	"github.com/yndnr/docmesh-go/internal/storage"
	"github.com/yndnr/docmesh-go/internal/xmlproc"
)

// Service owns one Controller per document kind.
//
// It also implements peer.Source: other nodes see only what this node
// stores locally, and a delete they request cascades exactly like a local
// one.
type Service struct {
	resolvers   map[domain.Kind]*Resolver
	controllers map[domain.Kind]*controller
	engine      xmlproc.Engine
	logger      *slog.Logger
}

var _ peer.Source = (*Service)(nil)

// New builds the controllers over backend. peers may be nil.
func New(backend storage.Backend, peers *peer.Registry, engine xmlproc.Engine, opts Options) *Service {
	s := &Service{
		resolvers:   make(map[domain.Kind]*Resolver),
		controllers: make(map[domain.Kind]*controller),
		engine:      engine,
		logger:      opts.logger(),
	}

	for _, kind := range domain.Kinds() {
		r := NewResolver(kind, backend.Store(kind), peers, opts)
		s.resolvers[kind] = r
		s.controllers[kind] = newController(r)
	}

	s.controllers[domain.KindXSLT].build = s.bindXSD
	s.controllers[domain.KindXML].get = s.transform
	s.controllers[domain.KindXSD].cascade = s.cascadeXSLT

	return s
}

// Controller returns the controller for kind.
func (s *Service) Controller(kind domain.Kind) (Controller, bool) {
	c, ok := s.controllers[kind]
	if !ok {
		return nil, false
	}
	return c, true
}

// Controllers returns every controller in routing order.
func (s *Service) Controllers() []Controller {
	out := make([]Controller, 0, len(s.controllers))
	for _, kind := range domain.Kinds() {
		out = append(out, s.controllers[kind])
	}
	return out
}

// LocalIDs implements peer.Source.
func (s *Service) LocalIDs(ctx context.Context, kind domain.Kind) ([]string, error) {
	r, err := s.resolver(kind)
	if err != nil {
		return nil, err
	}
	return r.LocalIDs(ctx)
}

// LocalDocument implements peer.Source.
func (s *Service) LocalDocument(ctx context.Context, kind domain.Kind, id string) (*domain.Document, error) {
	r, err := s.resolver(kind)
	if err != nil {
		return nil, err
	}
	return r.Local(ctx, id)
}

// DeleteLocal implements peer.Source. Deleting an XSD cascades to the
// XSLT documents bound to it.
func (s *Service) DeleteLocal(ctx context.Context, kind domain.Kind, id string) error {
	c, ok := s.controllers[kind]
	if !ok {
		return domain.ErrPathNotFound.WithDetails(kind.String())
	}
	deleted, err := c.deleteLocal(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.NotFound(id)
	}
	return nil
}

// CountDocuments returns the number of locally stored documents per kind.
func (s *Service) CountDocuments(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, len(s.resolvers))
	for _, kind := range domain.Kinds() {
		ids, err := s.resolvers[kind].LocalIDs(ctx)
		if err != nil {
			return nil, err
		}
		counts[kind.String()] = len(ids)
	}
	return counts, nil
}

func (s *Service) resolver(kind domain.Kind) (*Resolver, error) {
	r, ok := s.resolvers[kind]
	if !ok {
		return nil, domain.ErrPathNotFound.WithDetails(kind.String())
	}
	return r, nil
}
