package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/yndnr/docmesh-go/internal/core/domain"
	"github.com/yndnr/docmesh-go/internal/peer"
	"github.com/yndnr/docmesh-go/internal/storage"
	"github.com/yndnr/docmesh-go/internal/telemetry/metric"
)

// LocalSourceName is the listing entry under which local ids are grouped.
const LocalSourceName = "Local Server"

// Source is one entry of a listing: the ids a single node holds.
type Source struct {
	Name string   `json:"name" yaml:"name"`
	IDs  []string `json:"ids" yaml:"ids"`
}

// FetchFunc retrieves a document the peer is known to hold.
type FetchFunc func(ctx context.Context, p peer.Peer, kind domain.Kind, id string) (*domain.Document, error)

// fetchContent is the FetchFunc for kinds whose document is just content.
func fetchContent(ctx context.Context, p peer.Peer, kind domain.Kind, id string) (*domain.Document, error) {
	content, err := p.Content(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	return &domain.Document{ID: id, Kind: kind, Content: content}, nil
}

// fetchXSLT also asks the peer which XSD the stylesheet is bound to.
func fetchXSLT(ctx context.Context, p peer.Peer, kind domain.Kind, id string) (*domain.Document, error) {
	doc, err := fetchContent(ctx, p, kind, id)
	if err != nil {
		return nil, err
	}
	if doc.XSDRef, err = p.ReferencedXSD(ctx, id); err != nil {
		return nil, err
	}
	return doc, nil
}

// Resolver implements the lookup algorithm shared by every kind: the local
// store first, then each peer in configured order.
//
// A document found on a peer is persisted locally before it is returned,
// so later lookups never leave the node. Peer failures never fail a
// lookup; the peer is skipped and the fault logged.
type Resolver struct {
	kind    domain.Kind
	store   storage.Store
	peers   *peer.Registry
	fetch   FetchFunc
	metrics *metric.Registry
	logger  *slog.Logger
}

// NewResolver creates a resolver for kind over store and peers. peers may
// be nil for a node without federation.
func NewResolver(kind domain.Kind, store storage.Store, peers *peer.Registry, opts Options) *Resolver {
	fetch := fetchContent
	if kind == domain.KindXSLT {
		fetch = fetchXSLT
	}
	return &Resolver{
		kind:    kind,
		store:   store,
		peers:   peers,
		fetch:   fetch,
		metrics: opts.Metrics,
		logger:  opts.logger().With("kind", kind.String()),
	}
}

// Kind returns the kind the resolver serves.
func (r *Resolver) Kind() domain.Kind {
	return r.kind
}

// LocalIDs returns the ids held in the local store.
func (r *Resolver) LocalIDs(ctx context.Context) ([]string, error) {
	ids, err := r.store.List(ctx)
	r.observe("list", err)
	if err != nil {
		return nil, r.storeError("listing documents", err)
	}
	return ids, nil
}

// Local returns the locally stored document with id, or a Not-Found error.
func (r *Resolver) Local(ctx context.Context, id string) (*domain.Document, error) {
	doc, err := r.store.Get(ctx, id)
	r.observe("get", err)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, domain.NotFound(id)
	}
	if err != nil {
		return nil, r.storeError("reading document "+id, err)
	}
	return doc, nil
}

// List returns the local ids followed by one entry per peer. A peer that
// fails to answer contributes an empty entry.
func (r *Resolver) List(ctx context.Context) ([]Source, error) {
	local, err := r.LocalIDs(ctx)
	if err != nil {
		return nil, err
	}

	sources := make([]Source, 0, 1+r.peers.Len())
	sources = append(sources, Source{Name: LocalSourceName, IDs: local})

	for _, p := range r.peers.Peers() {
		ids, err := p.ListIDs(ctx, r.kind)
		if err != nil {
			r.logger.Warn("peer listing failed", "peer", p.Name(), "error", err)
			ids = []string{}
		}
		sources = append(sources, Source{Name: p.Name(), IDs: ids})
	}
	return sources, nil
}

// Resolve returns the document with id from the local store or, failing
// that, from the first peer that lists it. Remote documents are cached.
func (r *Resolver) Resolve(ctx context.Context, id string) (*domain.Document, error) {
	doc, err := r.Local(ctx, id)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		return nil, err
	}

	doc, p, err := r.Remote(ctx, id)
	if err != nil {
		return nil, err
	}
	r.cache(ctx, doc, p)
	return doc, nil
}

// Remote returns the document with id from the first peer that lists it,
// together with that peer. The document is not cached.
func (r *Resolver) Remote(ctx context.Context, id string) (*domain.Document, peer.Peer, error) {
	for _, p := range r.peers.Peers() {
		if err := ctx.Err(); err != nil {
			return nil, nil, domain.ServerError("request cancelled", err)
		}

		ids, err := p.ListIDs(ctx, r.kind)
		if err != nil {
			r.logger.Warn("peer listing failed", "peer", p.Name(), "error", err)
			continue
		}
		if !slices.Contains(ids, id) {
			continue
		}

		doc, err := r.fetch(ctx, p, r.kind, id)
		if err != nil {
			// The peer listed the id but lost it in between; move on.
			r.logger.Warn("peer fetch failed", "peer", p.Name(), "id", id, "error", err)
			continue
		}
		return doc, p, nil
	}
	return nil, nil, domain.NotFound(id)
}

// Create persists doc in the local store.
func (r *Resolver) Create(ctx context.Context, doc *domain.Document) error {
	err := r.store.Create(ctx, doc)
	r.observe("create", err)
	if err != nil {
		return r.storeError("storing document "+doc.ID, err)
	}
	r.logger.Debug("document created", "id", doc.ID)
	return nil
}

// DeleteLocal removes the document with id from the local store and
// reports whether it was there.
func (r *Resolver) DeleteLocal(ctx context.Context, id string) (bool, error) {
	err := r.store.Delete(ctx, id)
	r.observe("delete", err)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, r.storeError("deleting document "+id, err)
	}
	r.logger.Debug("document deleted", "id", id)
	return true, nil
}

// DeleteRemote deletes id on every peer that lists it and reports whether
// any peer did. Failing peers are logged and skipped.
func (r *Resolver) DeleteRemote(ctx context.Context, id string) bool {
	deleted := false
	for _, p := range r.peers.Peers() {
		ids, err := p.ListIDs(ctx, r.kind)
		if err != nil {
			r.logger.Warn("peer listing failed", "peer", p.Name(), "error", err)
			continue
		}
		if !slices.Contains(ids, id) {
			continue
		}

		deleted = true
		if err := p.Delete(ctx, r.kind, id); err != nil && !peer.IsNotFound(err) {
			r.logger.Warn("peer delete failed", "peer", p.Name(), "id", id, "error", err)
		}
	}
	return deleted
}

// cache stores a document fetched from p. A concurrent request may have
// cached it first, which is fine. Any other failure only costs a refetch.
func (r *Resolver) cache(ctx context.Context, doc *domain.Document, p peer.Peer) {
	err := r.store.Create(ctx, doc)
	r.observe("create", err)
	switch {
	case err == nil:
		r.logger.Info("cached remote document", "id", doc.ID, "peer", p.Name())
	case errors.Is(err, storage.ErrExists):
	default:
		r.logger.Error("caching remote document failed", "id", doc.ID, "peer", p.Name(), "error", err)
	}
}

func (r *Resolver) observe(op string, err error) {
	r.metrics.ObserveStoreOp(r.kind.String(), op, err, storage.ErrNotFound)
}

func (r *Resolver) storeError(details string, err error) error {
	r.logger.Error("store operation failed", "details", details, "error", err)
	return domain.ServerError(details, err)
}
