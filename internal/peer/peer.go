package peer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yndnr/docmesh-go/internal/core/domain"
)

// Errors returned by Peer implementations.
var (
	// ErrNotFound means the peer answered and does not hold the document.
	ErrNotFound = errors.New("peer: document not found")

	// ErrRemote wraps any other failure: transport errors, timeouts and
	// faults reported by the remote node.
	ErrRemote = errors.New("peer: remote error")
)

// DefaultTimeout bounds every call to a peer that has no explicit timeout.
const DefaultTimeout = 5 * time.Second

// Server describes a configured peer node. It is read-only after startup.
type Server struct {
	// Name is the unique display name; listings group ids under it.
	Name string

	// Address is the base URL of the peer's RPC endpoint,
	// e.g. "http://10.0.0.2:8889".
	Address string

	// Timeout bounds each call made to this peer.
	Timeout time.Duration
}

// Peer is a remote node as seen by the document service.
type Peer interface {
	// Name returns the configured display name.
	Name() string

	// ListIDs returns the ids the peer holds locally for kind.
	ListIDs(ctx context.Context, kind domain.Kind) ([]string, error)

	// Content returns the content of a document the peer holds locally.
	Content(ctx context.Context, kind domain.Kind, id string) (string, error)

	// ReferencedXSD returns the XSD id an XSLT document depends on.
	ReferencedXSD(ctx context.Context, xsltID string) (string, error)

	// Delete removes a document from the peer's local store.
	Delete(ctx context.Context, kind domain.Kind, id string) error
}

// remoteError wraps err so it matches ErrRemote while keeping the cause.
func remoteError(peer, op string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrRemote, peer, op, err)
}
