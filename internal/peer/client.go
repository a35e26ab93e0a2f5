package peer

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/yndnr/docmesh-go/internal/core/domain"
	"github.com/yndnr/docmesh-go/internal/telemetry/metric"
)

// ClientOptions configures a Client.
type ClientOptions struct {
	// HTTPClient carries the calls. Default: a fresh *http.Client.
	HTTPClient connect.HTTPClient

	// Interceptors are applied to every call.
	Interceptors []connect.Interceptor

	// Metrics receives one observation per call. Optional.
	Metrics *metric.Registry

	Logger *slog.Logger
}

// Client is the Connect binding of Peer.
type Client struct {
	server  Server
	metrics *metric.Registry
	logger  *slog.Logger

	listIDs map[domain.Kind]*connect.Client[emptypb.Empty, structpb.ListValue]
	content map[domain.Kind]*connect.Client[wrapperspb.StringValue, wrapperspb.StringValue]
	remove  map[domain.Kind]*connect.Client[wrapperspb.StringValue, emptypb.Empty]
	xsdRef  *connect.Client[wrapperspb.StringValue, wrapperspb.StringValue]
}

var _ Peer = (*Client)(nil)

// NewClient creates a client for server.
func NewClient(server Server, opts ClientOptions) *Client {
	if server.Timeout <= 0 {
		server.Timeout = DefaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	base := strings.TrimRight(server.Address, "/")
	copts := []connect.ClientOption{connect.WithInterceptors(opts.Interceptors...)}

	c := &Client{
		server:  server,
		metrics: opts.Metrics,
		logger:  logger.With("peer", server.Name),
		listIDs: make(map[domain.Kind]*connect.Client[emptypb.Empty, structpb.ListValue]),
		content: make(map[domain.Kind]*connect.Client[wrapperspb.StringValue, wrapperspb.StringValue]),
		remove:  make(map[domain.Kind]*connect.Client[wrapperspb.StringValue, emptypb.Empty]),
	}
	for _, kind := range domain.Kinds() {
		c.listIDs[kind] = connect.NewClient[emptypb.Empty, structpb.ListValue](
			httpClient, base+Procedure(kind, MethodListIDs), copts...)
		c.content[kind] = connect.NewClient[wrapperspb.StringValue, wrapperspb.StringValue](
			httpClient, base+Procedure(kind, MethodGetContent), copts...)
		c.remove[kind] = connect.NewClient[wrapperspb.StringValue, emptypb.Empty](
			httpClient, base+Procedure(kind, MethodDelete), copts...)
	}
	c.xsdRef = connect.NewClient[wrapperspb.StringValue, wrapperspb.StringValue](
		httpClient, base+Procedure(domain.KindXSLT, MethodGetReferencedXSD), copts...)

	return c
}

// Name returns the configured display name.
func (c *Client) Name() string {
	return c.server.Name
}

// Server returns the peer description the client was built from.
func (c *Client) Server() Server {
	return c.server
}

// ListIDs returns the ids the peer holds for kind.
func (c *Client) ListIDs(ctx context.Context, kind domain.Kind) ([]string, error) {
	var ids []string
	err := c.call(ctx, "list_ids", func(ctx context.Context) error {
		resp, err := c.listIDs[kind].CallUnary(ctx, connect.NewRequest(&emptypb.Empty{}))
		if err != nil {
			return err
		}
		ids = make([]string, 0, len(resp.Msg.GetValues()))
		for _, v := range resp.Msg.GetValues() {
			if s := v.GetStringValue(); s != "" {
				ids = append(ids, s)
			}
		}
		return nil
	})
	return ids, err
}

// Content returns the content of a document the peer holds.
func (c *Client) Content(ctx context.Context, kind domain.Kind, id string) (string, error) {
	var content string
	err := c.call(ctx, "get_content", func(ctx context.Context) error {
		resp, err := c.content[kind].CallUnary(ctx, connect.NewRequest(wrapperspb.String(id)))
		if err != nil {
			return err
		}
		content = resp.Msg.GetValue()
		return nil
	})
	return content, err
}

// ReferencedXSD returns the XSD id an XSLT document on the peer depends on.
func (c *Client) ReferencedXSD(ctx context.Context, xsltID string) (string, error) {
	var ref string
	err := c.call(ctx, "get_referenced_xsd", func(ctx context.Context) error {
		resp, err := c.xsdRef.CallUnary(ctx, connect.NewRequest(wrapperspb.String(xsltID)))
		if err != nil {
			return err
		}
		ref = resp.Msg.GetValue()
		return nil
	})
	return ref, err
}

// Delete removes a document from the peer.
func (c *Client) Delete(ctx context.Context, kind domain.Kind, id string) error {
	return c.call(ctx, "delete", func(ctx context.Context) error {
		_, err := c.remove[kind].CallUnary(ctx, connect.NewRequest(wrapperspb.String(id)))
		return err
	})
}

// call runs fn under the peer timeout and maps Connect errors onto
// ErrNotFound and ErrRemote.
func (c *Client) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.server.Timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	if err != nil {
		if connect.CodeOf(err) == connect.CodeNotFound {
			err = ErrNotFound
		} else {
			err = remoteError(c.server.Name, op, err)
		}
	}
	c.metrics.ObservePeerCall(c.server.Name, op, time.Since(start), err, ErrNotFound)
	return err
}

// IsNotFound reports whether err means the peer does not hold the document.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
