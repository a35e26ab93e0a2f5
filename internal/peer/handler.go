package peer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/yndnr/docmesh-go/internal/core/domain"
)

// Source is the node-local view a Handler exposes to other nodes.
//
// Implementations must not consult peers: a Handler answers only for what
// this node holds, so federation never loops between nodes. A missing
// document is reported as a domain Document-Not-Found error.
type Source interface {
	LocalIDs(ctx context.Context, kind domain.Kind) ([]string, error)
	LocalDocument(ctx context.Context, kind domain.Kind, id string) (*domain.Document, error)
	DeleteLocal(ctx context.Context, kind domain.Kind, id string) error
}

// Handler serves the peer contract for a Source.
type Handler struct {
	source Source
	logger *slog.Logger
}

// NewHandler creates a handler over source.
func NewHandler(source Source, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		source: source,
		logger: logger,
	}
}

// Mount registers every per-kind procedure on mux.
func (h *Handler) Mount(mux *http.ServeMux, opts ...connect.HandlerOption) {
	for _, kind := range domain.Kinds() {
		kind := kind

		mux.Handle(Procedure(kind, MethodListIDs), connect.NewUnaryHandler(
			Procedure(kind, MethodListIDs),
			func(ctx context.Context, _ *connect.Request[emptypb.Empty]) (*connect.Response[structpb.ListValue], error) {
				return h.listIDs(ctx, kind)
			}, opts...))

		mux.Handle(Procedure(kind, MethodGetContent), connect.NewUnaryHandler(
			Procedure(kind, MethodGetContent),
			func(ctx context.Context, req *connect.Request[wrapperspb.StringValue]) (*connect.Response[wrapperspb.StringValue], error) {
				return h.getContent(ctx, kind, req.Msg.GetValue())
			}, opts...))

		mux.Handle(Procedure(kind, MethodDelete), connect.NewUnaryHandler(
			Procedure(kind, MethodDelete),
			func(ctx context.Context, req *connect.Request[wrapperspb.StringValue]) (*connect.Response[emptypb.Empty], error) {
				return h.delete(ctx, kind, req.Msg.GetValue())
			}, opts...))
	}

	mux.Handle(Procedure(domain.KindXSLT, MethodGetReferencedXSD), connect.NewUnaryHandler(
		Procedure(domain.KindXSLT, MethodGetReferencedXSD),
		h.getReferencedXSD, opts...))
}

func (h *Handler) listIDs(ctx context.Context, kind domain.Kind) (*connect.Response[structpb.ListValue], error) {
	ids, err := h.source.LocalIDs(ctx, kind)
	if err != nil {
		return nil, h.toConnectError(kind, "", err)
	}
	values := make([]*structpb.Value, 0, len(ids))
	for _, id := range ids {
		values = append(values, structpb.NewStringValue(id))
	}
	return connect.NewResponse(&structpb.ListValue{Values: values}), nil
}

func (h *Handler) getContent(ctx context.Context, kind domain.Kind, id string) (*connect.Response[wrapperspb.StringValue], error) {
	if id == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("id is required"))
	}
	doc, err := h.source.LocalDocument(ctx, kind, id)
	if err != nil {
		return nil, h.toConnectError(kind, id, err)
	}
	return connect.NewResponse(wrapperspb.String(doc.Content)), nil
}

func (h *Handler) getReferencedXSD(ctx context.Context, req *connect.Request[wrapperspb.StringValue]) (*connect.Response[wrapperspb.StringValue], error) {
	id := req.Msg.GetValue()
	if id == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("id is required"))
	}
	doc, err := h.source.LocalDocument(ctx, domain.KindXSLT, id)
	if err != nil {
		return nil, h.toConnectError(domain.KindXSLT, id, err)
	}
	return connect.NewResponse(wrapperspb.String(doc.XSDRef)), nil
}

func (h *Handler) delete(ctx context.Context, kind domain.Kind, id string) (*connect.Response[emptypb.Empty], error) {
	if id == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("id is required"))
	}
	if err := h.source.DeleteLocal(ctx, kind, id); err != nil {
		return nil, h.toConnectError(kind, id, err)
	}
	h.logger.Info("document deleted on peer request", "kind", kind, "id", id)
	return connect.NewResponse(&emptypb.Empty{}), nil
}

func (h *Handler) toConnectError(kind domain.Kind, id string, err error) error {
	if domain.IsDomainError(err, domain.CodeDocumentNotFound) {
		return connect.NewError(connect.CodeNotFound, fmt.Errorf("%s document %s not found", kind, id))
	}
	h.logger.Error("peer request failed", "kind", kind, "id", id, "error", err)
	return connect.NewError(connect.CodeInternal, errors.New("internal error"))
}
