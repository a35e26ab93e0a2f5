package httpserver

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"strings"

	"github.com/yndnr/docmesh-go/internal/core/domain"
	"github.com/yndnr/docmesh-go/internal/core/service"
	"github.com/yndnr/docmesh-go/internal/telemetry/logger"
)

const formURLEncoded = "application/x-www-form-urlencoded"

// Router dispatches "/{kind}" requests to the controller for the kind.
type Router struct {
	controllers map[domain.Kind]service.Controller
	order       []domain.Kind
	logger      *slog.Logger
}

// NewRouter creates a router over controllers.
func NewRouter(controllers []service.Controller, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	rt := &Router{
		controllers: make(map[domain.Kind]service.Controller, len(controllers)),
		logger:      logger,
	}
	for _, c := range controllers {
		rt.controllers[c.Kind()] = c
		rt.order = append(rt.order, c.Kind())
	}
	return rt
}

// ServeRequest implements Handler.
func (rt *Router) ServeRequest(ctx context.Context, req *Request) *Response {
	segment := strings.TrimPrefix(req.Path, "/")
	if segment == "" {
		return rt.welcome(ctx, req)
	}

	kind, ok := domain.ParseKind(segment)
	c, found := rt.controllers[kind]
	if !ok || !found {
		return errorResponse(ctx, domain.ErrPathNotFound.WithDetails(segment))
	}
	ctx = logger.WithKind(ctx, kind.String())

	var (
		resp *Response
		err  error
	)
	switch req.Method {
	case MethodGet:
		resp, err = rt.get(ctx, c, req)
	case MethodPost:
		resp, err = rt.post(ctx, c, req)
	case MethodDelete:
		resp, err = rt.delete(ctx, c, req)
	default:
		err = domain.ErrMethodNotAllowed.WithDetails(req.Method)
	}
	if err != nil {
		return errorResponse(ctx, err)
	}
	return resp
}

func (rt *Router) get(ctx context.Context, c service.Controller, req *Request) (*Response, error) {
	id, ok := req.Param("uuid")
	if !ok {
		sources, err := c.List(ctx)
		if err != nil {
			return nil, err
		}
		return NewResponse(StatusOK, domain.MIMETypeHTML, listing(sources)), nil
	}

	xslt, _ := req.Param("xslt")
	content, err := c.Get(ctx, id, service.GetOptions{XSLT: xslt})
	if err != nil {
		return nil, err
	}
	return NewResponse(StatusOK, c.MIMEType(), content), nil
}

func (rt *Router) post(ctx context.Context, c service.Controller, req *Request) (*Response, error) {
	name := c.Kind().String()
	content, ok := req.Param(name)
	if !ok {
		return nil, domain.BadRequest("missing %s parameter", name)
	}
	if isFormURLEncoded(req.Header("Content-Type")) {
		decoded, err := url.QueryUnescape(content)
		if err != nil {
			return nil, domain.BadRequest("%s parameter is not properly encoded", name)
		}
		content = decoded
	}

	xsd, _ := req.Param("xsd")
	id, err := c.Create(ctx, content, service.CreateOptions{XSD: xsd})
	if err != nil {
		return nil, err
	}
	body := fmt.Sprintf("Document created successfully: <a href='?uuid=%s'>%s</a>", id, id)
	return NewResponse(StatusCreated, domain.MIMETypeHTML, body), nil
}

func (rt *Router) delete(ctx context.Context, c service.Controller, req *Request) (*Response, error) {
	id, ok := req.Param("uuid")
	if !ok {
		return nil, domain.BadRequest("missing uuid parameter")
	}
	if err := c.Delete(ctx, id); err != nil {
		return nil, err
	}
	return NewResponse(StatusOK, domain.MIMETypeText, "Document deleted successfully\n"), nil
}

func (rt *Router) welcome(ctx context.Context, req *Request) *Response {
	if req.Method != MethodGet {
		return errorResponse(ctx, domain.ErrMethodNotAllowed.WithDetails(req.Method))
	}

	var b strings.Builder
	b.WriteString("<html><head><title>docmesh</title></head><body>")
	b.WriteString("<h1>docmesh</h1><ul>")
	for _, kind := range rt.order {
		fmt.Fprintf(&b, "<li><a href='/%s'>%s</a></li>", kind, strings.ToUpper(kind.String()))
	}
	b.WriteString("</ul></body></html>")
	return NewResponse(StatusOK, domain.MIMETypeHTML, b.String())
}

// listing renders the sources as one section per node.
func listing(sources []service.Source) string {
	var b strings.Builder
	b.WriteString("<html><head><title>File Listing</title></head><body>")
	for _, src := range sources {
		b.WriteString("<h2>" + html.EscapeString(src.Name) + "</h2>")
		b.WriteString("<ul>")
		for _, id := range src.IDs {
			id = html.EscapeString(id)
			b.WriteString("<li><a href='?uuid=" + id + "'>" + id + "</a></li>")
		}
		b.WriteString("</ul>")
	}
	b.WriteString("</body></html>")
	return b.String()
}

// errorResponse maps a domain error to its status and message.
func errorResponse(ctx context.Context, err error) *Response {
	status := domain.StatusCode(err)

	var de *domain.DomainError
	if !errors.As(err, &de) {
		de = domain.ServerError("internal error", err)
	}

	var body string
	switch de.Code {
	case domain.CodeBadRequest, domain.CodeMalformedRequest:
		body = "Invalid request: " + de.Describe()
	case domain.CodeDocumentNotFound:
		body = "Document not found: " + de.Details
	case domain.CodePathNotFound:
		body = "Path not found: /" + de.Details
	case domain.CodeMethodNotAllowed:
		body = "Method not allowed: " + de.Details
	default:
		body = "Server error: " + de.Describe()
	}

	if status >= StatusInternalServerError {
		logger.L(ctx).Error("request failed", "status", status, "error", err)
	} else {
		logger.L(ctx).Debug("request rejected", "status", status, "error", err)
	}
	return NewResponse(status, domain.MIMETypeText, body)
}

func isFormURLEncoded(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return strings.EqualFold(strings.TrimSpace(mediaType), formURLEncoded)
}
