package peer

import "github.com/yndnr/docmesh-go/internal/core/domain"

// RPC method names shared by every per-kind service.
const (
	MethodListIDs          = "ListIDs"
	MethodGetContent       = "GetContent"
	MethodGetReferencedXSD = "GetReferencedXSD"
	MethodDelete           = "Delete"
)

const servicePrefix = "/docmesh.peer.v1."

var serviceNames = map[domain.Kind]string{
	domain.KindHTML: "HTMLService",
	domain.KindXML:  "XMLService",
	domain.KindXSD:  "XSDService",
	domain.KindXSLT: "XSLTService",
}

// ServicePath returns the URL path prefix of the service for kind,
// e.g. "/docmesh.peer.v1.XMLService/".
func ServicePath(kind domain.Kind) string {
	return servicePrefix + serviceNames[kind] + "/"
}

// Procedure returns the full procedure path of method on kind's service.
func Procedure(kind domain.Kind, method string) string {
	return ServicePath(kind) + method
}
