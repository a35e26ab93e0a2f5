// Package peer implements the node-to-node document contract.
//
// A Peer answers four questions about its local stores: which ids it holds
// for a kind, the content of one document, the XSD an XSLT depends on, and
// a request to delete a document. Peers never federate on behalf of a
// caller; they only report what they hold locally.
//
// The contract is bound to Connect RPC. Each document kind is its own
// service, mirroring the per-kind endpoints nodes expose:
//
//	/docmesh.peer.v1.HTMLService/ListIDs
//	/docmesh.peer.v1.XMLService/GetContent
//	/docmesh.peer.v1.XSLTService/GetReferencedXSD
//	/docmesh.peer.v1.XSDService/Delete
//
// Messages are protobuf well-known types (wrapperspb, structpb, emptypb), so
// no generated code is required on either side.
package peer
