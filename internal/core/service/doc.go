// Package service implements the document controllers of a docmesh node.
//
// Every document kind is served by a Controller built on the same Resolver:
// a lookup tries the local store first and then each configured peer in
// order, caching whatever a peer returns. On top of that shared algorithm
// the package adds the kind-specific rules:
//
//   - XSLT documents can only be created against an existing XSD, which is
//     copied in from a peer when it is not held locally.
//   - XML documents can be validated against the XSD an XSLT references and
//     transformed through that XSLT in a single Get.
//   - Deleting an XSD also deletes the local XSLT documents bound to it.
//
// Service ties the controllers together and exposes the node-local view
// other nodes query through the peer package.
package service
