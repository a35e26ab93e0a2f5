// Package connection provides the docmesh-cli client for a node's
// document HTTP interface.
//
// The node answers one request per connection, so the client disables
// keep-alives. Listing pages are HTML; the client parses them back into
// per-server id groups.
package connection
