// Package tests holds multi-node integration tests. Each test wires real
// nodes on loopback: the document engine, the peer server and a store.
package tests
