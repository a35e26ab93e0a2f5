// Package cmap provides a sharded concurrent map keyed by strings.
//
// Each shard carries its own RWMutex, so readers and writers on different
// keys rarely contend. Iteration locks one shard at a time and therefore
// does not observe a consistent snapshot across shards.
//
//	m := cmap.New[*domain.Document]()
//	m.SetIfAbsent(doc.ID, doc)
//	doc, ok := m.Get(id)
package cmap
