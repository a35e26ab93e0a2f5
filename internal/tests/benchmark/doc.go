// Package benchmark provides performance benchmarks for docmesh.
//
// Run benchmarks with:
//
//	go test -bench=. -benchmem ./internal/tests/benchmark/...
//
// Compare backends:
//
//	go test -bench=BenchmarkStore -benchmem -count=5 ./internal/tests/benchmark/... | tee store.txt
//
// Compare results:
//
//	benchstat old.txt new.txt
package benchmark
