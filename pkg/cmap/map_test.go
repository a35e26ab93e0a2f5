package cmap

import (
	"fmt"
	"sort"
	"sync"
	"testing"
)

func TestNewWithShards(t *testing.T) {
	tests := []struct {
		input    int
		expected int
	}{
		{0, DefaultShardCount},
		{-1, DefaultShardCount},
		{3, DefaultShardCount},
		{1, 1},
		{4, 4},
		{32, 32},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("shards=%d", tt.input), func(t *testing.T) {
			m := NewWithShards[int](tt.input)
			if len(m.shards) != tt.expected {
				t.Errorf("NewWithShards(%d) shard count = %d, want %d",
					tt.input, len(m.shards), tt.expected)
			}
		})
	}
}

func TestSetAndGet(t *testing.T) {
	m := New[int]()
	m.Set("key1", 100)
	m.Set("key1", 101)

	if val, ok := m.Get("key1"); !ok || val != 101 {
		t.Errorf("Get(key1) = (%d, %v), want (101, true)", val, ok)
	}
	if _, ok := m.Get("nonexistent"); ok {
		t.Error("Get(nonexistent) should report false")
	}
}

func TestSetIfAbsent(t *testing.T) {
	m := New[string]()

	if !m.SetIfAbsent("a", "first") {
		t.Fatal("first SetIfAbsent should succeed")
	}
	if m.SetIfAbsent("a", "second") {
		t.Error("second SetIfAbsent should fail")
	}
	if v, _ := m.Get("a"); v != "first" {
		t.Errorf("value = %q, want first", v)
	}
}

func TestPop(t *testing.T) {
	m := New[int]()
	m.Set("a", 1)

	v, ok := m.Pop("a")
	if !ok || v != 1 {
		t.Errorf("Pop(a) = (%d, %v), want (1, true)", v, ok)
	}
	if m.Has("a") {
		t.Error("a should be gone after Pop")
	}
	if _, ok := m.Pop("a"); ok {
		t.Error("second Pop should report false")
	}
}

func TestKeysAndCount(t *testing.T) {
	m := New[int]()
	for i := 0; i < 50; i++ {
		m.Set(fmt.Sprintf("k%02d", i), i)
	}

	if m.Count() != 50 {
		t.Errorf("Count() = %d, want 50", m.Count())
	}
	keys := m.Keys()
	sort.Strings(keys)
	if len(keys) != 50 || keys[0] != "k00" || keys[49] != "k49" {
		t.Errorf("unexpected keys: %v", keys)
	}
}

func TestRangeEarlyStop(t *testing.T) {
	m := New[int]()
	for i := 0; i < 10; i++ {
		m.Set(fmt.Sprintf("k%d", i), i)
	}

	visited := 0
	m.Range(func(string, int) bool {
		visited++
		return visited < 3
	})
	if visited != 3 {
		t.Errorf("visited = %d, want 3", visited)
	}
}

func TestConcurrentAccess(t *testing.T) {
	m := New[int]()
	var wg sync.WaitGroup

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := fmt.Sprintf("g%d-%d", g, i)
				m.Set(key, i)
				m.Get(key)
				if i%2 == 0 {
					m.Pop(key)
				}
			}
		}(g)
	}
	wg.Wait()

	if m.Count() != 8*50 {
		t.Errorf("Count() = %d, want %d", m.Count(), 8*50)
	}
}
