package queue

import (
	"sync"
	"testing"
)

type intent struct {
	Actor string
	Kind  string
	Seq   int
}

func seqs(items []intent) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.Seq
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestPush_Limits(t *testing.T) {
	tests := []struct {
		name    string
		limit   int
		batches [][]int
		dropped []int
		want    []int
	}{
		{name: "unbounded", limit: 0, batches: [][]int{{1, 2}, {3}}, dropped: []int{0, 0}, want: []int{1, 2, 3}},
		{name: "fills then drops", limit: 3, batches: [][]int{{1, 2}, {3, 4, 5}, {6}}, dropped: []int{0, 2, 1}, want: []int{1, 2, 3}},
		{name: "negative is unbounded", limit: -1, batches: [][]int{{1, 2, 3, 4}}, dropped: []int{0}, want: []int{1, 2, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewLimited[int](tt.limit)
			for i, b := range tt.batches {
				if got := q.Push(b...); got != tt.dropped[i] {
					t.Errorf("batch %d: dropped %d, want %d", i, got, tt.dropped[i])
				}
			}
			if got := q.Drain(); !equalInts(got, tt.want) {
				t.Errorf("drained %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDrain_RoomAfterwards(t *testing.T) {
	q := NewLimited[int](2)
	q.Push(1, 2)
	got := q.Drain()

	if !q.Empty() || q.Len() != 0 {
		t.Fatalf("queue not empty after drain: len %d", q.Len())
	}
	if dropped := q.Push(7); dropped != 0 {
		t.Errorf("expected room after drain, %d dropped", dropped)
	}
	if got[0] != 1 {
		t.Errorf("drained slice changed after push: %v", got)
	}
	if d := New[int]().Drain(); len(d) != 0 {
		t.Errorf("empty drain returned %v", d)
	}
}

func TestQueue_ConcurrentProducers(t *testing.T) {
	q := NewLimited[intent](150)
	var wg sync.WaitGroup
	var mu sync.Mutex
	dropped := 0

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(seq int) {
			defer wg.Done()
			n := q.Push(intent{Seq: seq})
			mu.Lock()
			dropped += n
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	if q.Len() != 150 || dropped != 50 {
		t.Errorf("expected 150 kept and 50 dropped, got %d and %d", q.Len(), dropped)
	}
}

func TestQueue_ConcurrentDrain(t *testing.T) {
	q := New[intent]()
	for i := 0; i < 100; i++ {
		q.Push(intent{Seq: i})
	}

	results := make(chan int, 10)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- len(q.Drain())
		}()
	}
	wg.Wait()
	close(results)

	total := 0
	for n := range results {
		total += n
	}
	if total != 100 {
		t.Errorf("expected 100 items across drains, got %d", total)
	}
}

func TestLatest(t *testing.T) {
	type key struct{ actor, kind string }
	keyOf := func(it intent) (key, bool) {
		if it.Kind == "spawn" {
			return key{}, false
		}
		return key{it.Actor, it.Kind}, true
	}

	tests := []struct {
		name  string
		items []intent
		want  []int
	}{
		{name: "empty", items: nil, want: []int{}},
		{
			name: "last move per actor wins in place",
			items: []intent{
				{Actor: "a", Kind: "move", Seq: 1},
				{Actor: "a", Kind: "spawn", Seq: 2},
				{Actor: "b", Kind: "move", Seq: 3},
				{Actor: "a", Kind: "move", Seq: 4},
				{Actor: "a", Kind: "ability", Seq: 5},
				{Actor: "b", Kind: "spawn", Seq: 6},
				{Actor: "a", Kind: "spawn", Seq: 7},
			},
			want: []int{2, 3, 4, 5, 6, 7},
		},
		{
			name: "unkeyed repeats all survive",
			items: []intent{
				{Actor: "a", Kind: "spawn", Seq: 1},
				{Actor: "a", Kind: "spawn", Seq: 2},
			},
			want: []int{1, 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := seqs(Latest(tt.items, keyOf)); !equalInts(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
