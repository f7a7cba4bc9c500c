package queue

import (
	"sync"
	"testing"

	"go.uber.org/goleak"

	"github.com/flowgrid/flowgrid/internal/action"
	"github.com/flowgrid/flowgrid/internal/path"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeAction struct {
	ns, leaf string
}

func (a fakeAction) Namespace() string      { return a.ns }
func (a fakeAction) Leaf() string           { return a.leaf }
func (a fakeAction) TargetPath() path.Path  { return path.Root }
func (a fakeAction) Meta() action.Metadata  { return action.Metadata{} }

func TestEnqueueDrainPreservesOrder(t *testing.T) {
	q := New(8)
	for i := 0; i < 5; i++ {
		if err := q.Enqueue(fakeAction{ns: "Style", leaf: string(rune('a' + i))}); err != nil {
			t.Fatalf("Enqueue %d: %v", i, err)
		}
	}
	frame := q.DrainFrame()
	if len(frame.Entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(frame.Entries))
	}
	for i, e := range frame.Entries {
		if e.Action.Leaf() != string(rune('a'+i)) {
			t.Fatalf("out-of-order drain at %d: got %q", i, e.Action.Leaf())
		}
	}
}

func TestEnqueueReturnsErrFullAtCapacity(t *testing.T) {
	q := New(2)
	if err := q.Enqueue(fakeAction{ns: "A", leaf: "1"}); err != nil {
		t.Fatal(err)
	}
	if err := q.Enqueue(fakeAction{ns: "A", leaf: "2"}); err != nil {
		t.Fatal(err)
	}
	if err := q.Enqueue(fakeAction{ns: "A", leaf: "3"}); err != ErrFull {
		t.Fatalf("expected ErrFull at capacity, got %v", err)
	}
}

func TestDrainFrameEmptyQueue(t *testing.T) {
	q := New(4)
	frame := q.DrainFrame()
	if len(frame.Entries) != 0 {
		t.Fatal("expected no entries from an empty queue")
	}
}

func TestConcurrentProducersSingleConsumer(t *testing.T) {
	q := New(1000)
	const producers, perProducer = 10, 50

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				_ = q.Enqueue(fakeAction{ns: "Producer", leaf: "tick"})
			}
		}(p)
	}
	wg.Wait()

	frame := q.DrainFrame()
	if len(frame.Entries) != producers*perProducer {
		t.Fatalf("expected %d entries, got %d", producers*perProducer, len(frame.Entries))
	}
}
