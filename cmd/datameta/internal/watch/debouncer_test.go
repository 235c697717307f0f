package watch

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// collector records every flushed batch.
type collector struct {
	mu      sync.Mutex
	batches [][]Change
}

func (c *collector) flush(changes []Change) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches = append(c.batches, changes)
}

func (c *collector) get() [][]Change {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]Change(nil), c.batches...)
}

func TestDebouncer_SingleEvent(t *testing.T) {
	var c collector
	d := NewDebouncer(50*time.Millisecond, c.flush)
	defer d.Stop()

	d.Add("data/a.json", ChangeAdded)
	time.Sleep(150 * time.Millisecond)

	batches := c.get()
	if len(batches) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(batches))
	}
	if len(batches[0]) != 1 || batches[0][0] != (Change{Path: "data/a.json", Type: ChangeAdded}) {
		t.Errorf("unexpected batch %v", batches[0])
	}
}

func TestDebouncer_CoalescesAndSorts(t *testing.T) {
	var c collector
	d := NewDebouncer(100*time.Millisecond, c.flush)
	defer d.Stop()

	d.Add("data/b.json", ChangeAdded)
	time.Sleep(20 * time.Millisecond)
	d.Add("data/a.json", ChangeModified)
	time.Sleep(20 * time.Millisecond)
	d.Add("data/b.json", ChangeDeleted)

	time.Sleep(250 * time.Millisecond)

	batches := c.get()
	if len(batches) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(batches))
	}
	want := []Change{
		{Path: "data/a.json", Type: ChangeModified},
		{Path: "data/b.json", Type: ChangeDeleted},
	}
	if fmt.Sprint(batches[0]) != fmt.Sprint(want) {
		t.Errorf("expected %v, got %v", want, batches[0])
	}
}

func TestDebouncer_FlushNow(t *testing.T) {
	var c collector
	d := NewDebouncer(time.Hour, c.flush)
	defer d.Stop()

	d.Add("data/a.json", ChangeAdded)
	if d.PendingCount() != 1 {
		t.Errorf("PendingCount() = %d, want 1", d.PendingCount())
	}

	d.FlushNow()
	if d.PendingCount() != 0 {
		t.Errorf("PendingCount() = %d after FlushNow, want 0", d.PendingCount())
	}
	if len(c.get()) != 1 {
		t.Errorf("expected 1 batch after FlushNow, got %d", len(c.get()))
	}

	// Nothing pending: no empty batch.
	d.FlushNow()
	if len(c.get()) != 1 {
		t.Errorf("FlushNow with nothing pending should not deliver")
	}
}

func TestDebouncer_StopFlushesOnce(t *testing.T) {
	var c collector
	d := NewDebouncer(time.Hour, c.flush)

	d.Add("data/a.json", ChangeAdded)
	d.Stop()
	d.Stop()

	if len(c.get()) != 1 {
		t.Fatalf("expected 1 batch from Stop, got %d", len(c.get()))
	}

	d.Add("data/b.json", ChangeAdded)
	if d.PendingCount() != 0 {
		t.Error("Add after Stop should be ignored")
	}
}

func TestDebouncer_MaxPendingFlushesImmediately(t *testing.T) {
	var c collector
	d := NewDebouncer(time.Hour, c.flush)
	defer d.Stop()

	for i := range MaxPendingChanges {
		d.Add(fmt.Sprintf("data/%04d.json", i), ChangeAdded)
	}

	batches := c.get()
	if len(batches) != 1 {
		t.Fatalf("expected immediate flush at limit, got %d batches", len(batches))
	}
	if len(batches[0]) != MaxPendingChanges {
		t.Errorf("batch size = %d, want %d", len(batches[0]), MaxPendingChanges)
	}
}
