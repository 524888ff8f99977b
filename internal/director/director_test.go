package director

import (
	"context"
	"testing"
	"time"
)

func TestScheduleCallbackFiresInOrder(t *testing.T) {
	d := New(WithMaxSleepChunk(10 * time.Millisecond))
	var order []int

	d.ScheduleCallback(func() { order = append(order, 1) }, 0, false, 5)
	d.ScheduleCallback(func() { order = append(order, 2) }, 0, false, 1)
	d.ScheduleCallback(func() { order = append(order, 3) }, 0, false, 10)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	d.Execute(ctx, 1)

	if len(order) != 3 || order[0] != 2 || order[1] != 1 || order[2] != 3 {
		t.Fatalf("execution order = %v, want [2 1 3]", order)
	}
}

func TestClearScheduledCallbackPreventsExecution(t *testing.T) {
	d := New(WithMaxSleepChunk(10 * time.Millisecond))
	fired := false
	id := d.ScheduleCallback(func() { fired = true }, 0, false, 0)
	d.ClearScheduledCallback(id)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	d.Execute(ctx, 0)

	if fired {
		t.Fatal("cleared callback fired anyway")
	}
}

func TestPeriodicCallbackReschedules(t *testing.T) {
	d := New(WithMaxSleepChunk(5 * time.Millisecond))
	count := 0
	d.ScheduleCallback(func() { count++ }, 5*time.Millisecond, true, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	d.Execute(ctx, 3)

	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
}

func TestHandlePriorityUpdateReordersQueue(t *testing.T) {
	d := New(WithMaxSleepChunk(10 * time.Millisecond))
	var order []int

	d.ScheduleCallback(func() { order = append(order, 1) }, 0, false, 5)
	id2 := d.ScheduleCallback(func() { order = append(order, 2) }, 0, false, 10)
	_ = id2

	d.HandlePriorityUpdate(10, 0)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	d.Execute(ctx, 1)

	if len(order) != 2 || order[0] != 2 || order[1] != 1 {
		t.Fatalf("execution order = %v, want [2 1]", order)
	}
}

func TestExecuteStopsWhenQueueEmpty(t *testing.T) {
	d := New()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		d.Execute(ctx, 0)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Execute did not return promptly with an empty queue")
	}
}

func TestExecuteRespectsContextCancellation(t *testing.T) {
	d := New(WithMaxSleepChunk(time.Hour))
	d.ScheduleCallback(func() {}, time.Hour, false, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Execute(ctx, 0)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Execute did not honor context cancellation")
	}
}
