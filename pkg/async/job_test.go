package async

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestJob(t *testing.T) {
	done := Job(func() {
		time.Sleep(100 * time.Millisecond)
	})

	select {
	case <-done:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("TestJob timed out")
	}
}

func TestGather0(t *testing.T) {
	var finished atomic.Int32
	jobs := make([]<-chan struct{}, 3)
	for i := range jobs {
		d := time.Duration(i+1) * 50 * time.Millisecond
		jobs[i] = Job(func() {
			time.Sleep(d)
			finished.Add(1)
		})
	}

	select {
	case <-Gather0(jobs...):
	case <-time.After(time.Second):
		t.Fatal("TestGather0 timed out")
	}
	if n := finished.Load(); n != 3 {
		t.Errorf("expected 3 finished jobs, got %d", n)
	}
	select {
	case <-Gather0():
	case <-time.After(100 * time.Millisecond):
		t.Error("expected an empty gather to close")
	}
}
