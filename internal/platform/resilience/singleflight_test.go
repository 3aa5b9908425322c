package resilience

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSingleFlight_CollapsesConcurrentCalls(t *testing.T) {
	var g SingleFlight
	var calls int32
	var shared int32

	const workers = 16
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			val, err, wasShared := g.Do("schedule:2026", func() (any, error) {
				atomic.AddInt32(&calls, 1)
				time.Sleep(20 * time.Millisecond)
				return "fixtures", nil
			})
			if err != nil {
				t.Errorf("singleflight call failed: %v", err)
			}
			if val != "fixtures" {
				t.Errorf("unexpected shared value: %v", val)
			}
			if wasShared {
				atomic.AddInt32(&shared, 1)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected loader to run once, got %d", got)
	}
	if got := atomic.LoadInt32(&shared); got != workers-1 {
		t.Fatalf("expected %d shared results, got %d", workers-1, got)
	}
}

func TestSingleFlight_DistinctKeysRunIndependently(t *testing.T) {
	var g SingleFlight
	var calls int32

	var wg sync.WaitGroup
	for _, key := range []string{"schedule:2026:12", "schedule:2026:34"} {
		wg.Add(1)
		go func(k string) {
			defer wg.Done()
			_, _, _ = g.Do(k, func() (any, error) {
				atomic.AddInt32(&calls, 1)
				return nil, nil
			})
		}(key)
	}
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("expected one call per key, got %d", got)
	}
}
