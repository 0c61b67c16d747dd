package eventbus

import (
	"context"
	"runtime"
	"sync"
	"testing"
)

func TestBusPublishSubscribe(t *testing.T) {
	bus := New[string](0)
	ch := bus.Subscribe()
	bus.Publish("hello")
	v := <-ch
	if v != "hello" {
		t.Fatalf("expected hello got %v", v)
	}
	bus.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed after unsubscribe")
	}
}

func TestBusClose(t *testing.T) {
	bus := New[int](1)
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Close()
	if _, ok := <-ch1; ok {
		t.Fatalf("expected ch1 closed")
	}
	if _, ok := <-ch2; ok {
		t.Fatalf("expected ch2 closed")
	}
	bus.Publish(3)
	if _, ok := <-bus.Subscribe(); ok {
		t.Fatalf("expected subscription on closed bus to be closed")
	}
}

func TestBusUnsubscribeAfterClose(t *testing.T) {
	bus := New[float64](0)
	ch := bus.Subscribe()
	bus.Close()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic on Unsubscribe after Close: %v", r)
		}
	}()
	bus.Unsubscribe(ch)
}

func TestBusDropsOnFullBuffer(t *testing.T) {
	bus := New[int](1)
	_ = bus.Subscribe()
	bus.Publish(1)
	bus.Publish(2)
	if got := bus.Dropped(); got != 1 {
		t.Fatalf("expected 1 dropped got %d", got)
	}
}

func TestBusConsume(t *testing.T) {
	bus := New[int](4)
	var (
		mu  sync.Mutex
		got []int
		wg  sync.WaitGroup
	)
	ready := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		bus.Consume(context.Background(), func(v int) {
			mu.Lock()
			got = append(got, v)
			mu.Unlock()
			if v == 2 {
				close(ready)
			}
		})
	}()
	// Wait for the subscription before publishing.
	for {
		bus.mu.RLock()
		n := len(bus.subs)
		bus.mu.RUnlock()
		if n == 1 {
			break
		}
		runtime.Gosched()
	}
	bus.Publish(1)
	bus.Publish(2)
	<-ready
	bus.Close()
	wg.Wait()
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("unexpected events %v", got)
	}
}
