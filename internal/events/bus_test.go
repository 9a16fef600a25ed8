package events

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan BackendExitedEvent, 1)

	unsub := bus.Subscribe(func(e BackendExitedEvent) {
		received <- e
	})
	defer unsub()

	ev := BackendExitedEvent{
		PID:       4242,
		ExitCode:  0,
		Timestamp: "2025-01-27T10:30:00Z",
	}
	bus.Publish(ev)

	select {
	case got := <-received:
		if got.PID != ev.PID {
			t.Errorf("Expected pid %d, got %d", ev.PID, got.PID)
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for event")
	}
}

func TestBus_MultipleSubscribers(_ *testing.T) {
	bus := New()
	received1 := make(chan WindowCreatedEvent, 1)
	received2 := make(chan WindowCreatedEvent, 1)

	unsub1 := bus.Subscribe(func(e WindowCreatedEvent) {
		received1 <- e
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(e WindowCreatedEvent) {
		received2 <- e
	})
	defer unsub2()

	bus.Publish(WindowCreatedEvent{WindowID: 1})

	<-received1
	<-received2
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan WindowClosedEvent, 1)

	unsub := bus.Subscribe(func(e WindowClosedEvent) {
		received <- e
	})

	bus.Publish(WindowClosedEvent{WindowID: 1})
	<-received

	unsub()

	bus.Publish(WindowClosedEvent{WindowID: 2})
	select {
	case <-received:
		t.Fatal("Should not have received event after unsubscribe")
	case <-time.After(10 * time.Millisecond):
		// Expected - no event
	}
}

func TestBus_TypeSafety(t *testing.T) {
	bus := New()
	stateEvents := make(chan BackendStateChangedEvent, 1)
	exitEvents := make(chan BackendExitedEvent, 1)

	unsub1 := bus.Subscribe(func(e BackendStateChangedEvent) { stateEvents <- e })
	defer unsub1()
	unsub2 := bus.Subscribe(func(e BackendExitedEvent) { exitEvents <- e })
	defer unsub2()

	bus.Publish(BackendStateChangedEvent{OldState: "not_running", NewState: "running", PID: 7})

	select {
	case got := <-stateEvents:
		if got.NewState != "running" {
			t.Errorf("Expected new state running, got %s", got.NewState)
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for state event")
	}

	select {
	case <-exitEvents:
		t.Fatal("Exit subscriber received a state event")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestBus_ThreadSafety(_ *testing.T) {
	bus := New()
	var wg sync.WaitGroup
	received := make(chan BackendExitedEvent, 100)

	unsub := bus.Subscribe(func(e BackendExitedEvent) {
		received <- e
	})
	defer unsub()

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(pid int) {
			defer wg.Done()
			bus.Publish(BackendExitedEvent{PID: pid})
		}(i)
	}
	wg.Wait()

	for i := 0; i < 10; i++ {
		<-received
	}
}

func TestBus_UnknownHandler(_ *testing.T) {
	bus := New()
	unsub := bus.Subscribe(func(string) {})
	unsub()
}

func TestEventJSONSerialization(t *testing.T) {
	ev := BackendExitedEvent{
		PID:       4242,
		ExitCode:  -1,
		Signal:    "terminated",
		Timestamp: "2025-01-27T10:30:00Z",
	}

	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if fields["signal"] != "terminated" {
		t.Errorf("Expected signal field, got %v", fields["signal"])
	}
	if _, ok := fields["error"]; ok {
		t.Error("Empty error should be omitted")
	}
}

func TestSubscribeToChannel(t *testing.T) {
	bus := New()
	ch := make(chan any, 1)

	unsub := SubscribeToChannel[WindowCreatedEvent](bus, ch)
	defer unsub()

	bus.Publish(WindowCreatedEvent{WindowID: 3})

	select {
	case got := <-ch:
		if e, ok := got.(WindowCreatedEvent); !ok || e.WindowID != 3 {
			t.Errorf("Unexpected event: %#v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for event")
	}
}

func TestSubscribeToChannel_NonBlocking(_ *testing.T) {
	bus := New()
	ch := make(chan any) // unbuffered, never read

	unsub := SubscribeToChannel[WindowClosedEvent](bus, ch)
	defer unsub()

	for i := 0; i < 5; i++ {
		bus.Publish(WindowClosedEvent{WindowID: i})
	}
	time.Sleep(10 * time.Millisecond)
}
