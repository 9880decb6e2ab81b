package api

import (
	"testing"
	"time"

	"github.com/lookbusy1344/riscv-pipeline-sim/vm"
)

func TestBroadcasterBroadcastTraceDeliversToSubscriber(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	sub := b.Subscribe("sess-1", []EventType{EventTypeTrace})
	defer b.Unsubscribe(sub)

	entries := []vm.TraceEntry{
		{Cycle: 1, PC: 0x1000, Stage: "EX", ForwardA: "ex-mem"},
		{Cycle: 1, PC: 0x0ffc, Stage: "MEM"},
	}
	b.BroadcastTrace("sess-1", entries)

	select {
	case event := <-sub.Channel:
		if event.Type != EventTypeTrace {
			t.Fatalf("event.Type = %v, want %v", event.Type, EventTypeTrace)
		}
		got, ok := event.Data["entries"].([]vm.TraceEntry)
		if !ok {
			t.Fatalf("event.Data[\"entries\"] has wrong type: %T", event.Data["entries"])
		}
		if len(got) != 2 || got[0].Stage != "EX" || got[1].Stage != "MEM" {
			t.Errorf("entries = %+v, want the two records passed to BroadcastTrace", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for trace event")
	}
}

func TestBroadcasterBroadcastTraceIgnoresEmptySlice(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	sub := b.Subscribe("sess-1", []EventType{EventTypeTrace})
	defer b.Unsubscribe(sub)

	b.BroadcastTrace("sess-1", nil)

	select {
	case event := <-sub.Channel:
		t.Fatalf("unexpected event delivered for empty trace: %+v", event)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBroadcasterBroadcastTraceFiltersBySessionAndType(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	stateSub := b.Subscribe("sess-1", []EventType{EventTypeState})
	defer b.Unsubscribe(stateSub)
	otherSessionSub := b.Subscribe("sess-2", []EventType{EventTypeTrace})
	defer b.Unsubscribe(otherSessionSub)

	b.BroadcastTrace("sess-1", []vm.TraceEntry{{Stage: "IF"}})

	select {
	case event := <-stateSub.Channel:
		t.Fatalf("state-only subscriber should not receive a trace event: %+v", event)
	case event := <-otherSessionSub.Channel:
		t.Fatalf("sess-2 subscriber should not receive a sess-1 event: %+v", event)
	case <-time.After(100 * time.Millisecond):
	}
}
