package form

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStateSetAndGet(t *testing.T) {
	state := NewState(map[string]any{"name": "Ada"})

	if value, ok := state.Value("name"); !ok || value != "Ada" {
		t.Fatalf("Value(name) = %v, %v", value, ok)
	}
	if state.Dirty() {
		t.Fatal("fresh state should not be dirty")
	}

	state.SetValue("name", "Grace")
	if value, _ := state.Value("name"); value != "Grace" {
		t.Fatalf("Value(name) = %v after set", value)
	}
	if !state.Dirty() || !state.Touched("name") {
		t.Fatal("set should mark dirty and touched")
	}
}

func TestStateNestedPaths(t *testing.T) {
	state := NewState(nil)
	state.SetValue("address.city", "Porto")
	state.SetValue("address.zip", "4000")

	want := map[string]any{
		"address": map[string]any{"city": "Porto", "zip": "4000"},
	}
	if diff := cmp.Diff(want, state.Values()); diff != "" {
		t.Fatalf("Values() mismatch (-want +got):\n%s", diff)
	}

	if value, ok := state.Value("address.city"); !ok || value != "Porto" {
		t.Fatalf("Value(address.city) = %v, %v", value, ok)
	}
	if _, ok := state.Value("address.street"); ok {
		t.Fatal("missing nested path should not be found")
	}
}

func TestStateWatch(t *testing.T) {
	state := NewState(nil)

	var events []string
	unsubscribe := state.Watch(func(path string, value any) {
		events = append(events, path)
	})

	state.SetValue("a", 1)
	state.SetValue("b", 2)
	unsubscribe()
	state.SetValue("c", 3)

	want := []string{"a", "b"}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestStateWatchSeesMultiSelectSequence(t *testing.T) {
	state := NewState(nil)

	var observed [][]any
	state.Watch(func(path string, value any) {
		if path == "benefits" {
			observed = append(observed, value.([]any))
		}
	})

	state.SetValue("benefits", []any{"health"})
	state.SetValue("benefits", []any{"health", "dental"})
	state.SetValue("benefits", []any{"dental"})

	want := [][]any{
		{"health"},
		{"health", "dental"},
		{"dental"},
	}
	if diff := cmp.Diff(want, observed); diff != "" {
		t.Fatalf("observed sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestStateSubmitCountAndReset(t *testing.T) {
	state := NewState(nil)
	if got := state.RecordSubmit(); got != 1 {
		t.Fatalf("RecordSubmit() = %d", got)
	}
	if got := state.RecordSubmit(); got != 2 {
		t.Fatalf("RecordSubmit() = %d", got)
	}

	state.SetValue("x", 1)
	state.Reset(map[string]any{"y": 2})
	if state.Dirty() || state.Touched("x") {
		t.Fatal("reset should clear interaction flags")
	}
	if _, ok := state.Value("x"); ok {
		t.Fatal("reset should drop old values")
	}
	if value, _ := state.Value("y"); value != 2 {
		t.Fatalf("Value(y) = %v", value)
	}
}
