package store

import (
	"sync"
	"testing"

	"github.com/yildizm/DenseView/internal/predict"
)

func TestNewStoreIsEmpty(t *testing.T) {
	s := New()
	if s.Get() != nil {
		t.Error("Expected no prediction")
	}
	if s.HasPrediction() {
		t.Error("HasPrediction should be false")
	}
	if s.Outcome().State != Idle {
		t.Errorf("Expected idle outcome, got %s", s.Outcome().State)
	}
}

func TestSetOverwrites(t *testing.T) {
	s := New()
	s.Set(predict.Matrix{{0.1, 0.9}})
	s.Set(predict.Matrix{{0.7, 0.3}})

	got := s.Get()
	if len(got) != 1 || got[0][0] != 0.7 {
		t.Errorf("Expected latest prediction, got %v", got)
	}
}

func TestStoreIsolatesCallers(t *testing.T) {
	s := New()
	in := predict.Matrix{{0.2, 0.8}}
	s.Set(in)
	in[0][0] = 99

	out := s.Get()
	if out[0][0] != 0.2 {
		t.Errorf("Set must copy its input, got %v", out)
	}
	out[0][1] = 99
	if s.Get()[0][1] != 0.8 {
		t.Error("Get must return a copy")
	}
}

func TestOutcome(t *testing.T) {
	s := New()
	s.Set(predict.Matrix{{0.2, 0.8}})
	s.SetOutcome(Outcome{State: Failed, Kind: predict.KindServer, Message: "boom", Seq: 3})

	o := s.Outcome()
	if o.State != Failed || o.Kind != predict.KindServer || o.Seq != 3 {
		t.Errorf("Unexpected outcome %+v", o)
	}
	if !s.HasPrediction() {
		t.Error("Outcome changes must not clear the prediction")
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		Idle:      "idle",
		Uploading: "uploading",
		Succeeded: "succeeded",
		Failed:    "failed",
		State(42): "unknown",
	}
	for state, want := range tests {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(state), got, want)
		}
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			s.Set(predict.Matrix{{float64(i), 1}})
			s.SetOutcome(Outcome{State: Succeeded, Seq: uint64(i)})
		}(i)
		go func() {
			defer wg.Done()
			_ = s.Get()
			_ = s.Outcome()
		}()
	}
	wg.Wait()

	if !s.HasPrediction() {
		t.Error("Expected a prediction after concurrent writes")
	}
}
