package rate

import (
	"testing"
	"time"
)

func TestLimiter(t *testing.T) {
	burst := 1

	interval := 10 * time.Millisecond
	lim := Every(interval)
	r := NewLimiter(burst, 100, lim)

	tooshort := 1 * time.Millisecond

	client := "10.0.0.1"
	expected := []bool{true, false, true, true, false, false}
	waits := []time.Duration{tooshort, interval, interval, tooshort, tooshort, tooshort}
	for i, exp := range expected {
		if got := r.Check(client); got != exp {
			t.Fatalf("iteration %d: expected %v, but got %v", i, exp, got)
		}
		time.Sleep(waits[i])
	}
}

func TestLimiterIsolatesClients(t *testing.T) {
	burst := 1

	interval := 100 * time.Millisecond
	lim := Every(interval)
	r := NewLimiter(burst, 100, lim)

	if got := r.Check("10.0.0.1"); !got {
		t.Fatal("first client should pass")
	}
	if got := r.Check("10.0.0.1"); got {
		t.Fatal("first client should be limited on the second hit")
	}
	if got := r.Check("10.0.0.2"); !got {
		t.Fatal("second client must not share the first client's budget")
	}
}
