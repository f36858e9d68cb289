package progress

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestBar_UpdateAndDone(t *testing.T) {
	var buf bytes.Buffer
	b := NewBar("Matching", 3, WithWriter(&buf))

	b.Update(1, 3, "a.js")
	b.Update(3, 3, "c.js")
	b.Done()

	if b.bar.State().CurrentNum != 3 {
		t.Errorf("current = %d, want 3", b.bar.State().CurrentNum)
	}
}

func TestBar_UpdateGrowsMax(t *testing.T) {
	var buf bytes.Buffer
	b := NewBar("Matching", 2, WithWriter(&buf))
	b.Update(1, 5, "")

	if b.total != 5 {
		t.Errorf("total = %d, want 5", b.total)
	}
	if got := b.bar.GetMax(); got != 5 {
		t.Errorf("max = %d, want 5", got)
	}
}

func TestBar_ConcurrentTick(t *testing.T) {
	var buf bytes.Buffer
	b := NewBar("Matching", 100, WithWriter(&buf))

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Tick()
		}()
	}
	wg.Wait()

	if b.bar.State().CurrentNum != 100 {
		t.Errorf("current = %d, want 100", b.bar.State().CurrentNum)
	}
}

func TestBar_Fail(t *testing.T) {
	var buf bytes.Buffer
	b := NewSpinner("Scanning", WithWriter(&buf))
	b.Fail(errors.New("permission denied"))

	if !strings.Contains(buf.String(), "Scanning failed: permission denied") {
		t.Errorf("output = %q", buf.String())
	}
}
