package weather

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// recorder collects debounced run invocations.
type recorder struct {
	mu     sync.Mutex
	cities []string
}

func (r *recorder) run(city string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cities = append(r.cities, city)
}

func (r *recorder) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.cities))
	copy(out, r.cities)
	return out
}

func TestDebouncerCollapsesRapidInput(t *testing.T) {
	rec := &recorder{}
	d := NewSearchDebouncer(30*time.Millisecond, rec.run)

	d.Input("Lon")
	d.Input("Lond")
	d.Input("London")

	assert.Eventually(t, func() bool {
		return len(rec.got()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"London"}, rec.got())
}

func TestDebouncerShortInputOnlyCancels(t *testing.T) {
	rec := &recorder{}
	d := NewSearchDebouncer(30*time.Millisecond, rec.run)

	d.Input("London")
	d.Input("Lo") // below the minimum: cancels the pending search

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, rec.got())
}

func TestDebouncerCancelDropsPending(t *testing.T) {
	rec := &recorder{}
	d := NewSearchDebouncer(30*time.Millisecond, rec.run)

	d.Input("London")
	d.Cancel()

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, rec.got())
}

func TestDebouncerTrimsWhitespace(t *testing.T) {
	rec := &recorder{}
	d := NewSearchDebouncer(10*time.Millisecond, rec.run)

	d.Input("  London  ")

	assert.Eventually(t, func() bool {
		got := rec.got()
		return len(got) == 1 && got[0] == "London"
	}, time.Second, 5*time.Millisecond)
}
