package platform_test

import (
	"sync"
	"testing"

	"github.com/dmksnnk/skirmish/internal/platform"
)

type pose struct {
	X, Y, W, H float64
}

func TestMailbox(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		m := platform.NewMailbox[pose]()
		if _, ok := m.Get(); ok {
			t.Error("want empty mailbox")
		}
	})

	t.Run("last write wins", func(t *testing.T) {
		m := platform.NewMailbox[pose]()
		m.Put(pose{X: 1})
		m.Put(pose{X: 2})

		got, ok := m.Get()
		if !ok {
			t.Fatal("want value")
		}
		if got.X != 2 {
			t.Errorf("want X=2, got %v", got.X)
		}
	})

	t.Run("clear", func(t *testing.T) {
		m := platform.NewMailbox[pose]()
		m.Put(pose{X: 1})
		m.Clear()

		if _, ok := m.Get(); ok {
			t.Error("want empty mailbox after Clear")
		}
	})

	t.Run("notify put", func(t *testing.T) {
		m := platform.NewMailbox[pose]()

		var firsts []bool
		m.NotifyPut(func(_ pose, first bool) {
			firsts = append(firsts, first)
		})

		m.Put(pose{X: 1})
		m.Put(pose{X: 2})
		m.Clear()
		m.Put(pose{X: 3})

		want := []bool{true, false, true}
		if len(firsts) != len(want) {
			t.Fatalf("want %d notifications, got %d", len(want), len(firsts))
		}
		for i := range want {
			if firsts[i] != want[i] {
				t.Errorf("notification %d: want first=%v, got %v", i, want[i], firsts[i])
			}
		}
	})

	t.Run("no torn reads", func(t *testing.T) {
		m := platform.NewMailbox[pose]()

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := range 1000 {
				v := float64(i)
				m.Put(pose{X: v, Y: v, W: v, H: v})
			}
		}()
		go func() {
			defer wg.Done()
			for range 1000 {
				p, ok := m.Get()
				if !ok {
					continue
				}
				if p.X != p.Y || p.Y != p.W || p.W != p.H {
					t.Errorf("torn read: %+v", p)
					return
				}
			}
		}()
		wg.Wait()
	})
}
