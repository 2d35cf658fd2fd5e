package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribe(t *testing.T) {
	t.Run("declares topic once", func(t *testing.T) {
		var declared []string
		r := New(func(topic string) { declared = append(declared, topic) })

		r.Subscribe("a", func(string, []byte) {})
		r.Subscribe("a", func(string, []byte) {})
		r.Subscribe("b", func(string, []byte) {})

		assert.Equal(t, []string{"a", "b"}, declared)
	})

	t.Run("concurrent with deliver", func(t *testing.T) {
		r := New(nil)
		r.Subscribe("t", func(string, []byte) {})

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				r.Deliver("t", nil)
			}()
			go func(i int) {
				defer wg.Done()
				r.Subscribe("other", func(string, []byte) {})
			}(i)
		}
		wg.Wait()
	})
}

func TestDeliver(t *testing.T) {
	t.Run("invokes in registration order", func(t *testing.T) {
		r := New(nil)
		var order []int
		r.Subscribe("t", func(string, []byte) { order = append(order, 1) })
		r.Subscribe("t", func(string, []byte) { order = append(order, 2) })

		r.Deliver("t", []byte("x"))

		assert.Equal(t, []int{1, 2}, order)
	})

	t.Run("topic isolation", func(t *testing.T) {
		r := New(nil)
		var aCount, bCount int
		r.Subscribe("a", func(string, []byte) { aCount++ })
		r.Subscribe("b", func(string, []byte) { bCount++ })

		r.Deliver("a", nil)

		assert.Equal(t, 1, aCount)
		assert.Equal(t, 0, bCount)
	})

	t.Run("delivers every call", func(t *testing.T) {
		r := New(nil)
		var count int
		r.Subscribe("t", func(string, []byte) { count++ })

		for i := 0; i < 100; i++ {
			r.Deliver("t", nil)
		}

		require.Equal(t, 100, count)
	})
}
