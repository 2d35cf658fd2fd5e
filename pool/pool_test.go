package pool

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listen(t *testing.T) (net.Listener, uint16) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				buf := make([]byte, 1024)
				for {
					if _, err := c.Read(buf); err != nil {
						c.Close()
						return
					}
				}
			}(c)
		}
	}()
	return ln, uint16(ln.Addr().(*net.TCPAddr).Port)
}

func TestAcquire(t *testing.T) {
	t.Run("caches connection", func(t *testing.T) {
		_, port := listen(t)
		p := New(time.Second, nil)

		c1, err := p.Acquire("127.0.0.1", port)
		require.NoError(t, err)
		c2, err := p.Acquire("127.0.0.1", port)
		require.NoError(t, err)

		assert.Same(t, c1, c2)
		assert.Equal(t, 1, p.Len())
	})

	t.Run("dial failure does not insert", func(t *testing.T) {
		p := New(50*time.Millisecond, nil)
		_, err := p.Acquire("127.0.0.1", 1) // privileged/unused port, should refuse
		assert.Error(t, err)
		assert.Equal(t, 0, p.Len())
	})
}

func TestInvalidate(t *testing.T) {
	t.Run("removes and closes", func(t *testing.T) {
		_, port := listen(t)
		p := New(time.Second, nil)

		c, err := p.Acquire("127.0.0.1", port)
		require.NoError(t, err)

		p.Invalidate("127.0.0.1", port, c)
		assert.Equal(t, 0, p.Len())

		_, err = c.Write([]byte("x"))
		assert.Error(t, err)
	})

	t.Run("stale invalidate does not evict a replaced entry", func(t *testing.T) {
		_, port := listen(t)
		p := New(time.Second, nil)

		c1, err := p.Acquire("127.0.0.1", port)
		require.NoError(t, err)

		delete(p.conns, key{"127.0.0.1", port})
		c2, err := p.Acquire("127.0.0.1", port)
		require.NoError(t, err)
		require.NotSame(t, c1, c2)

		p.Invalidate("127.0.0.1", port, c1)
		assert.Equal(t, 1, p.Len())
	})
}

func TestCloseAll(t *testing.T) {
	_, port := listen(t)
	p := New(time.Second, nil)
	_, err := p.Acquire("127.0.0.1", port)
	require.NoError(t, err)

	p.CloseAll()
	assert.Equal(t, 0, p.Len())
}
