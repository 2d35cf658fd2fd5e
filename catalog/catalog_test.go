package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddKnown(t *testing.T) {
	t.Run("no duplicates, topics union", func(t *testing.T) {
		c := New("127.0.0.1", 5000)

		c.AddKnown("127.0.0.1", 6000, []string{"weather"})
		c.AddKnown("127.0.0.1", 6000, []string{"news"})
		c.AddKnown("127.0.0.1", 6000, []string{"weather"})

		require.Equal(t, 1, c.Len())
		got := c.At(0)
		assert.Equal(t, "127.0.0.1", got.IP)
		assert.Equal(t, uint16(6000), got.Port)
		assert.ElementsMatch(t, []string{"weather", "news"}, got.Topics)
	})

	t.Run("drops self identity", func(t *testing.T) {
		c := New("127.0.0.1", 5000)
		c.AddKnown("127.0.0.1", 5000, []string{"x"})
		assert.Equal(t, 0, c.Len())
	})
}

func TestDeclareTopic(t *testing.T) {
	c := New("127.0.0.1", 5000)
	c.DeclareTopic("test_topic")
	assert.Contains(t, c.Self().Topics, "test_topic")
}

func TestMergeRemote(t *testing.T) {
	t.Run("idempotent", func(t *testing.T) {
		c := New("127.0.0.1", 5000)
		remote := Snapshot{
			Self: PeerRecord{IP: "127.0.0.1", Port: 6000, Topics: []string{"a"}},
			Known: []PeerRecord{
				{IP: "127.0.0.1", Port: 7000, Topics: []string{"b"}},
			},
		}

		c.MergeRemote(remote)
		first := c.Snapshot()
		c.MergeRemote(remote)
		second := c.Snapshot()

		assert.Equal(t, first, second)
		assert.Equal(t, 2, c.Len())
	})

	t.Run("drops self identity nested in known", func(t *testing.T) {
		c := New("127.0.0.1", 5000)
		remote := Snapshot{
			Self: PeerRecord{IP: "127.0.0.1", Port: 6000},
			Known: []PeerRecord{
				{IP: "127.0.0.1", Port: 5000, Topics: []string{"loop"}},
			},
		}
		c.MergeRemote(remote)
		require.Equal(t, 1, c.Len())
		assert.Equal(t, uint16(6000), c.At(0).Port)
	})
}

func TestSnapshot_IsCopy(t *testing.T) {
	c := New("127.0.0.1", 5000)
	c.AddKnown("127.0.0.1", 6000, []string{"a"})

	snap := c.Snapshot()
	snap.Known[0].Topics[0] = "mutated"

	assert.Equal(t, "a", c.At(0).Topics[0])
}
