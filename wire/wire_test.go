package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishRoundTrip(t *testing.T) {
	t.Run("with payload", func(t *testing.T) {
		payload := []byte("hello, world! \xc3\xa9\xc3\xa8 \n\t punctuation.")
		frame := EncodePublish("127.0.0.1", 5101, "test_topic", payload)

		require.True(t, len(frame) > len(Terminator))
		body := frame[:len(frame)-len(Terminator)]

		msg, err := Parse(body)
		require.NoError(t, err)
		assert.Equal(t, KindPublish, msg.Kind)
		assert.Equal(t, "test_topic", msg.Topic)
		assert.Equal(t, "127.0.0.1:5101", msg.Addr)
		assert.Equal(t, payload, msg.Payload)
	})

	t.Run("empty payload", func(t *testing.T) {
		frame := EncodePublish("10.0.0.1", 1, "t", nil)
		body := frame[:len(frame)-len(Terminator)]

		msg, err := Parse(body)
		require.NoError(t, err)
		assert.Equal(t, "t", msg.Topic)
		assert.Empty(t, msg.Payload)
	})
}

func TestParse(t *testing.T) {
	t.Run("malformed publish path", func(t *testing.T) {
		_, err := Parse([]byte("POST /nosplit HTTP/1.1\r\nContent-Type: text/plain\r\n\r\nbody"))
		assert.Error(t, err)
	})

	t.Run("unrecognized request line", func(t *testing.T) {
		_, err := Parse([]byte("GARBAGE"))
		assert.Error(t, err)
	})

	t.Run("info request", func(t *testing.T) {
		frame := EncodeInfoRequest([]byte(`{"self":{}}`))
		body := frame[:len(frame)-len(Terminator)]

		msg, err := Parse(body)
		require.NoError(t, err)
		assert.Equal(t, KindInfo, msg.Kind)
		assert.Equal(t, []byte(`{"self":{}}`), msg.InfoBody)
	})
}

func TestReader_MultipleFramesAndSplitBoundary(t *testing.T) {
	var r Reader
	frame1 := EncodePublish("a", 1, "t1", []byte("one"))
	frame2 := EncodePublish("a", 1, "t2", []byte("two"))
	stream := append(append([]byte{}, frame1...), frame2...)

	// Feed in two chunks split inside the first frame to prove buffering works.
	mid := len(stream) / 3
	got := r.Feed(stream[:mid])
	assert.Empty(t, got)

	got = append(got, r.Feed(stream[mid:])...)
	require.Len(t, got, 2)

	m1, err := Parse(got[0])
	require.NoError(t, err)
	assert.Equal(t, "t1", m1.Topic)

	m2, err := Parse(got[1])
	require.NoError(t, err)
	assert.Equal(t, "t2", m2.Topic)
}

func TestDecodeInfoReply(t *testing.T) {
	reply := []byte("junkjunk{\"self\":{\"IP\":\"1.2.3.4\",\"port\":9,\"subscribed_topics\":[]},\"known_nodes\":[]}")
	var out struct {
		Self struct {
			IP   string
			Port int
		}
	}
	err := DecodeInfoReply(reply, &out)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3.4", out.Self.IP)
}
