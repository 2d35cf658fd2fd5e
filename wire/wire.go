// Package wire implements the gossip node's framed text protocol: a byte
// stream of messages, each terminated by a fixed marker, carrying either an
// info-exchange request or a publication.
package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// logger receives diagnostic logging for malformed frames. It defaults to a
// no-op logger; SetLogger installs the node's real logger so parse failures
// show up in its log stream instead of vanishing into a returned error no
// one inspects.
var logger = zap.NewNop()

// SetLogger installs l as the package's diagnostic logger. Passing nil
// restores the no-op default.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}

// Terminator is the literal marker that ends every request frame. It never
// appears in a well-formed message body because callers are expected not
// to embed it in topics or payloads; no escaping scheme is implemented.
const Terminator = "END238973"

// Kind identifies which of the two request shapes a parsed frame is.
type Kind int

const (
	// KindUnknown is returned when a frame matches neither known shape.
	KindUnknown Kind = iota
	KindInfo
	KindPublish
)

// Message is a parsed request frame.
type Message struct {
	Kind Kind

	// InfoBody holds the raw JSON body of a GET /info request.
	InfoBody []byte

	// Addr is the "<ip>:<port>" routing annotation from a POST path. It is
	// not validated against the actual sender and exists only as a
	// debugging annotation.
	Addr string
	// Topic is the publication's topic, the meaningful part of the path.
	Topic string
	// Payload is the publication's body bytes, exactly as sent.
	Payload []byte
}

// EncodeInfoRequest builds a GET /info frame carrying snapshot as its JSON
// body, terminated by Terminator.
func EncodeInfoRequest(snapshotJSON []byte) []byte {
	var b bytes.Buffer
	b.WriteString("GET /info\r\n\r\n")
	b.Write(snapshotJSON)
	b.WriteString(Terminator)
	return b.Bytes()
}

// EncodePublish builds a POST frame addressed to (ip, port) for topic,
// carrying payload, terminated by Terminator.
func EncodePublish(ip string, port uint16, topic string, payload []byte) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "POST /%s:%d/%s HTTP/1.1\r\nContent-Type: text/plain\r\n\r\n", ip, port, topic)
	b.Write(payload)
	b.WriteString(Terminator)
	return b.Bytes()
}

// ReplyOK is the fixed reply to a successfully dispatched publication.
var ReplyOK = []byte("HTTP/1.1 200 OK\r\n\r\n")

// ReplyBadRequest is the fixed reply to a malformed request line.
var ReplyBadRequest = []byte("HTTP/1.1 400 Bad Request\r\n\r\n")

// Parse interprets a single complete frame (terminator already stripped)
// and extracts either an info body or a (addr, topic, payload) triple.
// Malformed input yields (Message{Kind: KindUnknown}, err); the caller
// replies 400 and keeps the connection open.
func Parse(frame []byte) (Message, error) {
	switch {
	case bytes.HasPrefix(frame, []byte("GET /info")):
		idx := bytes.Index(frame, []byte("\r\n\r\n"))
		if idx < 0 {
			err := fmt.Errorf("wire: malformed info request: no header terminator")
			logger.Debug("parse failed", zap.Error(err))
			return Message{}, err
		}
		return Message{Kind: KindInfo, InfoBody: frame[idx+4:]}, nil
	case bytes.HasPrefix(frame, []byte("POST /")):
		return parsePublish(frame)
	default:
		err := fmt.Errorf("wire: unrecognized request line")
		logger.Debug("parse failed", zap.ByteString("frame", frame), zap.Error(err))
		return Message{}, err
	}
}

func parsePublish(frame []byte) (Message, error) {
	// The request line is "POST /<ip>:<port>/<topic> HTTP/1.1"; the path
	// has exactly one nested '/' by construction (EncodePublish), so the
	// topic is everything after the first '/' inside the path.
	line := frame
	if idx := bytes.IndexByte(frame, '\n'); idx >= 0 {
		line = frame[:idx]
	}
	fields := strings.Fields(string(line))
	if len(fields) < 2 || fields[0] != "POST" {
		err := fmt.Errorf("wire: malformed request line")
		logger.Debug("parse failed", zap.Error(err))
		return Message{}, err
	}
	path := strings.TrimPrefix(fields[1], "/")
	slash := strings.Index(path, "/")
	if slash < 0 {
		err := fmt.Errorf("wire: malformed publish path %q", fields[1])
		logger.Debug("parse failed", zap.Error(err))
		return Message{}, err
	}
	addr := path[:slash]
	topic := path[slash+1:]
	if topic == "" {
		err := fmt.Errorf("wire: empty topic in path %q", fields[1])
		logger.Debug("parse failed", zap.Error(err))
		return Message{}, err
	}

	hdrEnd := bytes.Index(frame, []byte("\r\n\r\n"))
	if hdrEnd < 0 {
		err := fmt.Errorf("wire: malformed publish request: no header terminator")
		logger.Debug("parse failed", zap.String("addr", addr), zap.String("topic", topic), zap.Error(err))
		return Message{}, err
	}
	payload := frame[hdrEnd+4:]

	return Message{Kind: KindPublish, Addr: addr, Topic: topic, Payload: payload}, nil
}

// Reader incrementally extracts complete frames from a byte stream that may
// carry several messages back-to-back, and may deliver them split across
// arbitrary Read boundaries. Bytes after the last terminator occurrence
// remain buffered for the next call to Feed.
type Reader struct {
	buf bytes.Buffer
}

// Feed appends newly-read bytes to the internal buffer and returns every
// complete frame (terminator stripped) now available, in arrival order.
func (r *Reader) Feed(chunk []byte) [][]byte {
	r.buf.Write(chunk)
	var frames [][]byte
	for {
		data := r.buf.Bytes()
		idx := bytes.Index(data, []byte(Terminator))
		if idx < 0 {
			break
		}
		frame := make([]byte, idx)
		copy(frame, data[:idx])
		frames = append(frames, frame)
		remainder := make([]byte, len(data)-idx-len(Terminator))
		copy(remainder, data[idx+len(Terminator):])
		r.buf.Reset()
		r.buf.Write(remainder)
	}
	return frames
}

// DecodeInfoReply scans reply for the first '{' and parses the remainder
// as a JSON snapshot: an /info reply carries no frame terminator, so the
// body boundary is found by content rather than by a delimiter. dst is
// populated via json.Unmarshal.
func DecodeInfoReply(reply []byte, dst any) error {
	idx := bytes.IndexByte(reply, '{')
	if idx < 0 {
		err := fmt.Errorf("wire: no JSON object found in info reply")
		logger.Debug("decode info reply failed", zap.Error(err))
		return err
	}
	if err := json.Unmarshal(reply[idx:], dst); err != nil {
		logger.Debug("decode info reply failed", zap.Error(err))
		return err
	}
	return nil
}
