package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec selects the frame encoding for a connection.
type Codec int

const (
	CodecJSON Codec = iota
	CodecMsgpack
)

// ParseCodec maps the codec query parameter to a Codec. Empty means JSON.
func ParseCodec(raw string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "json":
		return CodecJSON, nil
	case "msgpack":
		return CodecMsgpack, nil
	default:
		return CodecJSON, fmt.Errorf("unsupported codec %q (expected json or msgpack)", raw)
	}
}

func (c Codec) String() string {
	if c == CodecMsgpack {
		return "msgpack"
	}
	return "json"
}

// Decode parses one inbound frame.
func (c Codec) Decode(data []byte) (InboundMessage, error) {
	var msg InboundMessage
	var err error
	switch c {
	case CodecMsgpack:
		dec := msgpack.NewDecoder(bytes.NewReader(data))
		dec.SetCustomStructTag("json")
		err = dec.Decode(&msg)
	default:
		err = json.Unmarshal(data, &msg)
	}
	if err != nil {
		return InboundMessage{}, fmt.Errorf("decode %s frame: %w", c, err)
	}
	return msg, nil
}

// Encode serializes one outbound frame. msgpack frames fall back to json
// tags so nested types such as webrtc.ICEServer keep their browser field
// names.
func (c Codec) Encode(msg OutboundMessage) ([]byte, error) {
	if c != CodecMsgpack {
		return json.Marshal(msg)
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(msg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
