package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/vmihailenco/msgpack/v5"

	"webrtc-signal-relay/pkg/relay"
)

// Payload is an opaque session description or candidate as it appeared on
// the wire: the raw JSON value from a text frame or the raw msgpack value
// from a binary frame. It is only re-encoded when the receiving connection
// uses the other codec.
type Payload relay.Payload

var (
	_ msgpack.CustomEncoder = (*Payload)(nil)
	_ msgpack.CustomDecoder = (*Payload)(nil)
)

// NewPayload wraps p for an outbound frame. Empty payloads become nil so the
// field is omitted.
func NewPayload(p relay.Payload) *Payload {
	if p.Empty() {
		return nil
	}
	out := Payload(p)
	return &out
}

// Relay returns the payload as carried by the relay. A nil payload is empty.
func (p *Payload) Relay() relay.Payload {
	if p == nil {
		return relay.Payload{}
	}
	return relay.Payload(*p)
}

// MarshalJSON writes a JSON-origin payload verbatim and converts a
// msgpack-origin one to the equivalent JSON value. Bytes of unknown origin
// that are not valid JSON are written as a string.
func (p Payload) MarshalJSON() ([]byte, error) {
	if len(p.Data) == 0 {
		return []byte("null"), nil
	}
	if p.Encoding != CodecMsgpack.String() {
		if json.Valid(p.Data) {
			return p.Data, nil
		}
		return json.Marshal(string(p.Data))
	}
	v, err := msgpack.NewDecoder(bytes.NewReader(p.Data)).DecodeInterface()
	if err != nil {
		return nil, fmt.Errorf("convert msgpack payload: %w", err)
	}
	return json.Marshal(jsonValue(v))
}

// UnmarshalJSON keeps the raw JSON value.
func (p *Payload) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = Payload{}
		return nil
	}
	p.Data = append([]byte(nil), data...)
	p.Encoding = CodecJSON.String()
	return nil
}

// EncodeMsgpack writes a msgpack-origin payload verbatim and converts a
// JSON-origin one to the equivalent msgpack value.
func (p *Payload) EncodeMsgpack(enc *msgpack.Encoder) error {
	if len(p.Data) == 0 {
		return enc.EncodeNil()
	}
	if p.Encoding == CodecMsgpack.String() {
		return enc.Encode(msgpack.RawMessage(p.Data))
	}
	dec := json.NewDecoder(bytes.NewReader(p.Data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		// Not JSON either; ship the bytes as bin.
		return enc.EncodeBytes(p.Data)
	}
	return enc.Encode(msgpackValue(v))
}

// DecodeMsgpack captures the next msgpack value, whatever its type.
func (p *Payload) DecodeMsgpack(dec *msgpack.Decoder) error {
	raw, err := dec.DecodeRaw()
	if err != nil {
		return err
	}
	p.Data = append([]byte(nil), raw...)
	p.Encoding = CodecMsgpack.String()
	return nil
}

// jsonValue makes a decoded msgpack value marshalable as JSON. Map keys are
// stringified and bin values that hold UTF-8 text become strings.
func jsonValue(v interface{}) interface{} {
	switch v := v.(type) {
	case map[string]interface{}:
		for k, e := range v {
			v[k] = jsonValue(e)
		}
		return v
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, e := range v {
			out[fmt.Sprint(k)] = jsonValue(e)
		}
		return out
	case []interface{}:
		for i, e := range v {
			v[i] = jsonValue(e)
		}
		return v
	case []byte:
		if utf8.Valid(v) {
			return string(v)
		}
		return v
	default:
		return v
	}
}

// msgpackValue turns json.Number into native integers or floats.
func msgpackValue(v interface{}) interface{} {
	switch v := v.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case map[string]interface{}:
		for k, e := range v {
			v[k] = msgpackValue(e)
		}
		return v
	case []interface{}:
		for i, e := range v {
			v[i] = msgpackValue(e)
		}
		return v
	default:
		return v
	}
}
