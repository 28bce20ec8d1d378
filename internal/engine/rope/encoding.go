package rope

import (
	"encoding/json"
	"io"
)

// The methods in this file are the only way a Rope crosses a serialization
// or persistence boundary: each one flattens first and emits the plain
// string, so encoders never see the tree. Decoding produces a Rope that is
// already materialized.
//
// The Unmarshal and GobDecode methods only accept a zero Rope that no other
// goroutine can see yet, such as a fresh new(Rope) or a nil field being
// filled by a decoder. Decoding into a Rope built by Concat, FromString or
// an earlier decode returns ErrDecodeTarget and leaves it unchanged.

// MarshalText implements encoding.TextMarshaler.
func (r *Rope) MarshalText() ([]byte, error) {
	s, err := r.Flatten()
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Rope) UnmarshalText(data []byte) error {
	return r.setFlat(string(data))
}

// MarshalJSON encodes the content as a JSON string.
func (r *Rope) MarshalJSON() ([]byte, error) {
	s, err := r.Flatten()
	if err != nil {
		return nil, err
	}
	return json.Marshal(s)
}

// UnmarshalJSON decodes a JSON string.
func (r *Rope) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return r.setFlat(s)
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (r *Rope) MarshalBinary() ([]byte, error) {
	return r.MarshalText()
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (r *Rope) UnmarshalBinary(data []byte) error {
	return r.UnmarshalText(data)
}

// GobEncode implements gob.GobEncoder.
func (r *Rope) GobEncode() ([]byte, error) {
	return r.MarshalText()
}

// GobDecode implements gob.GobDecoder.
func (r *Rope) GobDecode(data []byte) error {
	return r.UnmarshalText(data)
}

// WriteTo implements io.WriterTo.
func (r *Rope) WriteTo(w io.Writer) (int64, error) {
	s, err := r.Flatten()
	if err != nil {
		return 0, err
	}
	n, err := io.WriteString(w, s)
	return int64(n), err
}

// setFlat fills a zero Rope with a materialized value.
func (r *Rope) setFlat(s string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.snap.Load() != nil {
		return ErrDecodeTarget
	}
	r.length = len(s)
	r.snap.Store(&state{flat: s, done: true})
	return nil
}

// FromString returns an already-materialized Rope holding s.
func FromString(s string) *Rope {
	r := &Rope{owner: Default}
	_ = r.setFlat(s)
	return r
}
