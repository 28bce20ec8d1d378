// Package export writes materialized rope values into JSON documents and
// reads them back.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/consrope/internal/engine/rope"
)

// ErrInvalidJSON is returned by Parse for malformed input.
var ErrInvalidJSON = errors.New("invalid JSON document")

// statsKey holds per-entry statistics when recorded.
const statsKey = "_stats"

// Document is a JSON object built incrementally with sjson.
// A Document is not safe for concurrent mutation.
type Document struct {
	raw string
}

// New returns an empty document.
func New() *Document {
	return &Document{raw: "{}"}
}

// Parse wraps an existing JSON object.
func Parse(data []byte) (*Document, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return nil, fmt.Errorf("%w: top level is %s, want object", ErrInvalidJSON, res.Type)
	}
	return &Document{raw: string(data)}, nil
}

// Set stores v at path. v is materialized through json.Marshaler when it
// implements it, so a *rope.Rope is flattened before it is written.
func (d *Document) Set(path string, v rope.StringLike) error {
	if err := checkPath(path); err != nil {
		return err
	}

	var raw []byte
	var err error
	if m, ok := v.(json.Marshaler); ok {
		raw, err = m.MarshalJSON()
	} else {
		var s string
		if s, err = rope.Materialize(v); err == nil {
			raw, err = json.Marshal(s)
		}
	}
	if err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}

	out, err := sjson.SetRaw(d.raw, path, string(raw))
	if err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	d.raw = out
	return nil
}

// SetStats records s under _stats.<path>.
func (d *Document) SetStats(path string, s rope.Stats) error {
	if err := checkPath(path); err != nil {
		return err
	}
	base := statsKey + "." + path
	fields := []struct {
		key string
		val any
	}{
		{"len", s.Len},
		{"nodes", s.Nodes},
		{"rightSpine", s.RightSpine},
		{"materialized", s.Materialized},
	}
	out := d.raw
	for _, f := range fields {
		var err error
		if out, err = sjson.Set(out, base+"."+f.key, f.val); err != nil {
			return fmt.Errorf("export stats %s: %w", path, err)
		}
	}
	d.raw = out
	return nil
}

// Get returns the string at path as a materialized Rope.
// Non-string values are returned in their JSON form.
func (d *Document) Get(path string) (*rope.Rope, bool) {
	res := gjson.Get(d.raw, path)
	if !res.Exists() {
		return nil, false
	}
	if res.Type == gjson.String {
		return rope.FromString(res.String()), true
	}
	return rope.FromString(res.Raw), true
}

// Delete removes path.
func (d *Document) Delete(path string) error {
	out, err := sjson.Delete(d.raw, path)
	if err != nil {
		return fmt.Errorf("export delete %s: %w", path, err)
	}
	d.raw = out
	return nil
}

// Names returns the top-level keys in document order, excluding _stats.
func (d *Document) Names() []string {
	var names []string
	gjson.Parse(d.raw).ForEach(func(key, _ gjson.Result) bool {
		if k := key.String(); k != statsKey {
			names = append(names, k)
		}
		return true
	})
	return names
}

// Bytes returns the document.
func (d *Document) Bytes() []byte {
	return []byte(d.raw)
}

// String returns the document.
func (d *Document) String() string {
	return d.raw
}

// WriteTo writes the document to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, d.raw)
	return int64(n), err
}

// checkPath rejects paths that sjson would interpret as queries or
// wildcards.
func checkPath(path string) error {
	if path == "" {
		return errors.New("export: empty path")
	}
	if strings.ContainsAny(path, "*?#|") {
		return fmt.Errorf("export: path %q contains a query character", path)
	}
	return nil
}
