package datalog

import (
	"bytes"
	"encoding/json"
)

// Record is one history entry. TS is milliseconds since the Unix epoch,
// assigned when the entry was logged.
type Record struct {
	TS      int64  `json:"ts"`
	Payload string `json:"payload"`
}

// marshalJSON encodes v the way a browser's JSON.stringify would for the same
// data: no HTML escaping and no trailing newline.
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

// encodedSize returns the length of r's JSON encoding.
func encodedSize(r Record) int64 {
	b, err := marshalJSON(r)
	if err != nil {
		// Record only holds an int64 and a string; encoding cannot fail.
		return 0
	}
	return int64(len(b))
}

// SerializedSize returns the byte length of the JSON array encoding of recs.
func SerializedSize(recs []Record) int64 {
	b, _ := marshalJSON(normalize(recs))
	return int64(len(b))
}

// normalize maps a nil slice to an empty one so it encodes as [] not null.
func normalize(recs []Record) []Record {
	if recs == nil {
		return []Record{}
	}
	return recs
}
