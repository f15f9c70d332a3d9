package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Entry is one captured interaction. Subject is the owning user
// (0 for unattended system processing) and doubles as the partition key,
// so it is not repeated inside the stored record.
type Entry struct {
	Subject int64
	TS      time.Time
	Kind    string
	Payload map[string]any
}

// Time layouts accepted when reading records back. Older files were written
// by a logger that did not attach an offset to the timestamp.
var tsLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
}

// Text returns the "text" payload value, the field most producers attach.
func (e Entry) Text() string {
	if s, ok := e.Payload["text"].(string); ok {
		return s
	}
	return ""
}

// marshalLine renders the entry as its canonical stored form: a single flat
// JSON object {"ts": ..., "type": ..., <payload keys>...} with a trailing
// newline. Non-ASCII payload text is written literally.
func (e Entry) marshalLine() ([]byte, error) {
	obj := make(map[string]any, len(e.Payload)+2)
	obj["ts"] = e.TS.Format(time.RFC3339)
	obj["type"] = e.Kind
	for k, v := range e.Payload {
		if k == "ts" || k == "type" || v == nil {
			continue
		}
		obj[k] = normalizeScalar(v)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(obj); err != nil {
		return nil, fmt.Errorf("encode entry: %w", err)
	}
	return buf.Bytes(), nil
}

// normalizeScalar maps payload values onto the closed set of stored scalar
// types: string, float64, bool. Anything else degrades to its string form
// so a producer bug yields a readable record instead of an encode error.
func normalizeScalar(v any) any {
	switch x := v.(type) {
	case string, bool, float64:
		return x
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case float32:
		return float64(x)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}

// parseLine decodes one stored line. Unknown top-level keys are folded into
// the payload map, so records written by older field layouts ("timestamp"
// instead of "ts", extra "content"/"metadata" keys) still parse.
func parseLine(subject int64, line []byte) (Entry, error) {
	var obj map[string]any
	if err := json.Unmarshal(line, &obj); err != nil {
		return Entry{}, fmt.Errorf("unmarshal record: %w", err)
	}

	rawTS, ok := obj["ts"].(string)
	if !ok {
		rawTS, ok = obj["timestamp"].(string)
	}
	if !ok {
		return Entry{}, fmt.Errorf("record has no timestamp")
	}
	ts, err := parseTS(rawTS)
	if err != nil {
		return Entry{}, err
	}

	kind, _ := obj["type"].(string)

	e := Entry{Subject: subject, TS: ts, Kind: kind}
	for k, v := range obj {
		if k == "ts" || k == "timestamp" || k == "type" || v == nil {
			continue
		}
		switch v.(type) {
		case string, bool, float64:
			if e.Payload == nil {
				e.Payload = make(map[string]any)
			}
			e.Payload[k] = v
		}
	}
	return e, nil
}

func parseTS(s string) (time.Time, error) {
	for _, layout := range tsLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}
