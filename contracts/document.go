package contracts

// Document is the flat structured form envelopes are built on: a
// mapping from field name to a heterogeneous value (string, number,
// boolean or nested Document). Lookups are by key; insertion order
// carries no meaning.
type Document map[string]any

// NewDocument creates an empty document.
func NewDocument() Document {
	return make(Document)
}

// GetString returns the string stored under key. The second return
// value is false if the key is missing or holds a non-string value.
func (d Document) GetString(key string) (string, bool) {
	v, ok := d[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetInt returns the integer stored under key. Numeric values that
// went through a JSON round trip come back as float64, so whole
// floats are accepted as well.
func (d Document) GetInt(key string) (int, bool) {
	v, ok := d[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// GetBool returns the boolean stored under key, or false if the key
// is missing or holds a non-boolean value.
func (d Document) GetBool(key string) (bool, bool) {
	v, ok := d[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// GetDocument returns the nested document stored under key. Nested
// documents deserialized from JSON arrive as map[string]any and are
// converted on the way out.
func (d Document) GetDocument(key string) (Document, bool) {
	v, ok := d[key]
	if !ok {
		return nil, false
	}
	switch doc := v.(type) {
	case Document:
		return doc, true
	case map[string]any:
		return Document(doc), true
	default:
		return nil, false
	}
}

// Copy returns a deep copy of the document. Nested documents and
// slices are copied recursively so mutating the copy never affects
// the original.
func (d Document) Copy() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch val := v.(type) {
	case Document:
		return val.Copy()
	case map[string]any:
		return Document(val).Copy()
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = copyValue(item)
		}
		return out
	case []byte:
		out := make([]byte, len(val))
		copy(out, val)
		return out
	default:
		return v
	}
}
