// FILE: internal/pgn/tags.go
package pgn

type Tag struct {
	Key   string
	Value string
}

// Tags keeps header pairs in source order
type Tags []Tag

func (t Tags) Get(key string) (string, bool) {
	for _, tag := range t {
		if tag.Key == key {
			return tag.Value, true
		}
	}
	return "", false
}

// Map returns the pairs as a map, later duplicates win
func (t Tags) Map() map[string]string {
	m := make(map[string]string, len(t))
	for _, tag := range t {
		m[tag.Key] = tag.Value
	}
	return m
}

// StartFEN returns the declared custom start position, empty for the
// standard one. SetUp "0" disables a FEN tag.
func (t Tags) StartFEN() string {
	fen, ok := t.Get("FEN")
	if !ok {
		return ""
	}
	if setup, ok := t.Get("SetUp"); ok && setup == "0" {
		return ""
	}
	return fen
}
