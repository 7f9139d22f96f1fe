package commitstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// member is one key/value pair of a JSON object, kept in file order.
type member struct {
	Key   string
	Value json.RawMessage
}

// Decode parses a sidecar file. Three historical shapes are accepted besides
// the current one:
//
//	[ {record}, ... ]                                 flat list, one implicit branch
//	{"branches": [...], "current_branch": "main",
//	 "commits": {"main": [ {record}, ... ], ...}}      per-branch lists
//	{"commits": {"main": [ {record}, ... ]}}          per-branch lists, no branch index
//
// Branch grouping is discarded; parent pointers carry the history. Records
// that are not objects, lack an id, or lack a parseable timestamp are
// dropped, and the first occurrence of a duplicated id wins.
func Decode(data []byte, opts ...Option) (*Store, error) {
	s := New(opts...)

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty document")
	}

	var candidates []member
	var head string

	switch trimmed[0] {
	case '[':
		// Flat list: wrap as the single "main" branch, then flatten like any
		// other branch list.
		list, err := arrayElements(trimmed)
		if err != nil {
			return nil, err
		}
		candidates = flattenBranches([]member{{Key: "main", Value: list}})

	case '{':
		top, err := objectMembers(trimmed)
		if err != nil {
			return nil, err
		}
		var commitsRaw json.RawMessage
		for _, m := range top {
			switch m.Key {
			case "commits":
				commitsRaw = m.Value
			case "current_head":
				// null, missing or non-string heads all mean "no head".
				_ = json.Unmarshal(m.Value, &head)
			}
		}
		candidates, err = commitEntries(commitsRaw)
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unexpected top-level JSON value %q", trimmed[0])
	}

	sanitize(s, candidates)

	if head != "" && !s.has(head) {
		s.logger.Warn("dropping head that names no commit", "head", head)
		head = ""
	}
	s.head = head
	return s, nil
}

// commitEntries normalizes the "commits" value into id-keyed candidates.
// Array values are branch lists (legacy) and are flattened in place; object
// values are records keyed by their id (current shape). Mixed maps are
// handled entry by entry.
func commitEntries(raw json.RawMessage) ([]member, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '[' {
		list, err := arrayElements(raw)
		if err != nil {
			return nil, err
		}
		return flattenBranches([]member{{Key: "main", Value: list}}), nil
	}

	entries, err := objectMembers(raw)
	if err != nil {
		return nil, fmt.Errorf("commits: %w", err)
	}
	var out []member
	for _, e := range entries {
		v := bytes.TrimSpace(e.Value)
		if len(v) > 0 && v[0] == '[' {
			out = append(out, flattenBranches([]member{e})...)
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// flattenBranches turns branch-name -> list-of-records members into a single
// sequence of records. The branch name is dropped; records carry no key so
// their own "id" field is used.
func flattenBranches(branches []member) []member {
	var out []member
	for _, b := range branches {
		var list []json.RawMessage
		if err := json.Unmarshal(b.Value, &list); err != nil {
			continue
		}
		for _, rec := range list {
			out = append(out, member{Value: rec})
		}
	}
	return out
}

// sanitize inserts every well-formed candidate, first occurrence first.
func sanitize(s *Store, candidates []member) {
	dropped := 0
	drop := func(key, reason string) {
		dropped++
		s.logger.Debug("dropping commit record", "key", key, "reason", reason)
	}
	for _, m := range candidates {
		var r record
		if err := json.Unmarshal(m.Value, &r); err != nil {
			drop(m.Key, err.Error())
			continue
		}
		c, err := r.toCommit(m.Key)
		if err != nil {
			drop(m.Key, err.Error())
			continue
		}
		if !s.insert(c) {
			drop(c.ID, "duplicate id")
		}
	}
	if dropped > 0 {
		s.logger.Warn("dropped malformed or duplicate commit records", "count", dropped)
	}
}

func arrayElements(raw []byte) (json.RawMessage, error) {
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	return json.RawMessage(raw), nil
}

// objectMembers decodes a JSON object keeping key order.
func objectMembers(raw []byte) ([]member, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var out []member
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", keyTok)
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("value of %q: %w", key, err)
		}
		out = append(out, member{Key: key, Value: v})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after object")
	}
	return out, nil
}
