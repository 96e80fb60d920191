package migration

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/tillpoint/tillpoint-server/internal/naming"
)

// Record is one stored JSON object held member by member. Migrations set
// only the members they own, so everything else is written back as read.
type Record map[string]json.RawMessage

// String returns the member key when it is a JSON string.
func (r Record) String(key string) (string, bool) {
	raw, ok := r[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func (r Record) setString(key, value string) {
	raw, _ := json.Marshal(value)
	r[key] = raw
}

// setNonEmpty sets key to value unless value is empty or already stored,
// reporting whether it wrote.
func (r Record) setNonEmpty(key, value string) bool {
	if value == "" {
		return false
	}
	if cur, ok := r.String(key); ok && cur == value {
		return false
	}
	r.setString(key, value)
	return true
}

// decode unmarshals the named members into v. Other members are ignored, so
// a mistyped member the caller does not read cannot fail it.
func (r Record) decode(v any, keys ...string) error {
	sub := make(Record, len(keys))
	for _, k := range keys {
		if raw, ok := r[k]; ok {
			sub[k] = raw
		}
	}
	data, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// recordFunc migrates one record in place and returns how many changes it
// made. i is the record's position in its array.
type recordFunc func(i int, r Record) (int, error)

// rewriteArray applies fn to every object in the JSON array data. Elements fn
// does not change keep their original bytes. A null element is passed over.
func rewriteArray(data []byte, fn recordFunc) (out []byte, records, changed int, err error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, 0, 0, fmt.Errorf("parse: %w", err)
	}
	for i, elem := range elems {
		var r Record
		if err := json.Unmarshal(elem, &r); err != nil {
			return nil, len(elems), 0, fmt.Errorf("parse: element %d: %w", i, err)
		}
		if r == nil {
			continue
		}
		n, err := fn(i, r)
		if err != nil {
			return nil, len(elems), 0, err
		}
		if n == 0 {
			continue
		}
		encoded, err := json.Marshal(r)
		if err != nil {
			return nil, len(elems), 0, fmt.Errorf("encode: element %d: %w", i, err)
		}
		elems[i] = encoded
		changed += n
	}
	if changed == 0 {
		return data, len(elems), 0, nil
	}
	out, err = json.Marshal(elems)
	if err != nil {
		return nil, len(elems), 0, fmt.Errorf("encode: %w", err)
	}
	return out, len(elems), changed, nil
}

// recordStep adapts a per-record migrator to a Step. records counts top
// level elements. A collection nothing changed in is returned as read.
func recordStep(key string, fn recordFunc) Step {
	return Step{
		Key: key,
		Migrate: func(raw string) (string, int, int, error) {
			out, records, changed, err := rewriteArray([]byte(raw), fn)
			if err != nil {
				return "", records, 0, err
			}
			if changed == 0 {
				return raw, records, 0, nil
			}
			return string(out), records, changed, nil
		},
	}
}

// migrateRecords applies fn to a copy of each record. Unchanged records are
// returned as given.
func migrateRecords(in []Record, fn recordFunc) ([]Record, int, error) {
	if in == nil {
		return nil, 0, nil
	}
	out := make([]Record, len(in))
	total := 0
	for i, r := range in {
		out[i] = r
		if r == nil {
			continue
		}
		c := maps.Clone(r)
		n, err := fn(i, c)
		if err != nil {
			return nil, 0, err
		}
		if n > 0 {
			out[i] = c
			total += n
		}
	}
	return out, total, nil
}

// renameMember replaces a legacy name held in the string member key.
func renameMember(r Record, key string) bool {
	name, ok := r.String(key)
	if !ok {
		return false
	}
	n := naming.SafeConvertOldToNewName(name)
	if n == name {
		return false
	}
	r.setString(key, n)
	return true
}
