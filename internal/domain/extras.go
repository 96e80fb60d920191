package domain

import (
	"encoding/json"
	"reflect"
	"strings"
)

// Extras holds JSON object members a record type does not model.
// They are carried through decode and encode untouched.
type Extras map[string]json.RawMessage

// jsonKeys returns the set of JSON member names declared by t's struct tags.
func jsonKeys(t reflect.Type) map[string]struct{} {
	keys := make(map[string]struct{}, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" || !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "" {
			name = f.Name
		}
		keys[name] = struct{}{}
	}
	return keys
}

// splitExtras returns the members of the JSON object data not listed in known.
func splitExtras(data []byte, known map[string]struct{}) (Extras, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for k := range all {
		if _, ok := known[k]; ok {
			delete(all, k)
		}
	}
	if len(all) == 0 {
		return nil, nil
	}
	return Extras(all), nil
}

// mergeExtras adds extra members to the encoded object base.
// Modelled fields win over extras with the same name.
func mergeExtras(base []byte, extra Extras) ([]byte, error) {
	if len(extra) == 0 {
		return base, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(base, &obj); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, ok := obj[k]; !ok {
			obj[k] = v
		}
	}
	return json.Marshal(obj)
}

func (e Extras) clone() Extras {
	if e == nil {
		return nil
	}
	out := make(Extras, len(e))
	for k, v := range e {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}
