package authx

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/arkforge/scaffold/pkg/jwtx"
)

// ClaimValues is one named group of claim values.
type ClaimValues struct {
	Name   string
	Values []string
}

// ClaimMap is an ordered mapping from claim name to its values. Entries keep
// insertion order and names may repeat; it is the caller-facing shape of the
// custom claims attached to a token, and the shape echoed back in the token
// envelope.
type ClaimMap []ClaimValues

// Add appends a new (name, values) entry. It never merges into an existing
// entry, so repeated names stay distinct.
func (m *ClaimMap) Add(name string, values ...string) {
	*m = append(*m, ClaimValues{Name: name, Values: values})
}

// Get returns the values of every entry named name, concatenated in entry
// order.
func (m ClaimMap) Get(name string) []string {
	var out []string
	for _, e := range m {
		if e.Name == name {
			out = append(out, e.Values...)
		}
	}
	return out
}

// ExpandInto appends one claim entry per value to set, preserving entry
// order and, within an entry, value order.
func (m ClaimMap) ExpandInto(set *jwtx.ClaimSet) {
	for _, e := range m {
		for _, v := range e.Values {
			set.Add(e.Name, v)
		}
	}
}

// MarshalJSON writes the map as a JSON object of name -> value array, in
// entry order. Repeated names are written once with their values
// concatenated, which is how the envelope serializes duplicates.
func (m ClaimMap) MarshalJSON() ([]byte, error) {
	var names []string
	grouped := make(map[string][]string, len(m))
	for _, e := range m {
		if _, seen := grouped[e.Name]; !seen {
			names = append(names, e.Name)
		}
		grouped[e.Name] = append(grouped[e.Name], e.Values...)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		values, err := json.Marshal(grouped[name])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(values)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object back into the map, preserving key
// order. Scalar string values and string arrays are both accepted.
func (m *ClaimMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("authx: claim map must be a JSON object")
	}

	*m = nil
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return errors.New("authx: invalid claim name")
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}

		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			var values []string
			if err := json.Unmarshal(trimmed, &values); err != nil {
				return err
			}
			m.Add(name, values...)
			continue
		}
		var value string
		if err := json.Unmarshal(trimmed, &value); err != nil {
			return err
		}
		m.Add(name, value)
	}

	_, err = dec.Token()
	return err
}

// GenerateCustomClaims assembles the custom claim map embedded into a user's
// access token: stable identity claims first, then one role entry per role
// in source order (no dedupe, no sort), then any caller-supplied claims in
// their own order.
func GenerateCustomClaims(p Principal, device DeviceType, extra ClaimMap) ClaimMap {
	claims := ClaimMap{}
	claims.Add("xid", p.ID.String())
	claims.Add("usr", p.Username)
	claims.Add("deviceType", device.String())
	for _, role := range p.Roles {
		claims.Add("role", role)
	}
	for _, e := range extra {
		claims.Add(e.Name, e.Values...)
	}
	return claims
}
