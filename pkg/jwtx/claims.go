package jwtx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claim is a single (name, value) assertion about the token subject. Values
// are strings on the wire; Number marks entries that serialize as JSON
// numbers (the registered exp/nbf lifetime claims).
type Claim struct {
	Name   string
	Value  string
	Number bool
}

// ClaimSet is an ordered multimap of claims. Names are allowed to repeat,
// multiple values for the same name are kept as separate entries in
// insertion order rather than merged. Serialization is deterministic: keys
// appear in first-insertion order, repeated names collapse into a JSON array
// that preserves entry order.
type ClaimSet struct {
	entries []Claim
}

// Add appends a string-valued claim entry. Duplicate names are permitted.
func (s *ClaimSet) Add(name, value string) {
	s.entries = append(s.entries, Claim{Name: name, Value: value})
}

// AddNumber appends a claim entry that serializes as a JSON number.
func (s *ClaimSet) AddNumber(name string, value int64) {
	s.entries = append(s.entries, Claim{Name: name, Value: strconv.FormatInt(value, 10), Number: true})
}

// Entries returns the claim entries in insertion order.
func (s *ClaimSet) Entries() []Claim { return s.entries }

// Len returns the number of claim entries.
func (s *ClaimSet) Len() int { return len(s.entries) }

// First returns the first value recorded for name.
func (s *ClaimSet) First(name string) (string, bool) {
	for _, c := range s.entries {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

// Values returns every value recorded for name, in insertion order.
func (s *ClaimSet) Values(name string) []string {
	var out []string
	for _, c := range s.entries {
		if c.Name == name {
			out = append(out, c.Value)
		}
	}
	return out
}

// Has reports whether at least one entry exists for name.
func (s *ClaimSet) Has(name string) bool {
	_, ok := s.First(name)
	return ok
}

// Clone returns an independent copy of the set.
func (s *ClaimSet) Clone() ClaimSet {
	entries := make([]Claim, len(s.entries))
	copy(entries, s.entries)
	return ClaimSet{entries: entries}
}

// MarshalJSON writes the set as a JSON object. Keys appear in
// first-insertion order; a name with a single entry is written as a scalar,
// a repeated name as an array in entry order.
func (s ClaimSet) MarshalJSON() ([]byte, error) {
	var names []string
	grouped := make(map[string][]Claim, len(s.entries))
	for _, c := range s.entries {
		if _, seen := grouped[c.Name]; !seen {
			names = append(names, c.Name)
		}
		grouped[c.Name] = append(grouped[c.Name], c)
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
		buf.Write(key)
		buf.WriteByte(':')

		claims := grouped[name]
		if len(claims) == 1 {
			if err := writeClaimValue(&buf, claims[0]); err != nil {
				return nil, err
			}
			continue
		}

		buf.WriteByte('[')
		for j, c := range claims {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := writeClaimValue(&buf, c); err != nil {
				return nil, err
			}
		}
		buf.WriteByte(']')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeClaimValue(buf *bytes.Buffer, c Claim) error {
	if c.Number {
		buf.WriteString(c.Value)
		return nil
	}
	v, err := json.Marshal(c.Value)
	if err != nil {
		return err
	}
	buf.Write(v)
	return nil
}

// UnmarshalJSON reads a JSON object back into an ordered claim set. Arrays
// expand to one entry per element, string values round-trip byte-identical
// and numbers keep their literal form.
func (s *ClaimSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("jwtx: claim set must be a JSON object")
	}

	s.entries = nil
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("jwtx: invalid claim name")
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if err := s.appendRaw(name, raw); err != nil {
			return err
		}
	}

	// Closing brace
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

func (s *ClaimSet) appendRaw(name string, raw json.RawMessage) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return fmt.Errorf("jwtx: empty claim value for %q", name)
	}

	if trimmed[0] == '[' {
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return err
		}
		for _, e := range elems {
			if err := s.appendScalar(name, e); err != nil {
				return err
			}
		}
		return nil
	}
	return s.appendScalar(name, trimmed)
}

func (s *ClaimSet) appendScalar(name string, raw json.RawMessage) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		s.Add(name, v)
		return nil
	}
	// Numbers, booleans and nested objects keep their literal JSON form.
	s.entries = append(s.entries, Claim{Name: name, Value: string(raw), Number: true})
	return nil
}

// numericTime interprets the first value of name as epoch seconds.
func (s *ClaimSet) numericTime(name string) (*jwt.NumericDate, error) {
	v, ok := s.First(name)
	if !ok {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("jwtx: claim %q is not a timestamp: %w", name, err)
	}
	return jwt.NewNumericDate(unixFloat(f)), nil
}

func unixFloat(f float64) time.Time {
	sec := int64(f)
	nsec := int64((f - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC()
}

// The jwt.Claims contract. Validation runs through Policy, which parses with
// claims validation disabled, so these exist to satisfy the parser.

func (s *ClaimSet) GetExpirationTime() (*jwt.NumericDate, error) { return s.numericTime("exp") }
func (s *ClaimSet) GetNotBefore() (*jwt.NumericDate, error)      { return s.numericTime("nbf") }

// GetIssuedAt always reports no issued-at: the iat claim in this token
// format is a custom epoch-millisecond string, never a NumericDate.
func (s *ClaimSet) GetIssuedAt() (*jwt.NumericDate, error) { return nil, nil }

func (s *ClaimSet) GetIssuer() (string, error) {
	iss, _ := s.First("iss")
	return iss, nil
}

func (s *ClaimSet) GetSubject() (string, error) {
	sub, _ := s.First("sub")
	return sub, nil
}

func (s *ClaimSet) GetAudience() (jwt.ClaimStrings, error) {
	return jwt.ClaimStrings(s.Values("aud")), nil
}
