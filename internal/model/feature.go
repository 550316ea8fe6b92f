package model

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// FeatureKind describes how a feature value is encoded for the classifier.
type FeatureKind int

const (
	// KindCount is a non-negative integer count.
	KindCount FeatureKind = iota
	// KindFlag is a boolean encoded as 0 or 1.
	KindFlag
	// KindRatio is a float in [0,1]; 0 when its denominator is 0.
	KindRatio
)

// String returns the kind name used in reports.
func (k FeatureKind) String() string {
	switch k {
	case KindCount:
		return "count"
	case KindFlag:
		return "flag"
	case KindRatio:
		return "ratio"
	default:
		return "unknown"
	}
}

// Feature is one named value of a FeatureRecord.
type Feature struct {
	// Name is the classifier input name. The spelling is part of the
	// classifier contract and must not be changed.
	Name string `json:"name"`

	// Kind tells how Value is encoded.
	Kind FeatureKind `json:"kind"`

	// Value is the feature value. Counts and flags are whole numbers.
	Value float64 `json:"value"`
}

// Count creates a count feature.
func Count(name string, n int) Feature {
	return Feature{Name: name, Kind: KindCount, Value: float64(n)}
}

// Flag creates a 0/1 feature.
func Flag(name string, b bool) Feature {
	if b {
		return Feature{Name: name, Kind: KindFlag, Value: 1}
	}
	return Feature{Name: name, Kind: KindFlag, Value: 0}
}

// Ratio creates a ratio feature. A zero denominator yields 0.
func Ratio(name string, numerator, denominator int) Feature {
	if denominator == 0 {
		return Feature{Name: name, Kind: KindRatio, Value: 0}
	}
	return Feature{Name: name, Kind: KindRatio, Value: float64(numerator) / float64(denominator)}
}

// FeatureRecord is the fixed-schema numeric description of a page.
// It is immutable: the constructor copies its input and every accessor
// returns copies.
//
// Design decision: We keep an ordered slice rather than a map or a struct
// with 42 tagged fields. The order is what the page collaborator has always
// sent, the JSON encoding keeps it, and the feature engine can be assembled
// from independent extractors without a central struct that every extractor
// has to know about.
type FeatureRecord struct {
	features []Feature
	index    map[string]int
}

// NewFeatureRecord creates a record from the given features.
// When a name repeats, the later value wins but the first position is kept.
func NewFeatureRecord(features []Feature) FeatureRecord {
	r := FeatureRecord{
		features: make([]Feature, 0, len(features)),
		index:    make(map[string]int, len(features)),
	}
	for _, f := range features {
		if i, ok := r.index[f.Name]; ok {
			r.features[i] = f
			continue
		}
		r.index[f.Name] = len(r.features)
		r.features = append(r.features, f)
	}
	return r
}

// Len returns the number of features.
func (r FeatureRecord) Len() int {
	return len(r.features)
}

// Features returns a copy of the features in record order.
func (r FeatureRecord) Features() []Feature {
	out := make([]Feature, len(r.features))
	copy(out, r.features)
	return out
}

// Names returns the feature names in record order.
func (r FeatureRecord) Names() []string {
	names := make([]string, len(r.features))
	for i, f := range r.features {
		names[i] = f.Name
	}
	return names
}

// Get returns the value of the named feature.
func (r FeatureRecord) Get(name string) (float64, bool) {
	i, ok := r.index[name]
	if !ok {
		return 0, false
	}
	return r.features[i].Value, true
}

// Int returns the named feature as an int, or 0 when it is missing.
func (r FeatureRecord) Int(name string) int {
	v, _ := r.Get(name)
	return int(v)
}

// Map returns the record as a name to value map.
func (r FeatureRecord) Map() map[string]float64 {
	m := make(map[string]float64, len(r.features))
	for _, f := range r.features {
		m[f.Name] = f.Value
	}
	return m
}

// Equal reports whether two records have the same features in the same order
// with bit-identical values.
func (r FeatureRecord) Equal(other FeatureRecord) bool {
	if len(r.features) != len(other.features) {
		return false
	}
	for i, f := range r.features {
		if f != other.features[i] {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the record as a flat JSON object in record order.
// Counts and flags are written as integers, ratios as JSON numbers.
func (r FeatureRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.features {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		if f.Kind == KindRatio {
			val, err := json.Marshal(f.Value)
			if err != nil {
				return nil, err
			}
			buf.Write(val)
			continue
		}
		buf.WriteString(strconv.FormatInt(int64(f.Value), 10))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a flat JSON object of numbers, keeping document order.
// Whole numbers become counts and fractional numbers become ratios, which is
// enough to round-trip stored reports.
func (r *FeatureRecord) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return ErrInvalidFeatureRecord
	}

	features := make([]Feature, 0)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string) //nolint:errcheck // object keys are always strings

		var num json.Number
		if err := dec.Decode(&num); err != nil {
			return err
		}

		kind := KindCount
		if _, err := num.Int64(); err != nil {
			kind = KindRatio
		}
		val, err := num.Float64()
		if err != nil {
			return err
		}
		features = append(features, Feature{Name: key, Kind: kind, Value: val})
	}

	*r = NewFeatureRecord(features)
	return nil
}
