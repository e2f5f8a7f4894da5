package score

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Values is a monthly metric sequence, oldest first. NaN marks a month with
// no usable number.
type Values []float64

// At returns the value at index i, or NaN when i is out of range.
func (v Values) At(i int) float64 {
	if i < 0 || i >= len(v) {
		return math.NaN()
	}
	return v[i]
}

// UnmarshalJSON accepts numbers, numeric strings and nulls. Anything that is
// not a number becomes NaN rather than failing the whole document.
func (v *Values) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		// A non-array value (null, string, object) carries no months.
		*v = nil
		return nil
	}

	out := make(Values, len(raw))
	for i, elem := range raw {
		out[i] = parseElement(elem)
	}
	*v = out
	return nil
}

// MarshalJSON writes NaN months as null.
func (v Values) MarshalJSON() ([]byte, error) {
	out := make([]*float64, len(v))
	for i := range v {
		if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			continue
		}
		f := v[i]
		out[i] = &f
	}
	return json.Marshal(out)
}

func parseElement(elem json.RawMessage) float64 {
	if string(bytes.TrimSpace(elem)) == "null" {
		return math.NaN()
	}

	var f float64
	if err := json.Unmarshal(elem, &f); err == nil {
		return f
	}

	var s string
	if err := json.Unmarshal(elem, &s); err != nil {
		return math.NaN()
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return math.NaN()
	}
	return f
}

// BrandMetrics holds the raw monthly activity series for one brand.
type BrandMetrics struct {
	BrandName   string `json:"brand_name"`
	TopCategory string `json:"top_category,omitempty"`
	SubCategory string `json:"sub_category,omitempty"`
	Logo        string `json:"logo,omitempty"`
	PlaceCount  int    `json:"place_count,omitempty"`

	VisitsYoY   Values `json:"visits_yoy_array"`
	SpendYoY    Values `json:"spend_yoy_array"`
	TxnsYoY     Values `json:"txns_yoy_array"`
	VisitsIndex Values `json:"visits_index_array"`
	SpendIndex  Values `json:"spend_index_array"`
	TxnsIndex   Values `json:"txns_index_array"`
}

// Length returns the longest of the six sequences.
func (m BrandMetrics) Length() int {
	n := 0
	for _, v := range m.sequences() {
		if len(v) > n {
			n = len(v)
		}
	}
	return n
}

// Aligned returns a copy whose sequences all have Length() entries. Shorter
// sequences hold the most recent months, so they are padded with NaN at the
// front.
func (m BrandMetrics) Aligned() BrandMetrics {
	n := m.Length()
	out := m
	out.VisitsYoY = padLeft(m.VisitsYoY, n)
	out.SpendYoY = padLeft(m.SpendYoY, n)
	out.TxnsYoY = padLeft(m.TxnsYoY, n)
	out.VisitsIndex = padLeft(m.VisitsIndex, n)
	out.SpendIndex = padLeft(m.SpendIndex, n)
	out.TxnsIndex = padLeft(m.TxnsIndex, n)
	return out
}

func (m BrandMetrics) sequences() []Values {
	return []Values{m.VisitsYoY, m.SpendYoY, m.TxnsYoY, m.VisitsIndex, m.SpendIndex, m.TxnsIndex}
}

func padLeft(v Values, n int) Values {
	out := make(Values, n)
	offset := n - len(v)
	for i := 0; i < offset; i++ {
		out[i] = math.NaN()
	}
	copy(out[offset:], v)
	return out
}
