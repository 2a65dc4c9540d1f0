package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// NumericString is a number the API may send either as a JSON string or as a
// JSON number. The textual form is kept as received.
type NumericString string

// leadingNumber matches the longest numeric prefix, the way a lenient
// float parser reads "12abc" as 12.
var leadingNumber = regexp.MustCompile(`^[+-]?(Infinity|(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?)`)

// UnmarshalJSON accepts a string, a number or null. Any other JSON value is
// stored as empty so that one odd field only invalidates its own agent.
func (n *NumericString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("numeric string: %w", err)
		}
		*n = NumericString(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		*n = ""
		return nil
	}
	*n = NumericString(num.String())
	return nil
}

// Float parses the value. ok is false when there is no leading number.
func (n NumericString) Float() (v float64, ok bool) {
	s := strings.TrimSpace(string(n))
	m := leadingNumber.FindString(s)
	if m == "" {
		return 0, false
	}
	switch strings.TrimLeft(m, "+-") {
	case "Infinity":
		if strings.HasPrefix(m, "-") {
			return math.Inf(-1), true
		}
		return math.Inf(1), true
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		// Out of range still yields ±Inf, which is a number.
		if ne, isNum := err.(*strconv.NumError); isNum && ne.Err == strconv.ErrRange {
			return v, true
		}
		return 0, false
	}
	return v, true
}

// IsZero reports whether the field was absent or null.
func (n NumericString) IsZero() bool { return n == "" }

func (n NumericString) String() string { return string(n) }
