package backend

import (
	"encoding/json"
	"strconv"
	"strings"
)

// flexInt decodes numbers that form-backed documents sometimes store as
// strings ("15") or leave empty ("" or null), which read as zero.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		if n == "" {
			*f = 0
			return nil
		}
		v, err := n.Float64()
		if err != nil {
			return err
		}
		*f = flexInt(v)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*f = 0
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*f = 0
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*f = flexInt(v)
	return nil
}
