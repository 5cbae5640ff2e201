package samples

import (
	"encoding/json"
	"fmt"
)

// DecodeError reports a sample file that could not be decoded.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode samples %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// record is the on-disk shape; exactly one of the value fields is set,
// depending on the metric.
type record struct {
	Time     string   `json:"time"`
	FPS      *float64 `json:"fps,omitempty"`
	GPU      *float64 `json:"gpu,omitempty"`
	CPU      *float64 `json:"cpu,omitempty"`
	Memory   *float64 `json:"memory,omitempty"`
	Resident *float64 `json:"resident_size,omitempty"`
}

func (r *record) field(k Kind) **float64 {
	switch k {
	case FPS:
		return &r.FPS
	case GPU:
		return &r.GPU
	case CPU:
		return &r.CPU
	case MEM:
		return &r.Memory
	}
	return nil
}

// Encode serializes samples in the JSON shape of the metric.
func Encode(k Kind, raws []Raw) ([]byte, error) {
	records := make([]record, 0, len(raws))
	for _, s := range raws {
		rec := record{Time: s.Time}
		f := rec.field(k)
		if f == nil {
			return nil, fmt.Errorf("unknown metric %q", k)
		}
		v := s.Value
		*f = &v
		if k == MEM {
			res := s.Resident
			rec.Resident = &res
		}
		records = append(records, rec)
	}
	return json.MarshalIndent(records, "", "  ")
}

// Decode parses a JSON array of samples of the given metric. Every element
// must carry the time and the metric's value field.
func Decode(k Kind, data []byte) ([]Raw, error) {
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}

	raws := make([]Raw, 0, len(records))
	for i := range records {
		rec := &records[i]
		f := rec.field(k)
		if f == nil {
			return nil, fmt.Errorf("unknown metric %q", k)
		}
		if *f == nil {
			return nil, fmt.Errorf("sample %d has no %q value", i, k)
		}
		s := Raw{Time: rec.Time, Value: **f}
		if rec.Resident != nil {
			s.Resident = *rec.Resident
		}
		raws = append(raws, s)
	}
	return raws, nil
}
