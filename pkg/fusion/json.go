package fusion

import (
	"encoding/json"
	"math"
)

// finiteOrNil returns nil for values encoding/json cannot represent.
func finiteOrNil(f float64) *float64 {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil
	}
	return &f
}

// MarshalJSON encodes an unreachable cost as null.
func (p Plan) MarshalJSON() ([]byte, error) {
	type plan Plan
	return json.Marshal(struct {
		plan
		CostPerUnit *float64 `json:"cost_per_unit"`
		TotalTime   *float64 `json:"total_time"`
	}{
		plan:        plan(p),
		CostPerUnit: finiteOrNil(p.CostPerUnit),
		TotalTime:   finiteOrNil(p.TotalTime),
	})
}

// MarshalJSON encodes an unreachable cost as null.
func (e CostEntry) MarshalJSON() ([]byte, error) {
	type entry CostEntry
	return json.Marshal(struct {
		entry
		HoursPerUnit *float64 `json:"hours_per_unit"`
	}{
		entry:        entry(e),
		HoursPerUnit: finiteOrNil(e.HoursPerUnit),
	})
}
