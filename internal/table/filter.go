package table

// AgeRange is an inclusive age interval
type AgeRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether age lies in the closed interval
func (r AgeRange) Contains(age int) bool {
	return age >= r.Min && age <= r.Max
}

// Clamp moves both ends of r into bounds. A range lying wholly outside
// bounds collapses onto the nearest bound.
func (r AgeRange) Clamp(bounds AgeRange) AgeRange {
	return AgeRange{
		Min: clampInt(r.Min, bounds.Min, bounds.Max),
		Max: clampInt(r.Max, bounds.Min, bounds.Max),
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ObservedAgeRange returns the smallest and largest known age
func ObservedAgeRange(rows []CustomerRow) (AgeRange, bool) {
	var r AgeRange
	found := false
	for _, row := range rows {
		if row.Age == nil {
			continue
		}
		age := *row.Age
		if !found {
			r = AgeRange{Min: age, Max: age}
			found = true
			continue
		}
		if age < r.Min {
			r.Min = age
		}
		if age > r.Max {
			r.Max = age
		}
	}
	return r, found
}

// FilterByAge returns the rows whose age lies in r. Rows without an age are
// never included. The input slice is left untouched.
func FilterByAge(rows []CustomerRow, r AgeRange) []CustomerRow {
	out := make([]CustomerRow, 0, len(rows))
	for _, row := range rows {
		if row.Age != nil && r.Contains(*row.Age) {
			out = append(out, row)
		}
	}
	return out
}
