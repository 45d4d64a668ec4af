package domain

// ResultRecord is one user query and the answers known for it so far.
// Prime and Factorial are independently optional; a nil pointer means the
// attribute has not been computed yet.
type ResultRecord struct {
	ID        string  `json:"id,omitempty"`
	Number    Number  `json:"number"`
	Prime     *bool   `json:"prime,omitempty"`
	Factorial *string `json:"factorial,omitempty"`
}

// HasPrime reports whether the primality answer is known.
func (r ResultRecord) HasPrime() bool {
	return r.Prime != nil
}

// HasFactorial reports whether the factorial answer is known.
func (r ResultRecord) HasFactorial() bool {
	return r.Factorial != nil
}

// Missing lists the modes that would fill the record's absent attributes.
func (r ResultRecord) Missing() []Mode {
	var modes []Mode
	if !r.HasPrime() {
		modes = append(modes, ModePrime)
	}
	if !r.HasFactorial() {
		modes = append(modes, ModeFactorial)
	}
	return modes
}

// Clone returns a deep copy so callers never share the optional fields.
func (r ResultRecord) Clone() ResultRecord {
	out := r
	if r.Prime != nil {
		v := *r.Prime
		out.Prime = &v
	}
	if r.Factorial != nil {
		v := *r.Factorial
		out.Factorial = &v
	}
	return out
}

// ResultPatch names the optional fields a partial update replaces.
type ResultPatch struct {
	Prime     *bool
	Factorial *string
}

// Empty reports whether the patch changes nothing.
func (p ResultPatch) Empty() bool {
	return p.Prime == nil && p.Factorial == nil
}

// Apply returns a copy of record with the patch's set fields replaced.
// Number and ID are never touched.
func (p ResultPatch) Apply(record ResultRecord) ResultRecord {
	out := record.Clone()
	if p.Prime != nil {
		v := *p.Prime
		out.Prime = &v
	}
	if p.Factorial != nil {
		v := *p.Factorial
		out.Factorial = &v
	}
	return out
}

// PrimePatch builds a patch that sets only the prime field.
func PrimePatch(prime bool) ResultPatch {
	return ResultPatch{Prime: &prime}
}

// FactorialPatch builds a patch that sets only the factorial field.
func FactorialPatch(factorial string) ResultPatch {
	return ResultPatch{Factorial: &factorial}
}

// BoolPtr is a small helper for building records in literals.
func BoolPtr(v bool) *bool {
	return &v
}

// StringPtr is a small helper for building records in literals.
func StringPtr(v string) *string {
	return &v
}

// HistoryStats summarizes a history for display.
type HistoryStats struct {
	Entries          int
	Primes           int
	NotPrimes        int
	MissingPrime     int
	MissingFactorial int
}

// Stats tallies the given records.
func Stats(records []ResultRecord) HistoryStats {
	stats := HistoryStats{Entries: len(records)}
	for _, rec := range records {
		switch {
		case rec.Prime == nil:
			stats.MissingPrime++
		case *rec.Prime:
			stats.Primes++
		default:
			stats.NotPrimes++
		}
		if rec.Factorial == nil {
			stats.MissingFactorial++
		}
	}
	return stats
}
