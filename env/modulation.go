package env

import "math"

// Modulation is a transmission format with its spectral efficiency and
// transparent reach
type Modulation struct {
	Name          string
	BitsPerSymbol float64
	MaxReachKM    float64
}

// DefaultModulations is the usual four-format table: higher-order formats
// carry more bits per symbol but reach shorter distances
func DefaultModulations() []Modulation {
	return []Modulation{
		{Name: "BPSK", BitsPerSymbol: 1, MaxReachKM: 4000},
		{Name: "QPSK", BitsPerSymbol: 2, MaxReachKM: 2000},
		{Name: "8QAM", BitsPerSymbol: 3, MaxReachKM: 1000},
		{Name: "16QAM", BitsPerSymbol: 4, MaxReachKM: 500},
	}
}

// FixedModulation is the single-format table used by plain RSA, where the
// spectral efficiency is constant and reach is unconstrained
func FixedModulation() []Modulation {
	return []Modulation{
		{Name: "BPSK", BitsPerSymbol: 1, MaxReachKM: math.Inf(1)},
	}
}

// BestFormat picks the most efficient format whose reach covers the path
// length. Returns false if no format reaches.
func BestFormat(formats []Modulation, lengthKM float64) (Modulation, bool) {
	best := Modulation{}
	found := false
	for _, f := range formats {
		if f.MaxReachKM >= lengthKM && (!found || f.BitsPerSymbol > best.BitsPerSymbol) {
			best = f
			found = true
		}
	}
	return best, found
}

// RequiredSlots is the FSU count to carry the bit-rate with the format:
// ceil(bitrate / (bits-per-symbol * slot width))
func RequiredSlots(bitRateGbps, bitsPerSymbol, slotWidthGHz float64) int {
	return int(math.Ceil(bitRateGbps / (bitsPerSymbol * slotWidthGHz)))
}
