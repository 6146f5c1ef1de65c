package valuegeneration

// Interesting8 holds boundary values injected into single bytes.
var Interesting8 = []int8{-128, -1, 0, 1, 16, 32, 64, 100, 127}

// Interesting16 holds boundary values injected into two byte regions.
var Interesting16 = append(widen16(Interesting8), -32768, -129, 128, 255, 256, 512, 1000, 1024, 4096, 32767)

// Interesting32 holds boundary values injected into four byte regions.
var Interesting32 = append(widen32(Interesting16), -2147483648, -100663046, -32769, 32768, 65535, 65536, 100663045, 2147483647)

// threeSigmaMultipliers define the three standard deviation range of the gaussian noise mutation, relative to the
// mutated value. A multiplier of 0.25 bounds three standard deviations at 25% of the value.
var threeSigmaMultipliers = []float64{0.1, 0.25, 0.5, 1, 2, 5, 10}

func widen16(values []int8) []int16 {
	out := make([]int16, len(values))
	for i, v := range values {
		out[i] = int16(v)
	}
	return out
}

func widen32(values []int16) []int32 {
	out := make([]int32, len(values))
	for i, v := range values {
		out[i] = int32(v)
	}
	return out
}
