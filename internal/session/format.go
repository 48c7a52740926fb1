package session

// FormatOptions is a pure value transform applied to raw register reads.
// It carries no protocol meaning; register semantics (which address holds
// what, at which scale) are the caller's knowledge, not the session's.
type FormatOptions struct {
	// Scale multiplies the assembled value. Zero means no scaling.
	Scale float64
	// Signed interprets the assembled value as two's complement over
	// registerCount*16 bits.
	Signed bool
	// Bitmask is ANDed into the value after scaling. Zero means no mask.
	Bitmask int64
	// Bitshift shifts the value right (negative: left) after masking.
	Bitshift int
}

// ApplyFormat assembles registers big-endian (first register most
// significant) into a single value and applies the transform steps in
// fixed order: signed interpretation, scale, bitmask, bitshift.
func ApplyFormat(values []uint16, opts FormatOptions) float64 {
	var raw uint64
	for _, v := range values {
		raw = raw<<16 | uint64(v)
	}

	result := float64(raw)
	if opts.Signed && len(values) > 0 && len(values) <= 4 {
		// Sign-extend from registerCount*16 bits to 64.
		shift := uint(64 - len(values)*16)
		result = float64(int64(raw<<shift) >> shift)
	}
	if opts.Scale != 0 {
		result *= opts.Scale
	}
	if opts.Bitmask != 0 {
		result = float64(int64(result) & opts.Bitmask)
	}
	if opts.Bitshift > 0 {
		result = float64(int64(result) >> uint(opts.Bitshift))
	} else if opts.Bitshift < 0 {
		result = float64(int64(result) << uint(-opts.Bitshift))
	}
	return result
}
