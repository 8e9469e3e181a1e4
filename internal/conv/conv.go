// Package conv holds checked integer conversions for program construction.
package conv

import "math"

// IntToUint32 converts n, panicking when it does not fit. Programs index
// instructions with uint32, so an overflow means the compile limits failed.
func IntToUint32(n int) uint32 {
	if n < 0 || uint(n) > math.MaxUint32 {
		panic("conv: int value out of uint32 range")
	}
	return uint32(n)
}
