// Package ds implements the data-strobe line code and the character shift
// registers built on it.
//
// The data line carries the bit value. The strobe line changes whenever the
// data line does not, so exactly one of the two lines changes per bit and the
// receiver recovers the bit clock as D XOR S.
//
// Characters are sent parity bit first, then the control flag, then the
// payload least significant bit first:
//
//	control: P 1 c0 c1
//	data:    P 0 d0 d1 d2 d3 d4 d5 d6 d7
//
// The parity bit covers the payload of the previous character and the flag
// of the current one, keeping the running parity odd.
package ds
