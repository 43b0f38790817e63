package codec

// ChecksumSeed is the initial value of the additive checksum.
const ChecksumSeed = 45

// Checksum computes the 8-bit additive checksum of p.
//
// The accumulator is a signed 8-bit value seeded with ChecksumSeed; every byte
// is added as a signed 8-bit value and the sum wraps on overflow. Because it
// is a plain sum the result does not depend on byte order: [1 2 3] and
// [3 2 1] produce the same checksum.
func Checksum(p []byte) uint8 {
	sum := int8(ChecksumSeed)
	for _, b := range p {
		sum += int8(b)
	}
	return uint8(sum)
}
