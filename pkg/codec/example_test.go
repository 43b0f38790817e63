package codec_test

import (
	"fmt"
	"log"

	"github.com/ssargent/nvrecord/pkg/codec"
)

// ExampleRecordCodec demonstrates framing a payload for a key-value store
func ExampleRecordCodec() {
	c := codec.NewRecordCodec(1984)

	frame, err := c.Encode([]byte{1, 2, 3})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Frame: % X\n", frame)

	payload, err := c.Decode(frame, 3)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Payload: %v\n", payload)

	// Output:
	// Frame: 03 00 33 01 02 03
	// Payload: [1 2 3]
}

// ExampleParseSignature demonstrates packing a four character tag
func ExampleParseSignature() {
	sig := codec.ParseSignature("CFG1")
	fmt.Println(sig.Hex(), sig)

	// Output:
	// 0x43464731 CFG1
}

// ExampleChecksum demonstrates the seeded additive checksum
func ExampleChecksum() {
	fmt.Println(codec.Checksum(nil))
	fmt.Println(codec.Checksum([]byte{1, 2, 3}), codec.Checksum([]byte{3, 2, 1}))

	// Output:
	// 45
	// 51 51
}
