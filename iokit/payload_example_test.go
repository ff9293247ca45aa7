package iokit

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"gitlab.com/stephen-fox/ropkit/memory"
	"gitlab.com/stephen-fox/ropkit/pattern"
)

func ExampleNewPayloadBuilder() {
	pm := memory.PointerMakerForX86_64()

	examplePointer := pm.FromUint(0x7ffac0ded00d)

	payload := NewPayloadBuilder().
		RepeatString("A", 8*2).
		String("zerocool").
		Pattern(pattern.NewCyclic(4), 16).
		Uint64(0xc0ded00d, binary.LittleEndian).
		Pointer(examplePointer).
		String("/bin/sh\x00x").
		Align(8, 0).
		BuildOrExit()

	fmt.Print(hex.Dump(payload))

	// Output:
	// 00000000  41 41 41 41 41 41 41 41  41 41 41 41 41 41 41 41  |AAAAAAAAAAAAAAAA|
	// 00000010  7a 65 72 6f 63 6f 6f 6c  61 61 61 61 62 61 61 61  |zerocoolaaaabaaa|
	// 00000020  63 61 61 61 64 61 61 61  0d d0 de c0 00 00 00 00  |caaadaaa........|
	// 00000030  0d d0 de c0 fa 7f 00 00  2f 62 69 6e 2f 73 68 00  |......../bin/sh.|
	// 00000040  78 00 00 00 00 00 00 00                           |x.......|
}
