package memory_test

import (
	"fmt"

	"gitlab.com/stephen-fox/ropkit/arch"
	"gitlab.com/stephen-fox/ropkit/memory"
)

func ExampleIsLibcAddress() {
	leak := []byte("0x7ffeeffff2a0 (nil) 0x7f3c2a8e5fd0 0x555555554000")

	for _, v := range memory.ExtractAllHex(leak) {
		switch {
		case memory.IsStackAddress(arch.AMD64, v):
			fmt.Printf("0x%x: stack\n", v)
		case memory.IsLibcAddress(arch.AMD64, v):
			fmt.Printf("0x%x: libc\n", v)
		case memory.IsPIEAddress(arch.AMD64, v):
			fmt.Printf("0x%x: pie\n", v)
		}
	}

	// Output:
	// 0x7ffeeffff2a0: stack
	// 0x7f3c2a8e5fd0: libc
	// 0x555555554000: pie
}

func ExampleExtractAllBytes() {
	leak := []byte{0xef, 0xbe, 0xad, 0xde, 0x0d, 0xd0, 0xde, 0xc0, 0x41}

	values, err := memory.ExtractAllBytes(arch.I386, leak, 4)
	if err != nil {
		panic(err)
	}

	for v := range values {
		fmt.Printf("0x%x\n", v)
	}

	// Output:
	// 0xdeadbeef
	// 0xc0ded00d
}
