package memory_test

import (
	"encoding/binary"
	"fmt"
	"log"

	"gitlab.com/stephen-fox/ropkit/arch"
	"gitlab.com/stephen-fox/ropkit/memory"
)

func ExamplePointerMaker_ParseUintPrefix() {
	pm := memory.PointerMakerForX86_32()

	pointer, err := pm.ParseUintPrefix("0xdeadbeef", 16, "0x")
	if err != nil {
		log.Fatalln(err)
	}

	fmt.Println(pointer.HexString())

	// Output: 0xdeadbeef
}

func ExamplePointerMaker_FromHexString() {
	pm := memory.PointerMakerForX86_32()

	pointer, err := pm.FromHexString("0xefbeadde", binary.LittleEndian)
	if err != nil {
		log.Fatalln(err)
	}

	fmt.Println(pointer.HexString())

	// Output: 0xdeadbeef
}

func ExamplePointerMaker_FromRaw() {
	pm := memory.PointerMakerForOrExit(arch.AMD64)

	pointer, err := pm.FromRaw([]byte{0x00, 0x40, 0x55, 0x55, 0x55, 0x55, 0x00, 0x00})
	if err != nil {
		log.Fatalln(err)
	}

	fmt.Println(pointer.HexString())

	// Output: 0x555555554000
}

func ExamplePointer_Bytes() {
	pm := memory.PointerMakerForX86_32()

	pointer := pm.FromUint(0xdeadbeef)

	fmt.Printf("0x%x", pointer.Bytes())

	// Output: 0xefbeadde
}

func ExamplePointer_Uint_math() {
	pm := memory.PointerMakerForX86_32()

	initial := pm.FromUint(0xdeadbeef)

	modified := pm.FromUint(initial.Uint() - 0xef)

	fmt.Printf("0x%x", modified.Uint())

	// Output: 0xdeadbe00
}
