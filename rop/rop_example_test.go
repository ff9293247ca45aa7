package rop_test

import (
	"encoding/hex"
	"fmt"
	"log"

	"gitlab.com/stephen-fox/ropkit/arch"
	"gitlab.com/stephen-fox/ropkit/gadgets"
	"gitlab.com/stephen-fox/ropkit/rop"
)

// exampleCode contains a few gadgets:
//
//	0x401000: pop rax; ret
//	0x401002: pop rdx; pop rsi; ret
//	0x401005: pop rdi; ret
//	0x401007: syscall
var exampleCode = []byte{
	0x58, 0xc3,
	0x5a, 0x5e, 0xc3,
	0x5f, 0xc3,
	0x0f, 0x05,
}

func ExampleROP_SystemCall() {
	engine, err := gadgets.FromCode(exampleCode, 0x401000, gadgets.Config{
		Arch: arch.AMD64,
	})
	if err != nil {
		log.Fatalln(err)
	}

	chain := rop.NewOrExit(rop.Config{
		Arch:   arch.AMD64,
		Engine: engine,
	})

	// execve("/bin/sh", NULL, NULL)
	err = chain.SystemCall(0x3b, []rop.Value{rop.Bytes("/bin/sh"), rop.Int(0), rop.Int(0)})
	if err != nil {
		log.Fatalln(err)
	}

	fmt.Println(chain.DumpOrExit(0))

	// Output:
	// 0x0000:           0x401000 pop rax; ret
	// 0x0008:               0x3b
	// 0x0010:           0x401002 pop rdx; pop rsi; ret
	// 0x0018:                0x0 [arg2] rdx = 0x0
	// 0x0020:                0x0 [arg1] rsi = 0x0
	// 0x0028:           0x401005 pop rdi; ret
	// 0x0030:               0x40 [arg0] rdi = "/bin/sh"
	// 0x0038:           0x401007 syscall
	// 0x0040:      "/bin/sh\x00"
}

func ExampleROP_Reg() {
	engine := gadgets.FromCodeOrExit(exampleCode, 0x401000, gadgets.Config{
		Arch: arch.AMD64,
	})

	chain := rop.NewOrExit(rop.Config{
		Arch:   arch.AMD64,
		Engine: engine,
	})

	setRDI, err := chain.Reg("rdi")
	if err != nil {
		log.Fatalln(err)
	}

	err = setRDI(rop.Int(1))
	if err != nil {
		log.Fatalln(err)
	}

	fmt.Println(chain.DumpOrExit(0))
	fmt.Print(hex.Dump(chain.ChainOrExit(0)))

	// Output:
	// 0x0000:           0x401005 pop rdi; ret
	// 0x0008:                0x1
	// 00000000  05 10 40 00 00 00 00 00  01 00 00 00 00 00 00 00  |..@.............|
}

func ExampleROP_Pop() {
	engine := gadgets.FromCodeOrExit(exampleCode, 0x401000, gadgets.Config{
		Arch: arch.AMD64,
	})

	chain := rop.NewOrExit(rop.Config{
		Arch:   arch.AMD64,
		Engine: engine,
	})

	chain.PopOrExit(rop.Registers{
		"rax": rop.Int(0x3b),
		"rsi": rop.Int(0),
		"rdx": rop.Int(0),
	})

	fmt.Println(chain.DumpOrExit(0))

	// Output:
	// 0x0000:           0x401002 pop rdx; pop rsi; ret
	// 0x0008:                0x0
	// 0x0010:                0x0
	// 0x0018:           0x401000 pop rax; ret
	// 0x0020:               0x3b
}
