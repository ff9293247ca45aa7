// Package memory provides functionality for working with leaked memory:
// packing and unpacking pointers, extracting integers from leaked bytes
// or text, and classifying addresses by where they probably point.
//
// Address classification
//
// The Is*Address functions are heuristics. They inspect the hex
// representation of an address and compare it against the usual
// memory layout of Linux processes for the given architecture.
// For example, on amd64 the stack is typically mapped near
// 0x7ffxxxxxxxxx, shared libraries near 0x7fxxxxxxxxxx, and
// position-independent executables near 0x55xxxxxxxxxx.
//
// False positives and negatives are expected. These functions are
// meant to help triage a dump of leaked values, not to prove what
// a value is:
//
//	for _, v := range memory.ExtractAllHex(leak) {
//		if memory.IsLibcAddress(arch.AMD64, v) {
//			log.Printf("possible libc address: 0x%x", v)
//		}
//	}
package memory
