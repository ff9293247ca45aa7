// Package ropkit provides functionality for building return-oriented
// programming chains and for making sense of memory leaks.
//
// APIs are separated into subpackages, and documented accordingly.
// The rop package builds chains on top of a gadget engine, such as the
// one provided by the gadgets package. The memory package classifies
// leaked addresses and extracts integers from leaked data.
//
// For scripting convenience, "OrExit" functions and methods are provided.
// Any errors encountered by these functions are treated as fatal. In such
// cases, an exit handler function is invoked.
package ropkit
