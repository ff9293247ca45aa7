package pattern

import (
	"bytes"
	"errors"
	"fmt"
	"iter"
	"log"
)

const (
	// DefaultAlphabet is the alphabet used by Cyclic when
	// its Alphabet field is empty.
	DefaultAlphabet = "abcdefghijklmnopqrstuvwxyz"
)

// NewCyclic returns a *Cyclic whose unique subsequences are n bytes
// long. Use the target's pointer size for n so that every pointer-sized
// chunk of the pattern is unique.
func NewCyclic(n int) *Cyclic {
	return &Cyclic{N: n}
}

// Cyclic generates a de Bruijn sequence over an alphabet. Every
// subsequence of length N appears exactly once, which makes it possible
// to find where a value read from a crashed process came from.
//
// The zero value is not usable; N must be set.
type Cyclic struct {
	// Alphabet is the set of bytes used in the pattern.
	// DefaultAlphabet is used if empty.
	Alphabet string

	// N is the length of each unique subsequence.
	N int

	// OptLogger logs each pattern returned by Pattern if specified.
	OptLogger *log.Logger

	buf      []byte
	next     int
	numCalls int
}

func (o *Cyclic) alphabet() string {
	if o.Alphabet == "" {
		return DefaultAlphabet
	}
	return o.Alphabet
}

// Pattern returns the next numBytes of the sequence. Subsequent calls
// resume where the previous one stopped.
func (o *Cyclic) Pattern(numBytes int) ([]byte, error) {
	if numBytes <= 0 {
		return nil, errors.New("number of bytes is less than or equal to zero")
	}

	err := o.fill(o.next + numBytes)
	if err != nil {
		return nil, err
	}

	p := make([]byte, numBytes)
	copy(p, o.buf[o.next:])
	o.next += numBytes

	if o.OptLogger != nil {
		o.OptLogger.Printf("pattern string %d: %s", o.numCalls, p)
	}
	o.numCalls++

	return p, nil
}

// PatternOrExit calls Pattern. It calls DefaultExitFn if an error occurs.
func (o *Cyclic) PatternOrExit(numBytes int) []byte {
	p, err := o.Pattern(numBytes)
	if err != nil {
		DefaultExitFn(fmt.Errorf("pattern.cyclic: failed to generate pattern %d of size %d - %w",
			o.numCalls, numBytes, err))
	}
	return p
}

// Find returns the offset of sub in the first limit bytes
// of the sequence, or -1 if it does not appear.
func (o *Cyclic) Find(sub []byte, limit int) (int, error) {
	if len(sub) == 0 {
		return -1, errors.New("subsequence is empty")
	}

	err := o.fill(limit)
	if err != nil {
		return -1, err
	}

	return bytes.Index(o.buf[:limit], sub), nil
}

func (o *Cyclic) fill(total int) error {
	if o.N <= 0 {
		return fmt.Errorf("subsequence length must be greater than zero - got %d", o.N)
	}

	if len(o.buf) >= total {
		return nil
	}

	alphabet := o.alphabet()

	o.buf = o.buf[:0]
	for b := range deBruijn(alphabet, o.N) {
		o.buf = append(o.buf, b)
		if len(o.buf) == total {
			return nil
		}
	}

	return fmt.Errorf("alphabet %q with subsequence length %d cannot produce %d bytes",
		alphabet, o.N, total)
}

// deBruijn yields the de Bruijn sequence B(k, n) for the alphabet
// using the FKM algorithm.
func deBruijn(alphabet string, n int) iter.Seq[byte] {
	return func(yield func(byte) bool) {
		k := len(alphabet)
		a := make([]int, k*n+1)

		var db func(t int, p int) bool
		db = func(t int, p int) bool {
			if t > n {
				if n%p == 0 {
					for j := 1; j <= p; j++ {
						if !yield(alphabet[a[j]]) {
							return false
						}
					}
				}
				return true
			}

			a[t] = a[t-p]
			if !db(t+1, p) {
				return false
			}

			for j := a[t-p] + 1; j < k; j++ {
				a[t] = j
				if !db(t+1, t) {
					return false
				}
			}

			return true
		}

		db(1, 1)
	}
}
