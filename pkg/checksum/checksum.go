// Kunhua Huang 2026

package checksum

import (
	"fmt"
	"io"
	"os"
)

// chunkSize only affects read granularity. XOR folding is associative
// and commutative, so any chunking yields the same checksum.
const chunkSize = 32 * 1024

// Reducer folds every byte written into a single-byte XOR accumulator.
// It implements io.Writer so it can sit behind io.Copy or io.TeeReader.
type Reducer struct {
	acc byte
}

func NewReducer() *Reducer {
	return &Reducer{}
}

func (r *Reducer) Write(p []byte) (int, error) {
	for _, b := range p {
		r.acc ^= b
	}
	return len(p), nil
}

// Sum returns the fold over everything written so far.
func (r *Reducer) Sum() byte {
	return r.acc
}

func (r *Reducer) Reset() {
	r.acc = 0
}

// Sum reads the stream to the end and returns its XOR-fold checksum.
// A read failure propagates; a checksum over a truncated prefix is
// never returned.
func Sum(r io.Reader) (byte, error) {
	reducer := NewReducer()
	buf := make([]byte, chunkSize)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			reducer.Write(buf[:n])
		}
		if err == io.EOF {
			return reducer.Sum(), nil
		}
		if err != nil {
			return 0, fmt.Errorf("read stream: %w", err)
		}
	}
}

// SumFile opens path and checksums its contents.
func SumFile(path string) (byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return Sum(f)
}
