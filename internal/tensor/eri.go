package tensor

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrBadDimension is returned when the orbital count is not positive.
	ErrBadDimension = errors.New("tensor: orbital count must be positive")
	// ErrTooLarge is returned when n^4 elements cannot be addressed or exceed the memory ceiling.
	ErrTooLarge = errors.New("tensor: dense tensor too large")
	// ErrIndexOutOfRange is returned when a record references an orbital outside [0, n).
	ErrIndexOutOfRange = errors.New("tensor: index out of range")
)

const bytesPerElement = 8

// ERI is a dense two-electron integral tensor stored in one flat buffer.
// Element (i,j,k,l) lives at ((i*n+j)*n+k)*n+l.
type ERI struct {
	n    int
	data []float64
}

// New allocates a zeroed n x n x n x n tensor. maxBytes <= 0 means no ceiling.
func New(n int, maxBytes int64) (*ERI, error) {
	if err := CheckSize(n, maxBytes); err != nil {
		return nil, err
	}
	count, _ := elementCount(n)
	return &ERI{n: n, data: make([]float64, count)}, nil
}

// CheckSize reports whether a tensor over n orbitals can be allocated within
// maxBytes. maxBytes <= 0 only checks that n^4 elements are addressable.
// Loaders call it before sizing any buffer from an untrusted orbital count.
func CheckSize(n int, maxBytes int64) error {
	if n <= 0 {
		return ErrBadDimension
	}
	count, ok := elementCount(n)
	if !ok {
		return fmt.Errorf("%w: %d orbitals overflow the address space", ErrTooLarge, n)
	}
	size := int64(count) * bytesPerElement
	if maxBytes > 0 && size > maxBytes {
		return fmt.Errorf("%w: %d orbitals need %d bytes, limit is %d", ErrTooLarge, n, size, maxBytes)
	}
	return nil
}

// elementCount returns n^4 and false when the product or its byte size overflows int.
func elementCount(n int) (int, bool) {
	total := 1
	for d := 0; d < 4; d++ {
		if total > math.MaxInt/n {
			return 0, false
		}
		total *= n
	}
	if total > math.MaxInt/bytesPerElement {
		return 0, false
	}
	return total, true
}

// Dim returns the orbital count n.
func (t *ERI) Dim() int { return t.n }

// Bytes is the size of the backing buffer.
func (t *ERI) Bytes() int64 { return int64(len(t.data)) * bytesPerElement }

// Data exposes the backing buffer. Callers must not modify it.
func (t *ERI) Data() []float64 { return t.data }

// Index flattens (i,j,k,l) into an offset of the backing buffer.
func (t *ERI) Index(i, j, k, l int) int {
	n := t.n
	return ((i*n+j)*n+k)*n + l
}

// At returns element (i,j,k,l). Indices are not bounds-checked beyond the slice.
func (t *ERI) At(i, j, k, l int) float64 { return t.data[t.Index(i, j, k, l)] }

// Set assigns element (i,j,k,l).
func (t *ERI) Set(i, j, k, l int, v float64) { t.data[t.Index(i, j, k, l)] = v }

// InRange reports whether all four indices are valid orbitals.
func (t *ERI) InRange(i, j, k, l int) bool {
	n := t.n
	return i >= 0 && i < n && j >= 0 && j < n && k >= 0 && k < n && l >= 0 && l < n
}

// Permutations lists the eight index tuples sharing the value of (ij|kl):
// (ij|kl) (kl|ij) (il|kj) (kj|il) (ji|lk) (lk|ji) (jk|li) (li|jk).
func Permutations(i, j, k, l int) [8][4]int {
	return [8][4]int{
		{i, j, k, l},
		{k, l, i, j},
		{i, l, k, j},
		{k, j, i, l},
		{j, i, l, k},
		{l, k, j, i},
		{j, k, l, i},
		{l, i, j, k},
	}
}
