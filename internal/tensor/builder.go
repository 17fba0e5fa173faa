package tensor

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/rodriguezariascarlos/tccm-homeworks/internal/domain"
)

// maxConflictLogs caps per-record conflict warnings; the total is always logged.
const maxConflictLogs = 16

// Option configures Build.
type Option func(*options)

type options struct {
	logger        *slog.Logger
	checkConflict bool
	maxBytes      int64
}

// WithLogger sets the logger used for conflict warnings.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithConflictCheck makes Build report records that overwrite an already
// written entry with a different value. Overwrites still happen.
func WithConflictCheck(on bool) Option {
	return func(o *options) { o.checkConflict = on }
}

// WithMaxBytes caps the size of the dense buffer. Zero disables the cap.
func WithMaxBytes(n int64) Option {
	return func(o *options) { o.maxBytes = n }
}

func gatherOptions(opts []Option) options {
	o := options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// BuildStats describes a finished build.
type BuildStats struct {
	Records   int
	Conflicts int
	Bytes     int64
}

// Build expands sparse records into a dense tensor. Every record is written to
// all eight of its permutations, in input order; later records win.
func Build(n int, records []domain.ERIRecord, opts ...Option) (*ERI, error) {
	t, _, err := BuildWithStats(n, records, opts...)
	return t, err
}

// BuildWithStats is Build plus statistics about the expansion.
func BuildWithStats(n int, records []domain.ERIRecord, opts ...Option) (*ERI, BuildStats, error) {
	o := gatherOptions(opts)
	t, err := New(n, o.maxBytes)
	if err != nil {
		return nil, BuildStats{}, err
	}

	var written bitset
	if o.checkConflict {
		written = newBitset(len(t.data))
	}

	stats := BuildStats{Records: len(records), Bytes: t.Bytes()}
	for p, r := range records {
		i, j, k, l := int(r.I), int(r.J), int(r.K), int(r.L)
		if !t.InRange(i, j, k, l) {
			return nil, BuildStats{}, fmt.Errorf("%w: record %d (%d %d %d %d) with %d orbitals", ErrIndexOutOfRange, p, i, j, k, l, n)
		}
		conflict := false
		var prev float64
		for _, q := range Permutations(i, j, k, l) {
			off := t.Index(q[0], q[1], q[2], q[3])
			if written != nil {
				if written.has(off) && t.data[off] != r.Value && !conflict {
					conflict = true
					prev = t.data[off]
				}
				written.set(off)
			}
			t.data[off] = r.Value
		}
		if conflict {
			stats.Conflicts++
			if stats.Conflicts <= maxConflictLogs {
				o.logger.Warn("two-electron record overwrites a different value",
					"record", p, "i", i, "j", j, "k", k, "l", l,
					"previous", prev, "value", r.Value)
			}
		}
	}
	if stats.Conflicts > 0 {
		o.logger.Warn("conflicting two-electron records; last write kept", "conflicts", stats.Conflicts)
	}
	return t, stats, nil
}

type bitset []uint64

func newBitset(n int) bitset { return make(bitset, (n+63)/64) }

func (b bitset) has(i int) bool { return b[i/64]&(1<<(uint(i)%64)) != 0 }

func (b bitset) set(i int) { b[i/64] |= 1 << (uint(i) % 64) }
