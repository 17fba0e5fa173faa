// Package fcidump reads integral files in the FCIDUMP text format: a
// namelist header (&FCI NORB=..., NELEC=..., MS2=... &END) followed by
// "value i j k l" lines with 1-based orbital indices.
//
// FCIDUMP stores two-electron integrals in chemist order (ij|kl). The dense
// tensor and the energy formulas index ⟨ik|jl⟩, so records are reordered to
// (i, k, j, l) on load.
package fcidump

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/rodriguezariascarlos/tccm-homeworks/internal/domain"
	"github.com/rodriguezariascarlos/tccm-homeworks/internal/tensor"
)

// ErrMalformed is wrapped by every parse error.
var ErrMalformed = errors.New("fcidump: malformed file")

var (
	headerStart = regexp.MustCompile(`(?i)^\s*&FCI\b`)
	headerEnd   = regexp.MustCompile(`(?i)(&END|^\s*/\s*$)`)
	fieldSep    = regexp.MustCompile(`\s+`)
)

// Header holds the namelist values the loader needs.
type Header struct {
	NORB  int
	NELEC int
	MS2   int
	// Extra keeps any other namelist entries (ORBSYM, ISYM, ...) verbatim.
	Extra map[string][]string
}

// Loader implements domain.IntegralLoader.
type Loader struct{}

// NewLoader creates an FCIDUMP loader.
func NewLoader() *Loader { return &Loader{} }

// Name returns the identifier of this loader.
func (l *Loader) Name() string { return "fcidump" }

// Load reads and validates the FCIDUMP file at path.
func (l *Loader) Load(ctx context.Context, path string) (*domain.MOIntegrals, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	in, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return in, nil
}

// Parse reads an FCIDUMP stream. Orbital energies are left empty when the
// file carries no "e i 0 0 0" lines.
func Parse(r io.Reader) (*domain.MOIntegrals, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	hdr, lineNo, err := readHeader(sc)
	if err != nil {
		return nil, err
	}
	n := hdr.NORB
	if err := tensor.CheckSize(n, 0); err != nil {
		return nil, fmt.Errorf("%w: NORB=%d: %w", ErrMalformed, n, err)
	}
	core := mat.NewSymDense(n, nil)
	eps := make([]float64, n)
	haveEps := false
	in := &domain.MOIntegrals{
		OccupiedCount: (hdr.NELEC + hdr.MS2) / 2,
		MOCount:       n,
	}

	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := fieldSep.Split(line, -1)
		if len(fields) != 5 {
			return nil, fmt.Errorf("%w: line %d: want 5 fields, got %d", ErrMalformed, lineNo, len(fields))
		}
		v, err := parseFloat(fields[0])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, lineNo, err)
		}
		var idx [4]int
		for q := 0; q < 4; q++ {
			idx[q], err = strconv.Atoi(fields[q+1])
			if err != nil || idx[q] < 0 || idx[q] > n {
				return nil, fmt.Errorf("%w: line %d: bad orbital index %q", ErrMalformed, lineNo, fields[q+1])
			}
		}
		i, j, k, l := idx[0], idx[1], idx[2], idx[3]
		switch {
		case i == 0 && j == 0 && k == 0 && l == 0:
			in.NuclearRepulsion = v
		case i > 0 && j == 0 && k == 0 && l == 0:
			eps[i-1] = v
			haveEps = true
		case i > 0 && j > 0 && k == 0 && l == 0:
			core.SetSym(i-1, j-1, v)
		case i > 0 && j > 0 && k > 0 && l > 0:
			in.ERI = append(in.ERI, domain.ERIRecord{
				I: int32(i - 1), J: int32(k - 1), K: int32(j - 1), L: int32(l - 1), Value: v,
			})
		default:
			return nil, fmt.Errorf("%w: line %d: unsupported index pattern %d %d %d %d", ErrMalformed, lineNo, i, j, k, l)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	in.OneElectron = mat.DenseCopyOf(core).RawMatrix().Data
	if haveEps {
		in.OrbitalEnergies = eps
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return in, nil
}

func readHeader(sc *bufio.Scanner) (Header, int, error) {
	var b strings.Builder
	lineNo := 0
	started, ended := false, false
	for !ended && sc.Scan() {
		lineNo++
		line := sc.Text()
		if !started {
			if strings.TrimSpace(line) == "" {
				continue
			}
			if !headerStart.MatchString(line) {
				return Header{}, lineNo, fmt.Errorf("%w: line %d: expected &FCI header", ErrMalformed, lineNo)
			}
			started = true
			line = headerStart.ReplaceAllString(line, "")
		}
		if loc := headerEnd.FindStringIndex(line); loc != nil {
			line = line[:loc[0]]
			ended = true
		}
		b.WriteString(line)
		b.WriteString(",")
	}
	if err := sc.Err(); err != nil {
		return Header{}, lineNo, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !ended {
		return Header{}, lineNo, fmt.Errorf("%w: unterminated &FCI header", ErrMalformed)
	}
	hdr, err := parseNamelist(b.String())
	return hdr, lineNo, err
}

// parseNamelist splits "NORB=4,NELEC=2,ORBSYM=1,1,1,1," into keys and value lists.
func parseNamelist(s string) (Header, error) {
	values := map[string][]string{}
	key := ""
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if eq := strings.IndexByte(tok, '='); eq >= 0 {
			key = strings.ToUpper(strings.TrimSpace(tok[:eq]))
			values[key] = nil
			tok = strings.TrimSpace(tok[eq+1:])
			if tok == "" {
				continue
			}
		}
		if key == "" {
			return Header{}, fmt.Errorf("%w: header value %q before any key", ErrMalformed, tok)
		}
		values[key] = append(values[key], fieldSep.Split(tok, -1)...)
	}

	hdr := Header{Extra: map[string][]string{}}
	for k, v := range values {
		switch k {
		case "NORB", "NELEC", "MS2":
			if len(v) != 1 {
				return Header{}, fmt.Errorf("%w: %s needs one value, got %v", ErrMalformed, k, v)
			}
			x, err := strconv.Atoi(v[0])
			if err != nil {
				return Header{}, fmt.Errorf("%w: %s=%q is not an integer", ErrMalformed, k, v[0])
			}
			switch k {
			case "NORB":
				hdr.NORB = x
			case "NELEC":
				hdr.NELEC = x
			case "MS2":
				hdr.MS2 = x
			}
		default:
			hdr.Extra[k] = v
		}
	}
	if _, ok := values["NORB"]; !ok || hdr.NORB <= 0 {
		return Header{}, fmt.Errorf("%w: NORB missing or not positive", ErrMalformed)
	}
	if _, ok := values["NELEC"]; !ok || hdr.NELEC < 0 {
		return Header{}, fmt.Errorf("%w: NELEC missing or negative", ErrMalformed)
	}
	return hdr, nil
}

// parseFloat accepts Fortran D exponents (1.0D-02).
func parseFloat(s string) (float64, error) {
	s = strings.NewReplacer("D", "E", "d", "e").Replace(s)
	return strconv.ParseFloat(s, 64)
}
