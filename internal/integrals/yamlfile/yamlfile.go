// Package yamlfile reads and writes integral documents in YAML (or JSON,
// which parses as YAML).
package yamlfile

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/rodriguezariascarlos/tccm-homeworks/internal/domain"
)

// Document is the on-disk layout. ERI rows are [i, j, k, l, value].
type Document struct {
	NuclearRepulsion float64   `yaml:"nuclear_repulsion"`
	OccupiedCount    int       `yaml:"n_occ"`
	MOCount          int       `yaml:"mo_count"`
	OneElectron      []float64 `yaml:"one_electron,flow"`
	ERI              []eriRow  `yaml:"eri"`
	OrbitalEnergies  []float64 `yaml:"orbital_energies,flow"`
}

type eriRow []float64

// MarshalYAML keeps each record on one line.
func (r eriRow) MarshalYAML() (interface{}, error) {
	n := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for i, v := range r {
		val := strconv.FormatFloat(v, 'g', -1, 64)
		if i < 4 {
			val = strconv.Itoa(int(v))
		}
		n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: val})
	}
	return n, nil
}

// Loader implements domain.IntegralLoader and domain.IntegralWriter.
type Loader struct{}

// NewLoader creates a YAML integral loader.
func NewLoader() *Loader { return &Loader{} }

// Name returns the identifier of this loader.
func (l *Loader) Name() string { return "yaml" }

// Load reads and validates the document at path.
func (l *Loader) Load(ctx context.Context, path string) (*domain.MOIntegrals, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	in, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return in, nil
}

// Decode parses a document and validates the result.
func Decode(data []byte) (*domain.MOIntegrals, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	records := make([]domain.ERIRecord, len(doc.ERI))
	for p, row := range doc.ERI {
		if len(row) != 5 {
			return nil, fmt.Errorf("%w: eri row %d has %d fields, want 5", domain.ErrInvalidIntegrals, p, len(row))
		}
		var idx [4]int32
		for q := 0; q < 4; q++ {
			v := row[q]
			if v != math.Trunc(v) || v < math.MinInt32 || v > math.MaxInt32 {
				return nil, fmt.Errorf("%w: eri row %d index %v is not an integer", domain.ErrInvalidIntegrals, p, v)
			}
			idx[q] = int32(v)
		}
		records[p] = domain.ERIRecord{I: idx[0], J: idx[1], K: idx[2], L: idx[3], Value: row[4]}
	}
	in := &domain.MOIntegrals{
		NuclearRepulsion: doc.NuclearRepulsion,
		OccupiedCount:    doc.OccupiedCount,
		MOCount:          doc.MOCount,
		OneElectron:      doc.OneElectron,
		ERI:              records,
		OrbitalEnergies:  doc.OrbitalEnergies,
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return in, nil
}

// Encode renders integrals as a YAML document.
func Encode(in *domain.MOIntegrals) ([]byte, error) {
	doc := Document{
		NuclearRepulsion: in.NuclearRepulsion,
		OccupiedCount:    in.OccupiedCount,
		MOCount:          in.MOCount,
		OneElectron:      in.OneElectron,
		ERI:              make([]eriRow, len(in.ERI)),
		OrbitalEnergies:  in.OrbitalEnergies,
	}
	for p, r := range in.ERI {
		doc.ERI[p] = eriRow{float64(r.I), float64(r.J), float64(r.K), float64(r.L), r.Value}
	}
	return yaml.Marshal(&doc)
}

// Write stores integrals at path, creating parent directories as needed.
func (l *Loader) Write(ctx context.Context, path string, in *domain.MOIntegrals) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}
	data, err := Encode(in)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
