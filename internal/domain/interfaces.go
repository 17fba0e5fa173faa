package domain

import "context"

// IntegralLoader reads MO integrals from a source file or archive.
// Implementations validate what they return.
type IntegralLoader interface {
	Name() string
	Load(ctx context.Context, path string) (*MOIntegrals, error)
}

// IntegralWriter persists MO integrals in a format a loader can read back.
type IntegralWriter interface {
	Name() string
	Write(ctx context.Context, path string, in *MOIntegrals) error
}

// EnergyService defines the operations exposed by the application core.
type EnergyService interface {
	Run(ctx context.Context, path string) (*Report, error)
}
