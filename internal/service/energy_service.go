package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rodriguezariascarlos/tccm-homeworks/internal/domain"
	"github.com/rodriguezariascarlos/tccm-homeworks/internal/energy"
	"github.com/rodriguezariascarlos/tccm-homeworks/internal/tensor"
)

// Options tunes the tensor build.
type Options struct {
	DetectConflicts bool
	MaxTensorBytes  int64
}

type EnergyServiceImpl struct {
	loader domain.IntegralLoader
	opts   Options
	logger *slog.Logger
}

func NewEnergyService(loader domain.IntegralLoader, opts Options, logger *slog.Logger) *EnergyServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &EnergyServiceImpl{loader: loader, opts: opts, logger: logger}
}

// Run loads the integrals at path, builds the dense tensor and evaluates the
// energies. It returns either a complete report or an error.
func (s *EnergyServiceImpl) Run(ctx context.Context, path string) (*domain.Report, error) {
	start := time.Now()
	runID := uuid.New().String()
	log := s.logger.With("run_id", runID)

	// Load
	in, err := s.loader.Load(ctx, path)
	if err == nil {
		err = in.Validate()
	}
	if err != nil {
		return nil, fmt.Errorf("load integrals: %w", err)
	}
	log.Info("nuclear repulsion energy read", "value", in.NuclearRepulsion)
	log.Info("occupied orbitals read", "n_occ", in.OccupiedCount, "mo_count", in.MOCount)
	log.Info("one-electron integrals read successfully", "values", len(in.OneElectron))
	log.Info("two-electron integrals read successfully", "records", len(in.ERI))
	if in.HasOrbitalEnergies() {
		log.Info("orbital energies read", "values", len(in.OrbitalEnergies))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Build
	eri, stats, err := tensor.BuildWithStats(in.MOCount, in.ERI,
		tensor.WithLogger(log),
		tensor.WithConflictCheck(s.opts.DetectConflicts),
		tensor.WithMaxBytes(s.opts.MaxTensorBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("build two-electron tensor: %w", err)
	}
	log.Debug("two-electron tensor built", "bytes", stats.Bytes, "conflicts", stats.Conflicts)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Evaluate
	input := energy.NewInput(in, eri)
	if !in.HasOrbitalEnergies() {
		input.OrbitalEnergies = energy.FockDiagonal(input.Core, eri, in.OccupiedCount)
		log.Warn("no orbital energies in source; using Fock diagonal")
	}
	res, err := energy.Evaluate(input)
	if err != nil {
		return nil, fmt.Errorf("evaluate energies: %w", err)
	}
	if res.Breakdown.Skipped > 0 {
		log.Debug("MP2 terms with zero denominator skipped", "count", res.Breakdown.Skipped)
	}

	return &domain.Report{
		RunID:            runID,
		Source:           path,
		Loader:           s.loader.Name(),
		NuclearRepulsion: in.NuclearRepulsion,
		OccupiedCount:    in.OccupiedCount,
		MOCount:          in.MOCount,
		ERICount:         len(in.ERI),
		Energies:         res.Energies,
		Pairs:            energy.PairEnergies(res.Breakdown),
		SkippedTerms:     res.Breakdown.Skipped,
		Conflicts:        stats.Conflicts,
		TensorBytes:      stats.Bytes,
		Elapsed:          time.Since(start),
	}, nil
}
