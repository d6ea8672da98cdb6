package core

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Prober executes search expressions against the media backend in probe
// mode, collecting candidate entries without moving any bytes.
type Prober struct {
	backend MediaBackend
	cfg     SearchConfig
	logger  *zap.Logger
}

func NewProber(backend MediaBackend, cfg SearchConfig, logger *zap.Logger) *Prober {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Prober{
		backend: backend,
		cfg:     cfg,
		logger:  logger,
	}
}

// Probe resolves a single expression to candidate entries. Entries without a
// locator are discarded during flattening.
func (p *Prober) Probe(ctx context.Context, expr SearchExpression) ([]CandidateEntry, error) {
	probeCtx := ctx
	if p.cfg.ProbeTimeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, p.cfg.ProbeTimeout)
		defer cancel()
	}

	raw, err := p.backend.Search(probeCtx, expr)
	if err != nil {
		return nil, err
	}

	entries := make([]CandidateEntry, 0, len(raw))
	for _, entry := range raw {
		if entry.Locator == "" {
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// ProbeAll fans out over the expressions with bounded concurrency and joins
// the results in expression order. Each expression's failure is recorded as a
// diagnostic and never aborts the remaining probes; an all-empty aggregate is
// a normal outcome, not an error.
func (p *Prober) ProbeAll(ctx context.Context, exprs []SearchExpression) ([]CandidateEntry, []ProbeDiagnostic) {
	results := make([][]CandidateEntry, len(exprs))
	failures := make([]error, len(exprs))

	g := &errgroup.Group{}
	g.SetLimit(p.cfg.Concurrency)

	for i, expr := range exprs {
		i, expr := i, expr
		g.Go(func() error {
			entries, err := p.Probe(ctx, expr)
			if err != nil {
				failures[i] = err
				p.logger.Debug("Probe failed",
					zap.String("backend", expr.Backend),
					zap.String("query", expr.Query),
					zap.Error(err))
				return nil
			}
			results[i] = entries
			return nil
		})
	}

	// Failures live in per-slot storage, never in the group error.
	_ = g.Wait()

	var (
		aggregate   []CandidateEntry
		diagnostics []ProbeDiagnostic
	)
	for i, expr := range exprs {
		switch {
		case failures[i] != nil:
			diagnostics = append(diagnostics, ProbeDiagnostic{Expression: expr, Err: failures[i]})
		case len(results[i]) == 0:
			diagnostics = append(diagnostics, ProbeDiagnostic{Expression: expr})
		default:
			aggregate = append(aggregate, results[i]...)
		}
	}

	p.logger.Debug("Probe aggregation complete",
		zap.Int("expressions", len(exprs)),
		zap.Int("candidates", len(aggregate)),
		zap.Int("skipped", len(diagnostics)))

	return aggregate, diagnostics
}
