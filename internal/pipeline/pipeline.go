package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tactful-app/tactful-backend/internal/ai"
	"github.com/tactful-app/tactful-backend/internal/decision"
	"github.com/tactful-app/tactful-backend/internal/fault"
	"github.com/tactful-app/tactful-backend/internal/normalize"
	"github.com/tactful-app/tactful-backend/internal/plan"
	"github.com/tactful-app/tactful-backend/internal/prompt"
)

// Pipeline runs the full decide → generate → postprocess → assemble flow for
// one request. It is stateless across requests; the only shared state is the
// template cache inside the composer.
type Pipeline struct {
	runner *StageRunner
	logger *slog.Logger
}

// New constructs the pipeline.
func New(gen ai.Generator, composer *prompt.Composer, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		runner: NewStageRunner(gen, composer, logger),
		logger: logger,
	}
}

// Compose produces the final response for one canonical input.
//
// The decision engine and package resolver both run up front (pure, no I/O).
// The resolved plan instance is the one shared source of truth for every
// stage and for the assembler. Stages have no data dependency on each other —
// the prompt composer never feeds one stage's output into another, which is
// what keeps internal analysis out of recipient-facing drafts — so they run
// concurrently. Once a stage begins it runs to DONE or hard failure; there is
// no mid-pipeline cancellation beyond the request context itself.
func (pl *Pipeline) Compose(ctx context.Context, in normalize.CanonicalInput) (FinalResponse, error) {
	d := decision.Decide(in)

	p, err := plan.Resolve(string(in.Package))
	if err != nil {
		return FinalResponse{}, fault.Wrap(fault.KindValidation, "resolve", "unknown package", err)
	}

	compositionID := uuid.New()
	log := pl.logger.With("composition_id", compositionID)
	log.Info("pipeline: starting",
		"package", p.Package,
		"risk_level", d.RiskLevel,
		"record_safe_level", d.RecordSafeLevel,
	)

	stages := p.Stages()
	results := make([]StageResult, len(stages))

	g, gctx := errgroup.WithContext(ctx)
	for i, stage := range stages {
		i, stage := i, stage
		g.Go(func() error {
			res, err := pl.runner.Run(gctx, in, d, p, stage)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error("pipeline: stage failed", "error", err)
		return FinalResponse{}, err
	}

	for i := range results {
		Postprocess(&results[i], p)
		if results[i].UsedFallback {
			log.Warn("pipeline: stage delivered fallback text", "stage", results[i].Stage)
		}
	}

	resp := Assemble(p, results)
	log.Info("pipeline: complete", "stages", len(stages))
	return resp, nil
}
