// Package runner drives a batch benchmark: it feeds unprocessed questions
// to a generator, grades every response through the verification pipeline,
// and persists the results. Runs are resumable; a re-verify pass recomputes
// verdicts for stored responses without new LLM calls.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/datar-psa/mathverify/api"
	"github.com/datar-psa/mathverify/dataset"
	"github.com/datar-psa/mathverify/storage"
	"github.com/datar-psa/mathverify/verify"
)

// Runner processes question banks against one generator.
type Runner struct {
	gen   api.Generator
	store *storage.Store
	log   *zap.Logger
	model string
}

// Options configures Runner creation
type Options struct {
	gen   api.Generator
	store *storage.Store
	log   *zap.Logger
	model string
}

// WithGenerator sets the LLM generator to benchmark
func WithGenerator(gen api.Generator) func(*Options) {
	return func(opts *Options) {
		opts.gen = gen
	}
}

// WithStore sets the result store
func WithStore(store *storage.Store) func(*Options) {
	return func(opts *Options) {
		opts.store = store
	}
}

// WithLogger sets the structured logger
func WithLogger(log *zap.Logger) func(*Options) {
	return func(opts *Options) {
		opts.log = log
	}
}

// WithModelName records the model name on stored results
func WithModelName(model string) func(*Options) {
	return func(opts *Options) {
		opts.model = model
	}
}

// New creates a Runner using functional options.
func New(opts ...func(*Options)) (*Runner, error) {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}
	if options.gen == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if options.store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if options.log == nil {
		options.log = zap.NewNop()
	}
	return &Runner{
		gen:   options.gen,
		store: options.store,
		log:   options.log,
		model: options.model,
	}, nil
}

// Summary tallies one run.
type Summary struct {
	RunID          string
	Processed      int
	Skipped        int
	Correct        int
	Incorrect      int
	Unverifiable   int
	Errors         int
	ResponseErrors int
}

// Run processes every question in the bank that has not been seen before.
// Generation failures are recorded and counted, never fatal; the run stops
// early only when the context is canceled.
func (r *Runner) Run(ctx context.Context, bank *dataset.Bank) (Summary, error) {
	summary := Summary{RunID: uuid.NewString()}

	seen, err := r.store.SeenIDs()
	if err != nil {
		return summary, err
	}
	if err := r.store.SetTotalQuestions(len(bank.Questions)); err != nil {
		return summary, err
	}
	if err := r.store.SetRunID(summary.RunID); err != nil {
		return summary, err
	}

	log := r.log.With(zap.String("run_id", summary.RunID), zap.String("model", r.model))
	log.Info("starting run",
		zap.String("bank", bank.Name),
		zap.Int("questions", len(bank.Questions)),
		zap.Int("already_seen", len(seen)))

	for _, q := range bank.Questions {
		if err := ctx.Err(); err != nil {
			log.Warn("run canceled", zap.Int("processed", summary.Processed))
			return summary, err
		}
		if seen[q.ID] {
			summary.Skipped++
			continue
		}

		result := r.processQuestion(ctx, q)
		if err := r.store.Append(result); err != nil {
			return summary, err
		}
		summary.Processed++
		r.tally(&summary, result, log)
	}

	log.Info("run complete",
		zap.Int("processed", summary.Processed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("correct", summary.Correct),
		zap.Int("incorrect", summary.Incorrect),
		zap.Int("unable_to_verify", summary.Unverifiable),
		zap.Int("errors", summary.Errors+summary.ResponseErrors))
	return summary, nil
}

func (r *Runner) processQuestion(ctx context.Context, q dataset.Question) storage.Result {
	start := time.Now()
	response, err := r.gen.Generate(ctx, q.Text)
	elapsed := time.Since(start).Seconds()

	result := storage.Result{
		QuestionID:      q.ID,
		Category:        q.Category,
		QuestionText:    q.Text,
		ExpectedAnswer:  q.Answer,
		AlternateAnswer: q.AlternateAnswer,
		Response:        response,
		ProcessingTime:  elapsed,
		Timestamp:       time.Now().Format(time.RFC3339),
		Success:         err == nil,
		ModelUsed:       r.model,
	}
	if err != nil {
		result.ErrorMessage = err.Error()
		return result
	}

	v := verify.Answer(response, q.Answer, q.AlternateAnswer)
	result.Verification = &v
	return result
}

func (r *Runner) tally(summary *Summary, result storage.Result, log *zap.Logger) {
	qlog := log.With(zap.String("question_id", result.QuestionID))

	if !result.Success {
		summary.ResponseErrors++
		qlog.Warn("generation failed", zap.String("error", result.ErrorMessage))
		return
	}

	v := result.Verification
	switch v.VerificationStatus {
	case api.StatusCorrect:
		summary.Correct++
	case api.StatusIncorrect:
		summary.Incorrect++
	case api.StatusUnverifiable:
		summary.Unverifiable++
	default:
		summary.Errors++
	}
	qlog.Info("question graded",
		zap.String("status", v.VerificationStatus),
		zap.String("extracted", v.ExtractedAnswer),
		zap.String("method", v.ExtractionMethod),
		zap.String("match_type", v.MatchType),
		zap.Float64("confidence", v.ComparisonConfidence),
		zap.Float64("seconds", result.ProcessingTime))
}

// Reverify recomputes the verification verdict for every stored response,
// e.g. after a pipeline fix, and rewrites the store. No LLM calls are made.
func (r *Runner) Reverify(ctx context.Context) (Summary, error) {
	summary := Summary{RunID: uuid.NewString()}

	results, err := r.store.Results()
	if err != nil {
		return summary, err
	}

	log := r.log.With(zap.String("run_id", summary.RunID))
	for i := range results {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if !results[i].Success {
			summary.ResponseErrors++
			continue
		}
		v := verify.Answer(results[i].Response, results[i].ExpectedAnswer, results[i].AlternateAnswer)
		results[i].Verification = &v
		summary.Processed++
		r.tally(&summary, results[i], log)
	}

	if err := r.store.ReplaceResults(results); err != nil {
		return summary, err
	}
	log.Info("reverify complete",
		zap.Int("processed", summary.Processed),
		zap.Int("correct", summary.Correct),
		zap.Int("incorrect", summary.Incorrect))
	return summary, nil
}
