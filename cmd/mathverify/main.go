// Command mathverify benchmarks an LLM on a math question bank and grades
// the answers with the verification pipeline.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/genai"

	mathverify "github.com/datar-psa/mathverify"
	"github.com/datar-psa/mathverify/config"
	"github.com/datar-psa/mathverify/dataset"
	"github.com/datar-psa/mathverify/gemini"
	"github.com/datar-psa/mathverify/ollama"
	"github.com/datar-psa/mathverify/runner"
	"github.com/datar-psa/mathverify/storage"
)

var configPath string

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "mathverify",
		Short:         "Benchmark an LLM on math questions with type-aware grading",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "mathverify.yaml", "config file path")

	root.AddCommand(runCmd(), reverifyCmd(), reportCmd(), checkCmd(), gradeCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func setup() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, err
	}

	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	log, err := zcfg.Build()
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, log, nil
}

func newGenerator(ctx context.Context, cfg config.Config) (mathverify.Generator, error) {
	switch cfg.Server.Provider {
	case "ollama":
		return ollama.NewClient(
			ollama.WithBaseURL(cfg.Server.BaseURL),
			ollama.WithModel(cfg.Server.Model),
			ollama.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Server.Timeout)}),
		), nil
	case "gemini":
		client, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendVertexAI})
		if err != nil {
			return nil, fmt.Errorf("creating gemini client: %w", err)
		}
		return gemini.NewGenerator(client, cfg.Server.Model), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Server.Provider)
	}
}

func newRunner(ctx context.Context, cfg config.Config, log *zap.Logger) (*runner.Runner, *storage.Store, error) {
	gen, err := newGenerator(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	store, err := storage.NewStore(cfg.Data.Dir)
	if err != nil {
		return nil, nil, err
	}
	r, err := runner.New(
		runner.WithGenerator(gen),
		runner.WithStore(store),
		runner.WithLogger(log),
		runner.WithModelName(cfg.Server.Model),
	)
	if err != nil {
		return nil, nil, err
	}
	return r, store, nil
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Process the question bank and grade each response",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			bank, err := dataset.LoadXML(cfg.Data.BankPath)
			if err != nil {
				return err
			}
			r, store, err := newRunner(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			summary, err := r.Run(cmd.Context(), bank)
			if err != nil {
				return err
			}
			printSummary(cmd, summary)
			return printTally(cmd, store)
		},
	}
}

func reverifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reverify",
		Short: "Re-grade stored responses without querying the model",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			r, store, err := newRunner(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			summary, err := r.Reverify(cmd.Context())
			if err != nil {
				return err
			}
			printSummary(cmd, summary)
			return printTally(cmd, store)
		},
	}
}

func reportCmd() *cobra.Command {
	var csvPath string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize stored results, optionally exporting CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup()
			if err != nil {
				return err
			}
			store, err := storage.NewStore(cfg.Data.Dir)
			if err != nil {
				return err
			}
			if csvPath != "" {
				f, err := os.Create(csvPath)
				if err != nil {
					return err
				}
				defer f.Close()
				if err := store.ExportCSV(f); err != nil {
					return err
				}
				cmd.Printf("wrote %s\n", csvPath)
			}
			return printTally(cmd, store)
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "export results to a CSV file")
	return cmd
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the LLM server is reachable and the model is available",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup()
			if err != nil {
				return err
			}
			if cfg.Server.Provider != "ollama" {
				cmd.Printf("provider %s: no health check available\n", cfg.Server.Provider)
				return nil
			}
			client := ollama.NewClient(
				ollama.WithBaseURL(cfg.Server.BaseURL),
				ollama.WithModel(cfg.Server.Model),
			)
			if err := client.Ping(cmd.Context()); err != nil {
				return err
			}
			cmd.Printf("server %s: ok\n", cfg.Server.BaseURL)
			ok, err := client.HasModel(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: %s", mathverify.ErrModelNotAvailable, cfg.Server.Model)
			}
			cmd.Printf("model %s: available\n", cfg.Server.Model)
			return nil
		},
	}
}

func gradeCmd() *cobra.Command {
	var alternate string
	cmd := &cobra.Command{
		Use:   "grade <response> <expected>",
		Short: "Grade a single response against an expected answer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := mathverify.VerifyWithAlternate(args[0], args[1], alternate)
			cmd.Printf("status: %s\n", v.VerificationStatus)
			cmd.Printf("extracted: %q (%s, confidence %.2f)\n",
				v.ExtractedAnswer, v.ExtractionMethod, v.ExtractionConfidence)
			cmd.Printf("types: %s vs %s\n", v.ExtractedType, v.ExpectedType)
			cmd.Printf("match: %s (%s, confidence %.2f)\n",
				v.MatchType, v.MatchedAnswer, v.ComparisonConfidence)
			if v.Details != "" {
				cmd.Printf("details: %s\n", v.Details)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&alternate, "alternate", "", "alternate accepted answer")
	return cmd
}

func printSummary(cmd *cobra.Command, s runner.Summary) {
	cmd.Printf("run %s: processed %d, skipped %d\n", s.RunID, s.Processed, s.Skipped)
}

func printTally(cmd *cobra.Command, store *storage.Store) error {
	t, err := store.Tally()
	if err != nil {
		return err
	}
	cmd.Printf("total %d: %d correct, %d incorrect, %d unverifiable, %d errors, %d response errors\n",
		t.Total, t.Correct, t.Incorrect, t.Unverifiable, t.Errors, t.ResponseErrors)
	cmd.Printf("accuracy: %.1f%%\n", t.Accuracy()*100)
	return nil
}
