package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/codemend/internal/config"
	"github.com/sprite-ai/codemend/internal/detect"
	"github.com/sprite-ai/codemend/internal/model"
	"github.com/sprite-ai/codemend/internal/patch"
	"github.com/sprite-ai/codemend/internal/registry"
	"github.com/sprite-ai/codemend/internal/review"
	"github.com/sprite-ai/codemend/internal/suggest"
	"github.com/sprite-ai/codemend/internal/validate"
)

var fixCmd = &cobra.Command{
	Use:   "fix [paths...]",
	Short: "Scan, review, and apply fixes",
	Long: `Run the full repair pipeline: scan for defects, enrich findings with
suggested fixes, review each fix interactively, apply the approved ones
with per-file snapshots, then run the project's validation commands.

Snapshots (*` + patch.SnapshotSuffix + `) are kept when validation fails
so the changes can be rolled back with "codemend restore".`,
	RunE: runFix,
}

func init() {
	fixCmd.Flags().BoolP("yes", "y", false, "approve every fix without prompting")
	fixCmd.Flags().Bool("dry-run", false, "report what would change without writing files")
	fixCmd.Flags().Float64("min-confidence", -1, "confidence threshold for applying fixes")
	fixCmd.Flags().Bool("no-validate", false, "skip validation commands after applying")
	fixCmd.Flags().Bool("keep-snapshots", false, "keep snapshot files even when validation passes")
	fixCmd.Flags().Bool("no-llm", false, "skip LLM fix enrichment")
	fixCmd.Flags().Bool("staged", false, "fix staged git changes only")
	fixCmd.Flags().Bool("tracked", false, "fix all git-tracked files")
	fixCmd.Flags().StringSlice("skip", nil, "analyzers to skip")
	fixCmd.Flags().String("model", "", "suggestion model name")
	fixCmd.Flags().String("ollama-url", "", "Ollama base URL")
}

func runFix(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd)
	ctx := cmd.Context()

	staged, _ := cmd.Flags().GetBool("staged")
	tracked, _ := cmd.Flags().GetBool("tracked")
	files, root, err := collectFiles(args, staged, tracked)
	if err != nil {
		return fmt.Errorf("loading sources: %w", err)
	}
	if len(files) == 0 {
		fmt.Println("No files to fix.")
		return nil
	}

	cfg, err := loadConfig(root, fixOverrides(cmd))
	if err != nil {
		return err
	}

	yes, _ := cmd.Flags().GetBool("yes")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if !yes && !dryRun && !stdinIsTerminal() {
		return fmt.Errorf("no interactive terminal; use --yes or --dry-run")
	}

	// Scan.
	skip, _ := cmd.Flags().GetStringSlice("skip")
	if len(skip) == 0 {
		skip = cfg.SkipAnalyzers
	}
	cache := registry.NewCache(cfg.RegistryTTL, nil)
	reg := registry.NewClient(cache, logger)
	analyzers := filterAnalyzers(detect.AllAnalyzers(reg), skip)

	fmt.Fprintf(os.Stderr, "Scanning %d file(s)...\n", len(files))
	report := detect.Run(ctx, analyzers, files, logger)
	if len(report.Findings) == 0 {
		okColor.Println("No issues found.")
		return nil
	}
	fmt.Fprintf(os.Stderr, "Found %s\n", report.Summary())

	// Enrich findings that lack a fix.
	contents := make(map[string]string, len(files))
	for _, f := range files {
		contents[f.Path] = f.Content
	}
	findings := report.Findings
	if noLLM, _ := cmd.Flags().GetBool("no-llm"); !noLLM {
		engine := suggest.NewOllamaEngine(cfg.OllamaBaseURL, cfg.Model, nil, logger)
		enricher := suggest.NewEnricher(engine, logger,
			suggest.WithAllowedCategories(toSet(cfg.Categories)),
			suggest.WithMaxConcurrency(cfg.MaxConcurrency))
		fmt.Fprintln(os.Stderr, "Generating fix suggestions...")
		findings = enricher.Enrich(ctx, findings, contents)
	}

	fixable := 0
	for _, f := range findings {
		if f.HasFix() {
			fixable++
		}
	}
	if fixable == 0 {
		fmt.Println("No applicable fixes.")
		return nil
	}

	// Review.
	var decision *review.Result
	if yes || dryRun {
		decision = review.ApproveAll(findings)
	} else {
		decision, err = review.Run(findings)
		if err != nil {
			return err
		}
	}
	if decision.Cancelled {
		fmt.Println("Review aborted; nothing applied.")
		return nil
	}
	if len(decision.Approved) == 0 {
		fmt.Println("No fixes approved.")
		return nil
	}

	// Apply.
	patcher := patch.New(logger,
		patch.WithMinConfidence(cfg.MinConfidence),
		patch.WithDryRun(dryRun))
	results := patcher.ApplyFixes(decision.Approved)
	printPatchResults(results, dryRun)

	if dryRun {
		return nil
	}

	// Validate.
	noValidate, _ := cmd.Flags().GetBool("no-validate")
	if !noValidate && len(cfg.Validate) > 0 {
		procs, err := buildProcedures(cfg.Validate)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "Running validation...")
		outcomes := validate.New(procs, logger).Validate(ctx, results)
		printValidationOutcomes(outcomes)

		if !model.AllPassed(outcomes) {
			fmt.Println("Snapshots kept; run \"codemend restore\" to roll back.")
			return fmt.Errorf("validation failed")
		}
	}

	if keep, _ := cmd.Flags().GetBool("keep-snapshots"); !keep {
		patcher.Cleanup(results)
	}
	return nil
}

func fixOverrides(cmd *cobra.Command) *config.Overrides {
	o := &config.Overrides{}
	if v, _ := cmd.Flags().GetString("model"); v != "" {
		o.Model = &v
	}
	if v, _ := cmd.Flags().GetString("ollama-url"); v != "" {
		o.OllamaBaseURL = &v
	}
	if v, _ := cmd.Flags().GetFloat64("min-confidence"); v >= 0 {
		o.MinConfidence = &v
	}
	return o
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, s := range items {
		set[s] = true
	}
	return set
}

func stdinIsTerminal() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func buildProcedures(cmds []config.ValidationCommand) ([]validate.Procedure, error) {
	procs := make([]validate.Procedure, 0, len(cmds))
	for _, vc := range cmds {
		timeout, err := vc.ValidationTimeout()
		if err != nil {
			return nil, err
		}
		procs = append(procs, validate.Procedure{
			Name:    vc.Name,
			Command: vc.Command,
			Dir:     vc.Dir,
			Timeout: timeout,
		})
	}
	return procs, nil
}

func printPatchResults(results []model.PatchResult, dryRun bool) {
	applied, failed := 0, 0
	for _, r := range results {
		if r.Success {
			applied++
			verb := "applied"
			if dryRun {
				verb = "would apply"
			}
			okColor.Printf("  ✓ %s %s (%d line(s) changed)\n", verb, r.FilePath, r.Stats.LinesChanged)
		} else {
			failed++
			criticalColor.Printf("  ✗ %s: %s\n", r.FilePath, r.Error)
		}
	}
	fmt.Printf("%d fix(es) applied, %d failed\n", applied, failed)
}

func printValidationOutcomes(outcomes []model.ValidationOutcome) {
	for _, o := range outcomes {
		switch {
		case o.Skipped:
			dimColor.Printf("  - %s: skipped\n", o.Procedure)
		case o.Passed:
			okColor.Printf("  ✓ %s passed (%dms)\n", o.Procedure, o.Duration)
		default:
			criticalColor.Printf("  ✗ %s failed: %s\n", o.Procedure, o.Error)
		}
	}
}
