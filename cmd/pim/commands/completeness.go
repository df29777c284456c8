package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/pim/backend/internal/completeness"
	"github.com/wonny/pim/backend/internal/contracts"
	"github.com/wonny/pim/backend/pkg/config"
)

// completenessCmd represents the completeness command
var completenessCmd = &cobra.Command{
	Use:   "completeness",
	Short: "Completeness 계산/저장",
	Long: `상품 completeness를 계산하거나 저장합니다.

Subcommands:
  compute    - 지정한 상품 계산 (--save 로 저장)
  recompute  - 전체 상품 재계산 (배치 단위 저장)
  show       - 저장된 completeness 조회

Example:
  go run ./cmd/pim completeness compute michel jean
  go run ./cmd/pim completeness compute michel --save
  go run ./cmd/pim completeness recompute
  go run ./cmd/pim completeness show 42`,
}

var (
	computeSave     bool
	computeFixtures string
	computeJSON     bool

	completenessComputeCmd = &cobra.Command{
		Use:   "compute [identifier...]",
		Short: "지정한 상품의 completeness 계산",
		Long: `상품 식별자 목록의 completeness를 한 번의 배치로 계산합니다.

--fixtures 를 주면 DB 대신 YAML 픽스처에서 마스크를 읽습니다 (저장 불가).
--save 를 주면 계산 결과를 pim_catalog_completeness 에 저장합니다.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCompute,
	}

	completenessRecomputeCmd = &cobra.Command{
		Use:   "recompute",
		Short: "전체 상품 completeness 재계산",
		Long: `모든 상품을 식별자 순으로 COMPLETENESS_BATCH_SIZE 단위로 재계산하고 저장합니다.
배치 하나라도 실패하면 실행 전체가 실패합니다 (스케줄러 재시도 정책 적용).`,
		RunE: runRecompute,
	}

	completenessShowCmd = &cobra.Command{
		Use:   "show [product_id]",
		Short: "저장된 completeness 조회",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
)

func init() {
	rootCmd.AddCommand(completenessCmd)
	completenessCmd.AddCommand(completenessComputeCmd)
	completenessCmd.AddCommand(completenessRecomputeCmd)
	completenessCmd.AddCommand(completenessShowCmd)

	completenessComputeCmd.Flags().BoolVar(&computeSave, "save", false, "persist the computed completeness")
	completenessComputeCmd.Flags().StringVar(&computeFixtures, "fixtures", "", "YAML fixture file used instead of the database (default $COMPLETENESS_FIXTURES)")
	completenessComputeCmd.Flags().BoolVar(&computeJSON, "json", false, "print results as JSON")
}

func runCompute(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	fixtures := computeFixtures
	if fixtures == "" && !computeSave {
		if cfg, err := config.LoadOffline(); err == nil {
			fixtures = cfg.Completeness.FixturesPath
		}
	}

	if fixtures != "" {
		if computeSave {
			return fmt.Errorf("--save cannot be combined with --fixtures")
		}

		calc, cat, _, err := newFixtureCalculator(fixtures)
		if err != nil {
			return err
		}
		if !computeJSON {
			PrintHeader(out, "Completeness (fixtures)", map[string]string{
				"File":     fixtures,
				"Hash":     cat.Hash()[:12],
				"Products": strconv.Itoa(len(args)),
			})
		}
		return computeAndPrint(ctx, cmd, calc, args)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if computeSave {
		saved, err := a.service().ComputeAndSave(ctx, args)
		if err != nil {
			return err
		}
		PrintSuccess(out, fmt.Sprintf("saved %d completeness rows for %d products in %v",
			saved.Completenesses, saved.Products, saved.Duration.Round(time.Millisecond)))
		return nil
	}

	if !computeJSON {
		PrintHeader(out, "Completeness", map[string]string{
			"Env":      a.cfg.Env,
			"Products": strconv.Itoa(len(args)),
		})
	}
	return computeAndPrint(ctx, cmd, a.calculator, args)
}

func computeAndPrint(ctx context.Context, cmd *cobra.Command, calc contracts.CompletenessCalculator, identifiers []string) error {
	results, err := calc.FromProductIdentifiers(ctx, identifiers)
	if err != nil {
		return err
	}

	ordered := make([]string, 0, len(results))
	for identifier := range results {
		ordered = append(ordered, identifier)
	}
	sort.Strings(ordered)

	out := cmd.OutOrStdout()
	if computeJSON {
		type productJSON struct {
			Identifier string                           `json:"identifier"`
			ProductID  int64                            `json:"product_id"`
			Ratios     map[string]map[string]int        `json:"ratios"`
			Missing    []completeness.MissingAttributes `json:"missing"`
		}
		payload := make([]productJSON, 0, len(ordered))
		for _, identifier := range ordered {
			collection := results[identifier]
			payload = append(payload, productJSON{
				Identifier: identifier,
				ProductID:  collection.ProductID,
				Ratios:     completeness.NormalizeForIndex(collection),
				Missing:    completeness.NormalizeMissingAttributes(collection),
			})
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	}

	for _, identifier := range ordered {
		PrintCompleteness(out, identifier, results[identifier])
	}
	return nil
}

func runRecompute(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	job := a.recomputeJob()
	out := cmd.OutOrStdout()
	PrintHeader(out, "Completeness recompute", map[string]string{
		"Env":       a.cfg.Env,
		"BatchSize": strconv.Itoa(a.cfg.Completeness.BatchSize),
	})

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		run := job.LastRun()
		PrintWarning(out, fmt.Sprintf("run %s stopped after %d batches (last identifier %q)",
			run.ID, run.Batches, run.LastIdentifier))
		return err
	}

	run := job.LastRun()
	PrintSuccess(out, fmt.Sprintf("run %s: %d products in %d batches (%d rows) in %v",
		run.ID, run.Products, run.Batches, run.Completenesses, time.Since(start).Round(time.Millisecond)))
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	productID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid product id %q: %w", args[0], err)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	collection, err := a.completeness.FromProductID(cmd.Context(), productID)
	if err != nil {
		return err
	}

	PrintPersistedCompleteness(cmd.OutOrStdout(), collection)
	return nil
}
