package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pim",
	Short: "PIM completeness engine",
	Long: `PIM Completeness CLI

상품별 채널/로케일 completeness 계산 및 저장.
패밀리 요구 속성 중 값이 있는 속성과 누락된 속성을 계산합니다.

Usage:
  go run ./cmd/pim [command]

Examples:
  go run ./cmd/pim completeness compute michel jean
  go run ./cmd/pim completeness compute michel --fixtures internal/catalog/fixture/testdata/catalog.yaml
  go run ./cmd/pim completeness recompute
  go run ./cmd/pim scheduler start
  go run ./cmd/pim test-db`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
