// Package cli implements the fairsearch command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fairsearch/internal/config"
	"fairsearch/internal/embedder"
	"fairsearch/internal/engine"
	"fairsearch/internal/logger"
	"fairsearch/internal/relevance"
)

var (
	cfgFile string
	verbose bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "fairsearch",
	Short: "Semantic search over scientific data files",
	Long: `fairsearch indexes scientific data files (NetCDF, HDF5, GRIB) by
embedding their metadata together with companion documentation found
nearby (READMEs, citation files, processing scripts), then answers
natural language queries against the index.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.SetVerbose(verbose)

		var err error
		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadDefault()
		}
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.fairsearch/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// Execute runs the root command. Any error exits with status 1.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newEngine builds an engine over the persisted index with the
// configured embedder and, when enabled, the relevance judge.
func newEngine() (*engine.Engine, error) {
	return buildEngine(false)
}

// newFreshEngine builds an engine over an empty index, ignoring any
// persisted one. The next Save overwrites the old index.
func newFreshEngine() (*engine.Engine, error) {
	return buildEngine(true)
}

func buildEngine(fresh bool) (*engine.Engine, error) {
	var emb embedder.Embedder
	var err error
	if os.Getenv("FAIRSEARCH_EMBEDDING_PROVIDER") != "" {
		// environment overrides the config file, .env included
		emb, err = embedder.NewFromEnv()
	} else {
		emb, err = embedder.New(cfg.Embedder)
	}
	if err != nil {
		return nil, fmt.Errorf("initialize embedder: %w", err)
	}

	var judge relevance.Judge
	if cfg.Judge.Enabled {
		judge = relevance.NewOllamaJudge(cfg.Judge)
	}

	if fresh {
		return engine.New(cfg, emb, judge), nil
	}
	eng, err := engine.Load(cfg, emb, judge)
	if err != nil {
		_ = emb.Close()
		return nil, err
	}
	return eng, nil
}
