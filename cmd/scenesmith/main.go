package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/bug39/scenesmith/internal/server"
	"github.com/bug39/scenesmith/pkg/compose"
	"github.com/bug39/scenesmith/pkg/config"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "scenesmith",
		Short: "LLM-planned 3D scene composition and verification engine",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "engine config YAML (defaults apply when omitted)")

	rootCmd.AddCommand(composeCmd(&configPath))
	rootCmd.AddCommand(analyzeCmd(&configPath))
	rootCmd.AddCommand(serveCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Engine, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func composeCmd(configPath *string) *cobra.Command {
	var seed int64

	cmd := &cobra.Command{
		Use:   "compose [plan.json]",
		Short: "Normalize a saved plan, resolve placements, and print the analyzed scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			return runCompose(cfg, args[0], seed)
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", 0, "placement jitter seed (0 derives one from the plan theme)")
	return cmd
}

func analyzeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [placements.json]",
		Short: "Run the collision and composition analysis over saved placements",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			return runAnalyze(cfg, args[0])
		},
	}
}

func serveCmd(configPath *string) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the local dev server",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			orch := compose.New(cfg, compose.Deps{})
			srv := server.New(cfg, orch, port)
			return srv.Start()
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 3000, "HTTP server port")
	return cmd
}
