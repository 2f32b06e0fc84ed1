package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	config     Config
	logger     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "server",
	Short:         "StackIt Q&A board server",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(configPath)
		if err != nil {
			return err
		}
		config = cfg
		logger = newLogger(cfg.LogLevel)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (optional)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().String("file", "", "JSON dump of browser localStorage (questions, likedQuestions)")
	importCmd.Flags().Bool("force", false, "Overwrite an existing questions snapshot")
	_ = importCmd.MarkFlagRequired("file")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
