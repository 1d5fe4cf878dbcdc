// Package main is the pdfqa CLI entry point.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/pdfqa/internal/cli"
	"github.com/hyperjump/pdfqa/internal/config"
	"github.com/spf13/cobra"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/pdfqa/config.yaml"
	defaultServerURL  = "http://localhost:8000"
)

// loadConfig loads config from path. When path is the default, config.yaml in
// the current directory wins if present; when neither exists the built-in
// defaults are used. The second return value is the file actually loaded, or
// empty for built-in defaults.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			if err := config.LoadEnv(".env"); err != nil {
				return nil, "", err
			}
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// joinArgs joins positional args so multi-word questions work with or without quotes.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pdfqa",
		Short:         "Ask questions about PDF documents",
		Long:          "pdfqa runs a document question-answering backend and talks to it:\nupload a PDF, then ask, summarize or search it by doc_id.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	serverURL := os.Getenv("PDFQA_SERVER")
	if serverURL == "" {
		serverURL = defaultServerURL
	}
	root.PersistentFlags().String("server", serverURL, "pdfqa server URL")
	root.PersistentFlags().String("output", string(cli.OutputText), "output format: text or json")

	root.AddCommand(
		newServerCmd(),
		newUploadCmd(),
		newAskCmd(),
		newSummaryCmd(),
		newSearchCmd(),
		newHealthCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Show version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "pdfqa version %s\n", version)
			},
		},
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cli.ErrorMessage(err))
		os.Exit(1)
	}
}
