package main

import (
	"errors"
	"path/filepath"

	"github.com/hyperjump/pdfqa/internal/cli"
	"github.com/hyperjump/pdfqa/internal/client"
	"github.com/spf13/cobra"
)

// clientFlags reads the persistent --server and --output flags.
func clientFlags(cmd *cobra.Command) (*client.Client, cli.OutputFormat, error) {
	server, _ := cmd.Flags().GetString("server")
	output, _ := cmd.Flags().GetString("output")
	format, err := cli.ParseFormat(output)
	if err != nil {
		return nil, "", err
	}
	return client.New(server), format, nil
}

func newUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file.pdf>",
		Short: "Upload a PDF and print its doc_id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, format, err := clientFlags(cmd)
			if err != nil {
				return err
			}
			resp, err := c.Upload(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return cli.WriteUpload(cmd.OutOrStdout(), filepath.Base(args[0]), resp, format)
		},
	}
}

func newAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask --doc <doc_id> <question...>",
		Short: "Ask a question about an uploaded PDF",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, format, err := clientFlags(cmd)
			if err != nil {
				return err
			}
			docID, _ := cmd.Flags().GetString("doc")
			question := joinArgs(args)
			if question == "" {
				return errors.New("question is required")
			}
			resp, err := c.Ask(cmd.Context(), docID, question)
			if err != nil {
				return err
			}
			return cli.WriteAnswer(cmd.OutOrStdout(), question, resp, format)
		},
	}
	cmd.Flags().String("doc", "", "doc_id returned by upload")
	return cmd
}

func newSummaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary --doc <doc_id>",
		Short: "Summarize an uploaded PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, format, err := clientFlags(cmd)
			if err != nil {
				return err
			}
			docID, _ := cmd.Flags().GetString("doc")
			resp, err := c.Summary(cmd.Context(), docID)
			if err != nil {
				return err
			}
			return cli.WriteSummary(cmd.OutOrStdout(), resp, format)
		},
	}
	cmd.Flags().String("doc", "", "doc_id returned by upload")
	return cmd
}

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search --doc <doc_id> [--top-k n] <query...>",
		Short: "Show the passages of a PDF closest to a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, format, err := clientFlags(cmd)
			if err != nil {
				return err
			}
			docID, _ := cmd.Flags().GetString("doc")
			topK, _ := cmd.Flags().GetInt("top-k")
			query := joinArgs(args)
			if query == "" {
				return errors.New("query is required")
			}
			resp, err := c.Search(cmd.Context(), docID, query, topK)
			if err != nil {
				return err
			}
			return cli.WriteSearchResults(cmd.OutOrStdout(), query, resp, format)
		},
	}
	cmd.Flags().String("doc", "", "doc_id returned by upload")
	cmd.Flags().Int("top-k", 0, "number of hits (0 = server default)")
	return cmd
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the server is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, format, err := clientFlags(cmd)
			if err != nil {
				return err
			}
			resp, err := c.Health(cmd.Context())
			if err != nil {
				return err
			}
			return cli.WriteHealth(cmd.OutOrStdout(), c.BaseURL(), resp, format)
		},
	}
}
