package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/awmpietro/golang-workflow-volume/internal/app"
	"github.com/awmpietro/golang-workflow-volume/internal/transport/workflowdto"
)

func newCountCmd(root *rootOptions) *cobra.Command {
	var debug, asJSON bool
	cmd := &cobra.Command{
		Use:   "count [file]",
		Short: "Print how many domain points reach Accept",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readDefinitions(cmd, args)
			if err != nil {
				return err
			}
			svc, err := root.service()
			if err != nil {
				return err
			}

			res, err := svc.Count(cmd.Context(), src, app.CountOptions{Debug: debug})
			if err != nil {
				return err
			}
			if asJSON || debug {
				return writeJSON(cmd.OutOrStdout(), workflowdto.NewCountResponse(res))
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Accepted.String())
			return err
		},
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "include the per-workflow propagation trace (implies --json)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}

func newClassifyCmd(root *rootOptions) *cobra.Command {
	var rating string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "classify [file]",
		Short: "Route the records listed after the definitions and print the accepted rating",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readDefinitions(cmd, args)
			if err != nil {
				return err
			}
			svc, err := root.service()
			if err != nil {
				return err
			}

			res, err := svc.Classify(cmd.Context(), src, nil, app.ClassifyOptions{Rating: rating})
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), workflowdto.NewClassifyResponse(res))
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Rating)
			return err
		},
	}
	cmd.Flags().StringVar(&rating, "rating", "", "rating expression over attribute names (default: sum of all attributes)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print every verdict as JSON")
	return cmd
}

func newDotCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dot [file]",
		Short: "Render the definitions as a Graphviz digraph",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readDefinitions(cmd, args)
			if err != nil {
				return err
			}
			svc, err := root.service()
			if err != nil {
				return err
			}

			dot, err := svc.Render(src)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), dot)
			return err
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
