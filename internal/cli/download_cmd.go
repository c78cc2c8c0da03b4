package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

const templateFileName = "implementation_tasks_template.csv"

func newTemplateCmd(opts *globalOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Download the CSV import template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			data, err := client.Template(cmd.Context())
			if err != nil {
				return withCode(exitGateway, err)
			}
			path, err := writeDownload(cmd.OutOrStdout(), output, templateFileName, data)
			if err != nil {
				return err
			}
			if path != "" {
				fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Template written to "+path))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (- for stdout)")
	return cmd
}

func newExportCmd(opts *globalOptions) *cobra.Command {
	var (
		output string
		format string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download every task as CSV or Excel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			if format != "csv" && format != "xlsx" {
				return withCode(exitUsage, fmt.Errorf("invalid --format %q: want csv or xlsx", format))
			}
			client, err := opts.client()
			if err != nil {
				return err
			}
			data, name, err := client.Export(cmd.Context(), format)
			if err != nil {
				return withCode(exitGateway, err)
			}
			if name == "" {
				name = "implementation_tasks." + format
			}
			path, err := writeDownload(cmd.OutOrStdout(), output, name, data)
			if err != nil {
				return err
			}
			if path != "" {
				fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Export written to "+path))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "csv", "Export format: csv or xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (- for stdout)")
	return cmd
}
