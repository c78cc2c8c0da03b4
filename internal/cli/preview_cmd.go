package cli

import (
	"errors"
	"fmt"
	"io"

	"go-fwpm/internal/common/models"
	"go-fwpm/internal/importer"

	"github.com/spf13/cobra"
)

func newPreviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview FILE",
		Short: "Show the headers, sample rows and inferred mapping of a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := importer.ReadSource(args[0])
			if err != nil {
				return withCode(exitUsage, err)
			}
			preview, err := importer.Parse(source.Text())
			if err != nil {
				return withCode(exitValidation, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render(source.Name))
			printSamples(out, preview.Headers, preview.SampleRows)

			m := importer.Infer(preview.Headers, models.RequiredFields, models.OptionalFields)
			printMapping(out, m)
			printIssues(out, importer.Check(m, models.RequiredFields, models.OptionalFields))
			return nil
		},
	}
}

func printSamples(out io.Writer, headers []string, rows []importer.Row) {
	values := make([][]string, len(rows))
	for i, r := range rows {
		values[i] = r.Values
	}
	fmt.Fprintln(out, renderTable(headers, values))
}

func printMapping(out io.Writer, m importer.Mapping) {
	rows := make([][]string, len(m))
	for i, a := range m {
		target := subtleStyle.Render("(unmapped)")
		if a.Field != nil {
			target = string(*a.Field)
			if models.IsRequiredField(*a.Field) {
				target += " *"
			}
		}
		rows[i] = []string{a.Header, target}
	}
	fmt.Fprintln(out, titleStyle.Render("Mapping"))
	fmt.Fprintln(out, renderTable([]string{"Column", "Field"}, rows))
}

func printIssues(out io.Writer, issues []importer.MappingIssue) {
	for _, issue := range issues {
		fmt.Fprintln(out, warnStyle.Render("! "+issue.Error()))
	}
}

func printErrors(out io.Writer, title string, msgs []string) {
	fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("%s (%d)", title, len(msgs))))
	for _, m := range msgs {
		fmt.Fprintln(out, errorStyle.Render("  "+m))
	}
}

func isParseError(err error) bool {
	var perr *importer.ParseError
	return errors.As(err, &perr)
}
