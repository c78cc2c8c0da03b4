package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go-fwpm/internal/importer"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type importOptions struct {
	maps        []string
	mappingFile string
	force       bool
	dryRun      bool
	importID    string
}

// trackingGateway remembers the last transport or service failure, which the
// session itself only keeps as a generic message
type trackingGateway struct {
	importer.Gateway
	lastErr error
}

func (g *trackingGateway) Validate(ctx context.Context, file importer.SourceFile, mapping importer.Mapping) (*importer.ValidationResult, error) {
	res, err := g.Gateway.Validate(ctx, file, mapping)
	g.lastErr = err
	return res, err
}

func (g *trackingGateway) Commit(ctx context.Context, file importer.SourceFile, mapping importer.Mapping, req importer.CommitRequest) (*importer.CommitResult, error) {
	res, err := g.Gateway.Commit(ctx, file, mapping, req)
	g.lastErr = err
	return res, err
}

func newImportCmd(opts *globalOptions) *cobra.Command {
	var iopts importOptions

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Validate and import a CSV file of tasks",
		Long: "Reads FILE, infers the column mapping, validates it against the task service " +
			"and commits it. Each run commits under a fresh import id, printed at the start. " +
			"To retry a failed import without storing any row twice, run again with --import-id set to that id.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := parseMapFlags(iopts.maps)
			if err != nil {
				return withCode(exitUsage, err)
			}
			if iopts.mappingFile != "" {
				fromFile, err := importer.LoadMappingFile(iopts.mappingFile)
				if err != nil {
					return withCode(exitUsage, err)
				}
				overrides = merge(fromFile, overrides)
			}

			client, err := opts.client()
			if err != nil {
				return err
			}
			source, err := importer.ReadSource(args[0])
			if err != nil {
				return withCode(exitUsage, err)
			}

			wfOpts := []importer.Option{
				importer.WithLogger(opts.logger()),
				importer.WithCallTimeout(opts.timeout),
			}
			if iopts.importID != "" {
				id, err := uuid.Parse(iopts.importID)
				if err != nil {
					return withCode(exitUsage, fmt.Errorf("invalid --import-id %q: %w", iopts.importID, err))
				}
				wfOpts = append(wfOpts, importer.WithIDGenerator(id.String))
			}

			gw := &trackingGateway{Gateway: client}
			wf := importer.NewWorkflow(gw, client, wfOpts...)
			return runImport(cmd.Context(), cmd.OutOrStdout(), wf, gw, source, overrides, iopts)
		},
	}

	cmd.Flags().StringArrayVar(&iopts.maps, "map", nil, "Override one column: Header=field (Header= leaves it unmapped)")
	cmd.Flags().StringVar(&iopts.mappingFile, "mapping-file", "", "YAML file of column overrides")
	cmd.Flags().BoolVar(&iopts.force, "force", false, "Import the valid rows even when validation reports errors")
	cmd.Flags().BoolVar(&iopts.dryRun, "dry-run", false, "Validate only")
	cmd.Flags().StringVar(&iopts.importID, "import-id", "", "Commit under this import id, to retry a failed import")
	return cmd
}

func runImport(ctx context.Context, out io.Writer, wf *importer.Workflow, gw *trackingGateway, source importer.SourceFile, overrides importer.Overrides, opts importOptions) error {
	wf.Open()
	if _, err := wf.SelectFile(source); err != nil {
		return err
	}
	s, err := wf.Next()
	if err != nil {
		if isParseError(err) {
			return withCode(exitValidation, err)
		}
		return err
	}

	for _, ev := range overrides.Events() {
		if s, err = wf.SetField(ev.Header, ev.Field); err != nil {
			if errors.Is(err, importer.ErrUnknownHeader) {
				return withCode(exitUsage, err)
			}
			return err
		}
	}

	fmt.Fprintln(out, titleStyle.Render(source.Name)+" "+subtleStyle.Render("import "+s.ImportID))
	printMapping(out, s.Mapping)

	if err := commitSession(ctx, out, wf, gw, opts); err != nil {
		if !opts.dryRun && exitCode(err) != exitValidation {
			fmt.Fprintln(out, subtleStyle.Render("Re-run with --import-id "+s.ImportID+" to retry this import safely"))
		}
		return err
	}
	return nil
}

func commitSession(ctx context.Context, out io.Writer, wf *importer.Workflow, gw *trackingGateway, opts importOptions) error {
	s, err := wf.Validate(ctx)
	if err != nil {
		return err
	}
	if gw.lastErr != nil {
		return withCode(exitGateway, gw.lastErr)
	}

	switch s.Stage {
	case importer.StageValidation:
		printErrors(out, "Validation failed", s.Errors)
		if !opts.force || opts.dryRun {
			return withCode(exitValidation, fmt.Errorf("validation failed with %d error(s)", len(s.Errors)))
		}
		fmt.Fprintln(out, warnStyle.Render("Forcing import; rows with errors will be skipped"))
		s, err = wf.ForceCommit(ctx)
	case importer.StageResults:
		fmt.Fprintln(out, successStyle.Render("Validation passed"))
		if len(s.Preview) > 0 {
			fmt.Fprintln(out, renderRecords(s.Preview))
		}
		if opts.dryRun {
			return nil
		}
		s, err = wf.Confirm(ctx)
	default:
		return fmt.Errorf("unexpected stage %s after validation", s.Stage)
	}
	if err != nil {
		return err
	}

	if s.Failed() {
		printErrors(out, "Import failed", s.Errors)
		if gw.lastErr != nil {
			return withCode(exitGateway, gw.lastErr)
		}
		return withCode(exitCommit, errors.New("import failed"))
	}

	msg := fmt.Sprintf("Imported %d task(s)", s.Imported)
	if s.Inserted != s.Imported {
		msg += fmt.Sprintf(" (%d new)", s.Inserted)
	}
	fmt.Fprintln(out, successStyle.Render(msg))
	if len(s.Skipped) > 0 {
		printErrors(out, "Skipped", s.Skipped)
	}

	tasks, err := wf.Close(ctx)
	if err != nil {
		fmt.Fprintln(out, warnStyle.Render("Could not refresh task list: "+err.Error()))
		return nil
	}
	fmt.Fprintln(out, subtleStyle.Render(fmt.Sprintf("%d task(s) in store", len(tasks))))
	return nil
}
