package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/plmtools/lookconf/pkg/authoring"
	"github.com/plmtools/lookconf/pkg/report"
	"github.com/plmtools/lookconf/pkg/resolve"
)

// applyOpts holds the command-line flags for the apply command.
type applyOpts struct {
	host   string
	port   int
	dryRun bool
}

// newApplyCmd creates the apply command. It resolves a document against a
// configuration and pushes the result to the authoring service.
func newApplyCmd(root *rootOpts) *cobra.Command {
	opts := applyOpts{}

	cmd := &cobra.Command{
		Use:   "apply <file.plmxml> <configuration>",
		Short: "Push a resolved configuration to the authoring service",
		Long: `Resolve a PLM-XML document against a configuration string and apply
the result to the authoring service: switch node visibility, then connect
the winning material variants to the targets present in the scene.

The sequence is strictly ordered and has no rollback; the printed outcome
names every step that failed. Targets the scene does not carry are
excluded from the material call and reported, not errored on.

Examples:
  lookconf apply interior.plmxml "K8R+LED;S0A"
  lookconf apply interior.plmxml "K8R" --host render-07 --port 8080
  lookconf apply interior.plmxml "K8R" --dry-run`,
		Args: cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			logger := loggerFromContext(ctx)

			doc, _, err := loadDocument(ctx, root, args[0])
			if err != nil {
				return err
			}
			result := resolve.Resolve(doc, args[1])
			printInfo("%s", result.Summary())
			reportConflicts(doc)

			if opts.dryRun {
				printSuccess("dry run, nothing sent")
				return nil
			}

			cfg := root.settings.Authoring.ClientConfig()
			if c.Flags().Changed("host") {
				cfg.Host = opts.host
			}
			if c.Flags().Changed("port") {
				cfg.Port = opts.port
			}
			client := authoring.NewClient(cfg)

			sink, err := openSink(ctx, root)
			if err != nil {
				return err
			}
			defer sink.Close(ctx)

			prog := newProgress(logger)
			outcome := authoring.NewApplier(client, logger).Apply(ctx, doc, result)
			prog.done(fmt.Sprintf("Applied %d+%d visibility changes, %d materials",
				outcome.VisibleApplied, outcome.InvisibleApplied, len(outcome.MaterialsApplied)))

			if err := sink.Store(ctx, report.NewRecord(args[0], client.BaseURL(), outcome)); err != nil {
				logger.Warnf("apply report not stored: %v", err)
			}

			printOutcome(outcome)
			if !outcome.Success {
				return fmt.Errorf("apply finished with %d errors", len(outcome.Errors))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.host, "host", "", "authoring service host (overrides settings)")
	cmd.Flags().IntVar(&opts.port, "port", 0, "authoring service port (overrides settings)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "resolve and report without contacting the service")

	return cmd
}

// openSink builds the apply-report sink from settings. Reporting is
// opt-in; without a configured store every record is discarded.
func openSink(ctx context.Context, root *rootOpts) (report.Sink, error) {
	r := root.settings.Report
	if !r.Enabled() {
		return report.NullSink{}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return report.NewMongoSink(connectCtx, r.MongoURI, r.Database, r.Collection)
}

// printOutcome renders an apply outcome.
func printOutcome(out authoring.Outcome) {
	if out.Success {
		printSuccess("apply %s succeeded in %s", out.ID, out.Duration.Round(time.Millisecond))
	} else {
		printError("apply %s failed", out.ID)
		for _, e := range out.Errors {
			printDetail("%s", e)
		}
	}
	printKeyValue("service", out.Version)
	printKeyValue("visible", fmt.Sprintf("%d nodes", out.VisibleApplied))
	printKeyValue("hidden", fmt.Sprintf("%d nodes", out.InvisibleApplied))
	printKeyValue("materials", fmt.Sprintf("%d targets", len(out.MaterialsApplied)))
	if len(out.MissingTargets) > 0 {
		printWarning("not in scene: %s", strings.Join(out.MissingTargets, " "))
	}
}
