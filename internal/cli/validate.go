package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plmtools/lookconf/pkg/authoring"
)

// validateOpts holds the command-line flags for the validate command.
type validateOpts struct {
	host string
	port int
}

// newValidateCmd creates the validate command. It checks that the scene
// loaded in the authoring service carries every configurable node and
// material target the document expects.
func newValidateCmd(root *rootOpts) *cobra.Command {
	opts := validateOpts{}

	cmd := &cobra.Command{
		Use:   "validate <file.plmxml>",
		Short: "Compare a document against the scene loaded in the service",
		Long: `Fetch the scene structure and the material target list from the
authoring service and check that every configurable node (by LINC id) and
every material target of the document is present. Nodes without a LINC id
cannot be correlated and count as missing.

Examples:
  lookconf validate interior.plmxml
  lookconf validate interior.plmxml --host render-07 --port 8080`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			logger := loggerFromContext(ctx)

			doc, _, err := loadDocument(ctx, root, args[0])
			if err != nil {
				return err
			}

			cfg := root.settings.Authoring.ClientConfig()
			if c.Flags().Changed("host") {
				cfg.Host = opts.host
			}
			if c.Flags().Changed("port") {
				cfg.Port = opts.port
			}
			client := authoring.NewClient(cfg)

			prog := newProgress(logger)
			report, err := authoring.NewApplier(client, logger).ValidateScene(ctx, doc)
			if err != nil {
				return err
			}
			prog.done("Scene validated")

			printKeyValue("nodes", fmt.Sprintf("%d in scene, %d missing", report.SceneNodes, len(report.MissingNodes)))
			printKeyValue("targets", fmt.Sprintf("%d in scene, %d missing", report.SceneTargets, len(report.MissingTargets)))
			for _, name := range report.MissingNodes {
				printDetail("node missing from scene: %s", name)
			}
			for _, name := range report.MissingTargets {
				printDetail("target missing from scene: %s", name)
			}

			if !report.Clean() {
				printError("scene does not match the document")
				return fmt.Errorf("%d nodes and %d targets missing",
					len(report.MissingNodes), len(report.MissingTargets))
			}
			printSuccess("scene matches the document")
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.host, "host", "", "authoring service host (overrides settings)")
	cmd.Flags().IntVar(&opts.port, "port", 0, "authoring service port (overrides settings)")

	return cmd
}
