package cli

import (
	"encoding/json"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/plmtools/lookconf/pkg/resolve"
)

// resolveOpts holds the command-line flags for the resolve command.
type resolveOpts struct {
	output      string // JSON result output path
	asJSON      bool
	interactive bool
}

// newResolveCmd creates the resolve command. It resolves a document
// against a configuration string and prints the visibility partition and
// material assignments.
func newResolveCmd(root *rootOpts) *cobra.Command {
	opts := resolveOpts{}

	cmd := &cobra.Command{
		Use:   "resolve <file.plmxml> <configuration>",
		Short: "Resolve a document against a configuration string",
		Long: `Resolve a PLM-XML document against a PR-code configuration string.
Nodes carrying PR tags are partitioned into visible and invisible, and
each material target gets the last of its variants whose tags match.

Examples:
  lookconf resolve interior.plmxml "K8R+LED;S0A"
  lookconf resolve interior.plmxml "K8R" --json -o result.json
  lookconf resolve interior.plmxml "K8R" -i`,
		Args: cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			logger := loggerFromContext(ctx)

			doc, _, err := loadDocument(ctx, root, args[0])
			if err != nil {
				return err
			}

			prog := newProgress(logger)
			result := resolve.Resolve(doc, args[1])
			prog.done(fmt.Sprintf("Resolved against %q", args[1]))

			if opts.interactive {
				model := newResultBrowser(doc, result)
				_, err := tea.NewProgram(model).Run()
				return err
			}

			if opts.asJSON || c.Flags().Changed("output") {
				data, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return err
				}
				return writeOutput(data, opts.output)
			}

			printSuccess("%s", result.Summary())
			for _, id := range result.Visible {
				n := doc.Graph.Node(id)
				printDetail("%s %s (%s)", iconArrow, n.Name, n.PRTags)
			}
			printNewline()
			for _, a := range result.Assignments {
				printKeyValue(a.Target, fmt.Sprintf("%s (%s)", a.Variant, a.PRTags))
			}
			for _, name := range result.NotUpdated {
				printDetail("%s not updated, no variant matched", name)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write result JSON (stdout if empty)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the result as JSON")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "browse the result interactively")

	return cmd
}
