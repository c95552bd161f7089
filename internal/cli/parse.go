package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/plmtools/lookconf/pkg/plmxml"
)

// parseOpts holds the command-line flags for the parse command.
type parseOpts struct {
	output string // snapshot output path (stdout if empty with --snapshot)
	looks  bool   // list the look library targets and variants
}

// newParseCmd creates the parse command. It parses a PLM-XML document,
// reports its contents and diagnostics, and optionally writes the parsed
// snapshot as JSON.
func newParseCmd(root *rootOpts) *cobra.Command {
	opts := parseOpts{}

	cmd := &cobra.Command{
		Use:   "parse <file.plmxml>",
		Short: "Parse a PLM-XML document and report its contents",
		Long: `Parse a PLM-XML product structure, report node and material target
counts plus any structural warnings, and optionally export the parsed
document as a JSON snapshot.

Examples:
  lookconf parse interior.plmxml
  lookconf parse interior.plmxml --looks
  lookconf parse interior.plmxml -o interior.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			logger := loggerFromContext(ctx)

			prog := newProgress(logger)
			doc, cached, err := loadDocument(ctx, root, args[0])
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Parsed %d nodes, %d material targets",
				doc.Graph.Len(), doc.Looks.Len()))

			printSuccess("%s", args[0])
			printDocStats(doc.Graph.Len(), doc.Looks.Len(), cached)
			for _, w := range doc.Warnings {
				printWarning("%s", w)
			}
			reportConflicts(doc)

			if opts.looks {
				printNewline()
				for _, t := range doc.Looks.Targets() {
					printInfo("%s", t.Name)
					for _, v := range t.Variants {
						printDetail("%s  [%s]  %s", v.Name, v.PRTags, v.Description)
					}
				}
			}

			if c.Flags().Changed("output") {
				return writeSnapshot(doc, opts.output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write document snapshot JSON (stdout if empty)")
	cmd.Flags().BoolVar(&opts.looks, "looks", false, "list material targets and variants")

	return cmd
}

// writeSnapshot serializes the document snapshot to path (or stdout if
// empty).
func writeSnapshot(doc *plmxml.Document, path string) error {
	data, err := doc.Snapshot().Marshal()
	if err != nil {
		return err
	}
	return writeOutput(data, path)
}

// writeOutput writes data to path, or stdout when path is empty.
func writeOutput(data []byte, path string) error {
	if path == "" {
		_, err := os.Stdout.Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	printFile(path)
	return nil
}
