package cli

import (
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/plmtools/lookconf/pkg/authoring/astest"
	"github.com/plmtools/lookconf/pkg/plmxml"
)

// mockOpts holds the command-line flags for the mock command.
type mockOpts struct {
	addr    string
	version string
}

// newMockCmd creates the mock command. It serves an in-memory authoring
// service for development, optionally seeded with the scene a document
// describes.
func newMockCmd() *cobra.Command {
	opts := mockOpts{}

	cmd := &cobra.Command{
		Use:   "mock [file.plmxml]",
		Short: "Run an in-memory authoring service for development",
		Long: `Serve a mock authoring service speaking the real wire protocol. With a
PLM-XML argument the mock scene is seeded from the document: every
configurable node (by LINC id) and every material target is present, so
apply and validate succeed against it.

Examples:
  lookconf mock
  lookconf mock interior.plmxml --addr :8080
  lookconf mock --service-version "3.1"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			logger := loggerFromContext(ctx)

			srv := astest.NewServer(opts.version)

			if len(args) == 1 {
				doc, err := plmxml.ParseFile(args[0], logger)
				if err != nil {
					return err
				}
				nodes := make([]astest.SceneNode, 0, doc.Graph.Len())
				for _, n := range doc.Graph.ConfigurableNodes() {
					nodes = append(nodes, astest.SceneNode{LincID: n.LincID, Name: n.Name, Type: string(n.Type)})
				}
				srv.SetNodes(nodes...)
				srv.SetTargets(doc.Looks.TargetNames()...)
				logger.Info("scene seeded", "nodes", len(nodes), "targets", doc.Looks.Len())
			}

			printInfo("mock authoring service on %s (version %q)", opts.addr, opts.version)
			printDetail("stop with ctrl+c")

			httpSrv := &http.Server{
				Addr:              opts.addr,
				Handler:           srv,
				ReadHeaderTimeout: 5 * time.Second,
			}
			go func() {
				<-ctx.Done()
				_ = httpSrv.Close()
			}()
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		},
	}

	// The version must lead with a digit or every client's version probe
	// rejects it.
	cmd.Flags().StringVar(&opts.addr, "addr", ":1234", "listen address")
	cmd.Flags().StringVar(&opts.version, "service-version", "2.0", "version string the mock reports")

	return cmd
}
