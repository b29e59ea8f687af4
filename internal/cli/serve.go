package cli

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/htmlbench/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the generated HTML files over HTTP",
		Long: `Start the HTML file server. Files are read from the html directory on
every request, so they can be regenerated while the server runs.

  htmlbench serve --listen 127.0.0.1:8080 --dir ./html_files`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("listen") {
				a.cfg.Server.Listen, _ = cmd.Flags().GetString("listen")
			}
			if cmd.Flags().Changed("dir") {
				a.cfg.Server.HTMLDir, _ = cmd.Flags().GetString("dir")
			}
			if err := a.validate(); err != nil {
				return err
			}

			srv, err := server.New(a.cfg.Server, afero.NewOsFs(), a.log)
			if err != nil {
				return err
			}
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().String("listen", "", "address to listen on (default 0.0.0.0:5000)")
	cmd.Flags().String("dir", "", "directory holding the HTML files (default html_files)")

	return cmd
}
