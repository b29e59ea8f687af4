package cli

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/htmlbench/internal/catalog"
	"github.com/wesleyorama2/htmlbench/internal/output"
)

func newGenerateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the five fixed-size HTML files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("dir") {
				a.cfg.Server.HTMLDir, _ = cmd.Flags().GetString("dir")
			}
			if err := a.validate(); err != nil {
				return err
			}
			return generate(a.console, afero.NewOsFs(), a.cfg.Server.HTMLDir)
		},
	}

	cmd.Flags().String("dir", "", "output directory (default html_files)")

	return cmd
}

func generate(console *output.Console, fs afero.Fs, dir string) error {
	written, err := catalog.Generate(fs, dir)
	if err != nil {
		console.Error("Generation failed: %v", err)
		return err
	}

	sizes := catalog.All()
	for i, path := range written {
		console.Success("%s %s", path, output.FormatBytes(uint64(sizes[i].Bytes)))
	}
	console.Info("Generated %d files in %s", len(written), dir)
	return nil
}
