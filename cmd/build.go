package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/autoreveal/autoreveal/internal/assemble"
	"github.com/autoreveal/autoreveal/internal/build"
	"github.com/autoreveal/autoreveal/internal/config"
	"github.com/autoreveal/autoreveal/internal/logging"
	"github.com/autoreveal/autoreveal/internal/transclude"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the presentation once",
	Long: `Build the presentation: discover slide folders under the slides
directory, resolve data-load and data-load-code directives, merge the result
into the template, and write the output document.`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().String("slides-dir", "slides", "Directory containing slide folders")
	buildCmd.Flags().String("entry", "index.html", "Per-folder entry document name")
	buildCmd.Flags().String("template", "base.html", "Template document")
	buildCmd.Flags().StringP("output", "o", "index.html", "Output document")

	viper.BindPFlag("slides.dir", buildCmd.Flags().Lookup("slides-dir"))
	viper.BindPFlag("slides.entry", buildCmd.Flags().Lookup("entry"))
	viper.BindPFlag("template.path", buildCmd.Flags().Lookup("template"))
	viper.BindPFlag("output.path", buildCmd.Flags().Lookup("output"))
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	orchestrator, err := newOrchestrator(cfg, newLogger())
	if err != nil {
		return err
	}
	return orchestrator.Build(cmd.Context())
}

// newOrchestrator wires the language table, transclusion engine, assembler,
// and orchestrator from the configuration. The language table is extended
// from the configured file, then closed for the build.
func newOrchestrator(cfg *config.Config, logger logging.Logger) (*build.Orchestrator, error) {
	langs := transclude.DefaultLanguageTable()
	if cfg.Languages.File != "" {
		overrides, err := transclude.LoadLanguageFile(cfg.Languages.File)
		if err != nil {
			return nil, err
		}
		langs.Merge(overrides)
	}

	engine := transclude.NewEngine(".", langs, logger.WithComponent("transclude"))
	assembler := assemble.New(cfg.Slides.Dir, cfg.Slides.Entry, engine, logger.WithComponent("assemble"))

	return build.NewOrchestrator(
		cfg.Template.Path,
		cfg.Output.Path,
		assembler,
		cfg.Development.LiveReload,
		logger.WithComponent("build"),
	), nil
}
