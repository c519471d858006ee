package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/autoreveal/autoreveal/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Scaffold a new presentation",
	Long: `Create a minimal presentation project: a reveal.js template, two
sample slide folders, and an .autoreveal.yml configuration file. The target
directory defaults to the current directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

var initForce bool

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing files")
}

const baseTemplate = `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Presentation</title>
    <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/reveal.js@5/dist/reveal.css">
    <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/reveal.js@5/dist/theme/black.css">
    <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/reveal.js@5/plugin/highlight/monokai.css">
  </head>
  <body>
    <div class="reveal">
      <div class="slides"></div>
    </div>
    <script src="https://cdn.jsdelivr.net/npm/reveal.js@5/dist/reveal.js"></script>
    <script src="https://cdn.jsdelivr.net/npm/reveal.js@5/plugin/highlight/highlight.js"></script>
    <script>
      Reveal.initialize({ hash: true, plugins: [RevealHighlight] });
    </script>
  </body>
</html>
`

const sampleCode = `def greet(name):
    return f"Hello, {name}!"


if __name__ == "__main__":
    print(greet("reveal.js"))
`

func runInit(cmd *cobra.Command, args []string) error {
	target := "."
	if len(args) > 0 {
		target = args[0]
	}

	folders := []string{"01-intro", "02-code"}
	files := map[string]string{
		"base.html": baseTemplate,
		filepath.Join("slides", folders[0], "index.html"): fmt.Sprintf(
			"<section>\n  <h1>%s</h1>\n  <p>Edit slides/%s/index.html to get started.</p>\n</section>\n",
			folderTitle(folders[0]), folders[0]),
		filepath.Join("slides", folders[1], "index.html"): fmt.Sprintf(
			"<section>\n  <h2>%s</h2>\n  <div data-load-code=\"./example.py\" data-line-numbers=\"\"></div>\n</section>\n",
			folderTitle(folders[1])),
		filepath.Join("slides", folders[1], "example.py"): sampleCode,
	}

	configData, err := scaffoldConfig()
	if err != nil {
		return err
	}
	files[".autoreveal.yml"] = string(configData)

	for name, content := range files {
		path := filepath.Join(target, name)
		if !initForce {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Println("created", path)
	}

	fmt.Println("\nNext steps:")
	fmt.Println("  autoreveal serve --watch --live-reload")
	return nil
}

// scaffoldConfig renders the default configuration as YAML.
func scaffoldConfig() ([]byte, error) {
	cfg := config.Config{}
	cfg.Slides.Dir = "slides"
	cfg.Slides.Entry = "index.html"
	cfg.Template.Path = "base.html"
	cfg.Output.Path = "index.html"
	cfg.Server.Port = 8085
	cfg.Server.Root = "."
	return yaml.Marshal(&cfg)
}

var folderOrderPrefix = regexp.MustCompile(`^\d+[-_ ]*`)

// folderTitle derives a human heading from a slide folder name:
// "01-intro" becomes "Intro".
func folderTitle(folder string) string {
	name := folderOrderPrefix.ReplaceAllString(folder, "")
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	name = strings.TrimSpace(name)
	if name == "" {
		name = folder
	}
	return cases.Title(language.English).String(name)
}
