// Package build merges assembled slide markup into the presentation template
// and writes the output artifact.
package build

import (
	"context"
	"os"
	"regexp"
	"strings"

	"github.com/autoreveal/autoreveal/internal/assemble"
	"github.com/autoreveal/autoreveal/internal/errors"
	"github.com/autoreveal/autoreveal/internal/logging"
)

// slidesContainer matches the empty slides container in the template. If the
// template has no such marker the substitution is a no-op and the output
// equals the template; that is deliberate, not an error.
var slidesContainer = regexp.MustCompile(`(?s)(<div class="slides">)\s*</div>`)

// liveReloadScript polls /reload-check once a second and refreshes the page
// when a rebuild has been signaled. It is a fixed constant; keep the endpoint
// shape in sync with the server's reload handler.
const liveReloadScript = `
    <script>
    (function() {
        let lastReloadTime = Date.now();

        function checkForReload() {
            fetch('/reload-check?' + lastReloadTime)
                .then(response => response.json())
                .then(data => {
                    if (data.reload) {
                        window.location.reload();
                    }
                })
                .catch(() => {
                    // Server might be restarting, silently ignore and retry
                })
                .finally(() => {
                    setTimeout(checkForReload, 1000);
                });
        }

        setTimeout(checkForReload, 1000);
    })();
    </script>
    `

// Orchestrator runs one full build: assemble slides, merge them into the
// template, optionally inject the live reload script, write the artifact.
type Orchestrator struct {
	templatePath string
	outputPath   string
	assembler    *assemble.Assembler
	liveReload   bool
	logger       logging.Logger
}

// NewOrchestrator creates a build orchestrator. When liveReload is set the
// polling script is injected before the closing body tag of the output.
func NewOrchestrator(templatePath, outputPath string, assembler *assemble.Assembler, liveReload bool, logger logging.Logger) *Orchestrator {
	return &Orchestrator{
		templatePath: templatePath,
		outputPath:   outputPath,
		assembler:    assembler,
		liveReload:   liveReload,
		logger:       logger,
	}
}

// Build produces the output artifact from the current filesystem state,
// overwriting any previous artifact. Every rebuild reprocesses everything.
func (o *Orchestrator) Build(ctx context.Context) error {
	template, err := os.ReadFile(o.templatePath)
	if err != nil {
		return errors.NewIOError("build", o.templatePath, "reading template", err)
	}

	slides, processed, err := o.assembler.Assemble(ctx)
	if err != nil {
		return err
	}

	output := slidesContainer.ReplaceAllStringFunc(string(template), func(match string) string {
		sub := slidesContainer.FindStringSubmatch(match)
		return sub[1] + "\n" + slides + "\n</div>"
	})

	if o.liveReload {
		output = strings.ReplaceAll(output, "</body>", liveReloadScript+"</body>")
	}

	if err := os.WriteFile(o.outputPath, []byte(output), 0o644); err != nil {
		return errors.NewIOError("build", o.outputPath, "writing output", err)
	}

	o.logger.Info(ctx, "built presentation", "output", o.outputPath, "folders", processed)
	return nil
}
