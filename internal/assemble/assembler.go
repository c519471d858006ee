// Package assemble discovers ordered slide folders and produces the combined
// slide markup for the presentation.
package assemble

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/autoreveal/autoreveal/internal/errors"
	"github.com/autoreveal/autoreveal/internal/logging"
	"github.com/autoreveal/autoreveal/internal/transclude"
)

// Assembler walks the immediate subdirectories of the slides root, resolves
// each folder's entry document, and concatenates the results in folder-name
// order. That order is the presentation order.
type Assembler struct {
	slidesDir string
	entryName string
	engine    *transclude.Engine
	logger    logging.Logger
}

// New creates an assembler for the given slides root. entryName is the
// per-folder entry document, conventionally index.html.
func New(slidesDir, entryName string, engine *transclude.Engine, logger logging.Logger) *Assembler {
	return &Assembler{
		slidesDir: slidesDir,
		entryName: entryName,
		engine:    engine,
		logger:    logger,
	}
}

// Assemble returns the combined slide markup and the number of folders that
// were actually processed. A folder without an entry document is skipped
// with a warning; the build continues.
func (a *Assembler) Assemble(ctx context.Context) (string, int, error) {
	folders, err := a.slideFolders()
	if err != nil {
		return "", 0, err
	}

	slidesName := filepath.Base(a.slidesDir)
	var combined strings.Builder
	processed := 0

	for _, folder := range folders {
		entryPath := filepath.Join(a.slidesDir, folder, a.entryName)
		data, err := os.ReadFile(entryPath)
		if os.IsNotExist(err) {
			a.logger.Warn(ctx, nil, "entry document not found, skipping folder",
				"folder", folder, "entry", a.entryName)
			continue
		}
		if err != nil {
			return "", processed, errors.NewIOError("assemble", entryPath, "reading entry document", err)
		}

		// Rewrite ./-references before resolution so nested fragments
		// compute their base paths from the build root.
		content := transclude.RewriteRelative(string(data), slidesName+"/"+folder)

		container, err := transclude.ParseFragment(content)
		if err != nil {
			return "", processed, errors.NewBuildError("assemble", "parsing "+entryPath, err)
		}
		if _, err := a.engine.Resolve(ctx, container); err != nil {
			return "", processed, err
		}
		rendered, err := transclude.RenderFragment(container)
		if err != nil {
			return "", processed, errors.NewBuildError("assemble", "rendering "+entryPath, err)
		}

		combined.WriteString(rendered)
		processed++
	}

	return combined.String(), processed, nil
}

// slideFolders lists the immediate subdirectories of the slides root in
// ascending name order.
func (a *Assembler) slideFolders() ([]string, error) {
	entries, err := os.ReadDir(a.slidesDir)
	if err != nil {
		return nil, errors.NewIOError("assemble", a.slidesDir, "listing slides directory", err)
	}

	var folders []string
	for _, entry := range entries {
		if entry.IsDir() {
			folders = append(folders, entry.Name())
		}
	}
	sort.Strings(folders)
	return folders, nil
}
