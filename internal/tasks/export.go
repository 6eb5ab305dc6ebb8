package tasks

import (
	"context"

	"github.com/desertthunder/moviemate/internal/formatter"
	"github.com/desertthunder/moviemate/internal/models"
)

// ExportOpts configures a collection export.
type ExportOpts struct {
	Format formatter.Format
	Path   string             // defaults to moviemate_collection.{ext}
	Filter models.ListOptions // page fields are ignored
}

// Export lists the whole collection matching the filter and writes it to a file.
// It returns the written path.
func (e *Engine) Export(ctx context.Context, opts ExportOpts, progress chan<- ProgressUpdate) (string, error) {
	if err := e.requireSession(); err != nil {
		return "", err
	}

	filter := opts.Filter
	filter.Page, filter.PageSize = 0, 0

	items, err := e.AllCollection(ctx, filter, progress)
	if err != nil {
		return "", err
	}

	path, err := formatter.WriteExport(opts.Format, items, e.validator.Bounds().Max, opts.Path)
	if err != nil {
		return "", err
	}

	e.sendProgress(progress, exportWrittenUpdate(path, len(items)))
	e.logger.Info("exported collection", "path", path, "titles", len(items))
	return path, nil
}
