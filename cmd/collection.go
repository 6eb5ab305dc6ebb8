package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/moviemate/internal/formatter"
	"github.com/desertthunder/moviemate/internal/models"
	"github.com/desertthunder/moviemate/internal/shared"
	"github.com/desertthunder/moviemate/internal/tasks"
	"github.com/urfave/cli/v3"
)

// CollectionList prints collection items matching the filter flags.
func (r *Runner) CollectionList(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.bootstrap(cmd)
	if err != nil {
		return err
	}
	if !engine.LoggedIn() {
		return r.writePlain("✗ Not signed in. Run 'mm auth login' to see your collection.\n")
	}

	opts := listOptions(cmd)
	var (
		items   []models.CollectionItem
		count   int
		hasNext bool
	)
	if cmd.Bool("all") {
		if items, err = engine.AllCollection(ctx, opts, nil); err != nil {
			return err
		}
		count = len(items)
	} else {
		page, err := engine.ListCollection(ctx, opts)
		if err != nil {
			return err
		}
		items, count, hasNext = page.Results, page.Count, page.HasNext()
	}

	if cmd.Bool("json") {
		return r.writeJSON(items, true)
	}

	scale := engine.Validator().Bounds().Max
	r.writePlainHeader(fmt.Sprintf("My Collection · %d titles", max(count, len(items))))
	for _, item := range items {
		r.writePlain("%5d  %-36s  %-9s  %-12s  %s\n",
			item.ID, truncate(item.Title, 36), item.Status, formatter.ProgressLabel(item), formatter.RatingStars(item.Rating, scale))
	}
	if hasNext {
		r.writePlainln("More results: --page %d (or --all)", max(opts.Page, 1)+1)
	}
	return nil
}

// CollectionShow prints one collection item.
func (r *Runner) CollectionShow(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd)
	if err != nil {
		return err
	}
	engine, err := r.bootstrap(cmd)
	if err != nil {
		return err
	}

	item, err := engine.GetCollection(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(item, true)
	}
	r.printItem(*item, engine.Validator().Bounds().Max)
	return nil
}

func (r *Runner) printItem(item models.CollectionItem, scale float64) {
	r.writePlainHeader(item.Title)
	r.writePlain("ID:       %d\n", item.ID)
	r.writePlain("Type:     %s\n", item.MediaType)
	r.writePlain("Status:   %s\n", item.Status)
	if item.Director != "" {
		r.writePlain("Director: %s\n", item.Director)
	}
	if item.Genre != "" {
		r.writePlain("Genre:    %s\n", item.Genre)
	}
	if item.Platform != "" {
		r.writePlain("Platform: %s\n", item.Platform)
	}
	if p := formatter.ProgressLabel(item); p != "" {
		r.writePlain("Progress: %s\n", p)
	}
	r.writePlain("Rating:   %s\n", formatter.RatingStars(item.Rating, scale))
	if item.Review != "" {
		r.writePlain("Review:   %s\n", item.Review)
	}
	if ref, ok := item.CatalogRef(); ok {
		r.writePlain("Catalog:  #%d\n", ref)
	}
	if item.UpdatedAt != "" {
		r.writePlain("Updated:  %s\n", item.UpdatedAt)
	}
}

// applyFormFlags copies every explicitly set form flag onto form.
func applyFormFlags(cmd *cli.Command, form *models.CollectionForm) {
	if cmd.IsSet("title") {
		form.Title = cmd.String("title")
	}
	if cmd.IsSet("type") {
		form.MediaType = models.MediaType(strings.ToLower(cmd.String("type")))
	}
	if cmd.IsSet("director") {
		form.Director = cmd.String("director")
	}
	if cmd.IsSet("genre") {
		form.Genre = cmd.String("genre")
	}
	if cmd.IsSet("platform") {
		form.Platform = cmd.String("platform")
	}
	if cmd.IsSet("status") {
		form.Status = models.WatchStatus(strings.ToLower(cmd.String("status")))
	}
	if cmd.IsSet("total") {
		total := cmd.Int("total")
		form.TotalEpisodes = &total
	}
	if cmd.IsSet("watched") {
		form.EpisodesWatched = cmd.Int("watched")
	}
	if cmd.IsSet("rating") {
		rating := cmd.Float("rating")
		form.Rating = &rating
	}
	if cmd.IsSet("review") {
		form.Review = cmd.String("review")
	}
}

// CollectionCreate creates a custom collection item from the form flags.
func (r *Runner) CollectionCreate(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.bootstrap(cmd)
	if err != nil {
		return err
	}

	form := models.NewCollectionForm()
	applyFormFlags(cmd, &form)

	item, err := engine.CreateCustom(ctx, form)
	if err != nil {
		return err
	}

	return r.writePlain("✓ Created %s (#%d)\n", item.Title, item.ID)
}

// CollectionEdit applies the form flags to a collection item. When the item changed on the
// server since it was loaded, --on-conflict decides between overwriting and reloading.
func (r *Runner) CollectionEdit(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd)
	if err != nil {
		return err
	}
	engine, err := r.bootstrap(cmd)
	if err != nil {
		return err
	}

	editor, err := engine.OpenEditor(ctx, id)
	if err != nil {
		return err
	}
	applyFormFlags(cmd, &editor.Form)

	outcome, err := editor.Save(ctx)
	if err != nil {
		return err
	}

	if outcome == tasks.ConflictDetected {
		resolution, err := r.resolveConflict(cmd, editor)
		if err != nil {
			return err
		}
		if outcome, err = editor.Resolve(ctx, resolution); err != nil {
			return err
		}
	}

	scale := engine.Validator().Bounds().Max
	switch outcome {
	case tasks.Reloaded:
		r.writePlain("Kept the newer version; nothing was written\n")
	default:
		r.writePlain("✓ Saved\n")
	}
	r.printItem(editor.Snapshot(), scale)
	return nil
}

func (r *Runner) resolveConflict(cmd *cli.Command, editor *tasks.Editor) (tasks.Resolution, error) {
	latest := editor.Latest()
	mode := strings.ToLower(cmd.String("on-conflict"))

	if mode == "ask" {
		r.writePlainln("This item was changed since you loaded it.")
		if latest != nil {
			r.writePlain("Loaded:  %s\nCurrent: %s\n", editor.Snapshot().UpdatedAt, latest.UpdatedAt)
		}
		answer, err := r.prompt("[o]verwrite with your changes, [r]eload the newer version, anything else to abort: ")
		if err != nil {
			return 0, err
		}
		mode = strings.ToLower(answer)
	}

	switch mode {
	case "o", "overwrite":
		return tasks.Overwrite, nil
	case "r", "reload":
		return tasks.Reload, nil
	}
	return 0, fmt.Errorf("%w: edit aborted", shared.ErrConflict)
}

// CollectionProgress updates episode progress on a TV show.
func (r *Runner) CollectionProgress(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd)
	if err != nil {
		return err
	}
	engine, err := r.bootstrap(cmd)
	if err != nil {
		return err
	}

	item, err := engine.GetCollection(ctx, id)
	if err != nil {
		return err
	}

	var updated *models.CollectionItem
	switch {
	case cmd.Bool("complete"):
		updated, err = engine.MarkCompleted(ctx, *item)
	case cmd.Bool("inc"):
		updated, err = engine.Increment(ctx, *item)
	case cmd.Bool("dec"):
		updated, err = engine.Decrement(ctx, *item)
	case cmd.Int("set") >= 0:
		updated, err = engine.SetProgress(ctx, *item, cmd.Int("set"))
	default:
		return fmt.Errorf("%w: one of --inc, --dec, --set or --complete", shared.ErrMissingArgument)
	}

	if err != nil {
		if updated != nil {
			r.writePlain("Current: %s (%s)\n", formatter.ProgressLabel(*updated), updated.Status)
		}
		return err
	}

	return r.writePlain("✓ %s: %s (%s)\n", updated.Title, formatter.ProgressLabel(*updated), updated.Status)
}

// CollectionReview rates and reviews a collection item.
func (r *Runner) CollectionReview(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd)
	if err != nil {
		return err
	}
	engine, err := r.bootstrap(cmd)
	if err != nil {
		return err
	}

	in := tasks.ReviewInput{TenPoint: cmd.Bool("ten-point"), Text: cmd.String("text")}
	if cmd.IsSet("score") {
		score := cmd.Float("score")
		in.Score = &score
	}

	updated, err := engine.Review(ctx, id, in)
	if err != nil {
		return err
	}

	return r.writePlain("✓ %s: %s\n", updated.Title, formatter.RatingStars(updated.Rating, engine.Validator().Bounds().Max))
}

// CollectionDelete removes a collection item.
func (r *Runner) CollectionDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd)
	if err != nil {
		return err
	}
	engine, err := r.bootstrap(cmd)
	if err != nil {
		return err
	}

	if err := engine.Delete(ctx, id); err != nil {
		return err
	}

	return r.writePlain("✓ Deleted #%d\n", id)
}

// CollectionExport writes the collection to a file.
func (r *Runner) CollectionExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	engine, err := r.bootstrap(cmd)
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 10)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase)
		}
	}()

	path, err := engine.Export(ctx, tasks.ExportOpts{Format: format, Path: cmd.String("output"), Filter: listOptions(cmd)}, progress)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	return r.writePlain("✓ Exported to %s\n", path)
}

// CollectionFacets lists the distinct genres and platforms in the collection.
func (r *Runner) CollectionFacets(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.bootstrap(cmd)
	if err != nil {
		return err
	}

	facets := engine.Facets(ctx)
	r.writePlain("Genres:    %s\n", strings.Join(facets.Genres, ", "))
	r.writePlain("Platforms: %s\n", strings.Join(facets.Platforms, ", "))
	return nil
}
