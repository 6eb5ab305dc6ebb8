package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/moviemate/internal/membership"
	"github.com/desertthunder/moviemate/internal/shared"
	"github.com/desertthunder/moviemate/internal/tasks"
	"github.com/urfave/cli/v3"
)

// CatalogList prints one catalog page. When signed in, each row shows whether the title is
// already in the collection.
func (r *Runner) CatalogList(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.bootstrap(cmd)
	if err != nil {
		return err
	}

	opts := listOptions(cmd)
	page, err := engine.ListCatalog(ctx, opts)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(page, true)
	}

	r.syncMembership(ctx, engine)
	registry := engine.Registry()

	r.writePlainHeader(fmt.Sprintf("Catalog · page %d · %d titles", max(opts.Page, 1), page.Count))
	for _, item := range page.Results {
		r.writePlain("%5d  %-36s  %-5s  %-14s  %s\n", item.ID, truncate(item.Title, 36), item.MediaType, item.Platform, catalogBadge(registry.Lookup(item)))
	}
	if page.HasNext() {
		r.writePlainln("More results: --page %d", max(opts.Page, 1)+1)
	}
	return nil
}

// CatalogShow prints one catalog entry.
func (r *Runner) CatalogShow(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd)
	if err != nil {
		return err
	}
	engine, err := r.bootstrap(cmd)
	if err != nil {
		return err
	}
	if !engine.LoggedIn() {
		return shared.ErrAuthRequired
	}

	item, err := engine.GetCatalog(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(item, true)
	}

	r.syncMembership(ctx, engine)

	r.writePlainHeader(item.String())
	r.writePlain("ID:       %d\n", item.ID)
	r.writePlain("Type:     %s\n", item.MediaType)
	r.writePlain("Genre:    %s\n", item.Genre)
	if item.TotalEpisodes != nil {
		r.writePlain("Episodes: %d\n", *item.TotalEpisodes)
	}
	r.writePlain("Status:   %s\n", catalogBadge(engine.Registry().Lookup(*item)))
	return nil
}

// CatalogAdd adds a catalog entry to the collection. Adding a title that is already owned
// reports the existing record and issues no create request.
func (r *Runner) CatalogAdd(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd)
	if err != nil {
		return err
	}
	engine, err := r.bootstrap(cmd)
	if err != nil {
		return err
	}
	if !engine.LoggedIn() {
		return shared.ErrAuthRequired
	}

	item, err := engine.GetCatalog(ctx, id)
	if err != nil {
		return err
	}

	// A fresh process starts with an empty index.
	if err := engine.RefreshMembership(ctx, nil); err != nil {
		return err
	}

	result, err := engine.Add(ctx, *item)
	if err != nil {
		return err
	}

	switch result.Outcome {
	case tasks.AddAlreadyOwned:
		return r.writePlain("%s is already in your collection (#%d)\n", item.Title, result.ID)
	case tasks.AddInFlight:
		return r.writePlain("%s is already being added\n", item.Title)
	default:
		return r.writePlain("✓ Added %s to your collection (#%d)\n", item.Title, result.ID)
	}
}

// syncMembership loads the index for badges. Failures only cost the badges.
func (r *Runner) syncMembership(ctx context.Context, engine *tasks.Engine) {
	if !engine.LoggedIn() {
		return
	}
	if err := engine.RefreshMembership(ctx, nil); err != nil {
		r.logger.Warn("could not load collection membership", "error", err)
	}
}

func catalogBadge(s membership.State) string {
	switch s.Status {
	case membership.Confirmed:
		return fmt.Sprintf("✓ in collection (#%d)", s.ID)
	case membership.Pending:
		return "… adding"
	default:
		return ""
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
