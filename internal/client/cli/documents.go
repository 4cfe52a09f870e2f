package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/dmitrijs2005/dealroom/internal/client/models"
	"github.com/dmitrijs2005/dealroom/internal/client/services"
	"github.com/dmitrijs2005/dealroom/internal/common"
)

func (a *App) printf(format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) table(fn func(w io.Writer)) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fn(tw)
	tw.Flush()
}

func (a *App) Categories(ctx context.Context, args []string) error {
	a.table(func(w io.Writer) {
		fmt.Fprintln(w, "KEY\tLABEL\tREQUIRED\tMAX\tACCEPTS")
		for _, c := range a.manager.Registry.Categories() {
			accepts := strings.Join(c.Extensions, " ")
			if accepts == "" {
				accepts = "any"
			}
			fmt.Fprintf(w, "%s\t%s\t%t\t%d\t%s\n", c.Key, c.Label, c.Required, c.MaxFiles, accepts)
		}
	})
	return nil
}

func (a *App) Cards(ctx context.Context, args []string) error {
	for _, card := range a.manager.Cards.Cards() {
		switch {
		case card.AllDeals:
			a.printf("%s %d\n", card.Category.Label, card.Count)
		case card.OverLimit:
			a.printf("%s %d/%d  (over limit)\n", card.Category.Label, card.Count, card.Category.MaxFiles)
		default:
			a.printf("%s %d/%d\n", card.Category.Label, card.Count, card.Category.MaxFiles)
		}
		for _, d := range card.Documents {
			a.printf("  %s  %s  %s\n", shortID(d.ID), d.Name, humanize.Bytes(uint64(d.Size)))
		}
	}
	return nil
}

func (a *App) Status(ctx context.Context, args []string) error {
	s := a.manager.Status.Summary()
	if s.AllDeals {
		a.printf("%d documents across all deals\n", s.TotalDocuments)
		a.table(func(w io.Writer) {
			for _, it := range s.Items {
				fmt.Fprintf(w, "%s\t%d\n", it.Category.Label, it.Count)
			}
		})
		return nil
	}
	a.printf("Required: %d/%d (%d%%), %d documents\n", s.RequiredComplete, s.RequiredTotal, s.Percent, s.TotalDocuments)
	if len(s.MissingRequired) > 0 {
		labels := make([]string, 0, len(s.MissingRequired))
		for _, c := range s.MissingRequired {
			labels = append(labels, c.Label)
		}
		a.printf("Missing: %s\n", strings.Join(labels, ", "))
	}
	a.table(func(w io.Writer) {
		for _, it := range s.Items {
			fmt.Fprintf(w, "%s\t%d\t%s\n", it.Category.Label, it.Count, it.State)
		}
	})
	return nil
}

func (a *App) List(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var q services.ListQuery
	var sortBy string
	fs.StringVar(&q.Search, "s", "", "search text")
	fs.StringVar(&q.Category, "c", "", "category")
	fs.StringVar(&sortBy, "sort", "", "sort field")
	fs.BoolVar(&q.Asc, "asc", false, "ascending")
	if err := fs.Parse(args); err != nil {
		return usage("list [-s text] [-c category] [-sort created|name|size|category] [-asc]")
	}
	if fs.NArg() > 0 && q.Search == "" {
		q.Search = strings.Join(fs.Args(), " ")
	}
	if sortBy != "" {
		f, ok := services.ParseSortField(sortBy)
		if !ok {
			return usage("sort by created, name, size or category")
		}
		q.SortBy = f
	}

	rows := a.manager.List.Rows(q)
	if len(rows) == 0 {
		a.printf("No documents\n")
		return nil
	}
	a.table(func(w io.Writer) {
		fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tSIZE\tUPLOADED")
		for _, d := range rows {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", shortID(d.ID), d.Name,
				a.manager.Registry.Label(d.Category), humanize.Bytes(uint64(d.Size)), humanize.Time(d.CreatedAt))
		}
	})
	return nil
}

func (a *App) Download(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("download <id>")
	}
	doc, err := a.lookup(ctx, args[0])
	if err != nil {
		return err
	}
	path, err := a.manager.Broker.Download(ctx, doc)
	if err != nil {
		return err
	}
	a.printf("Saved %s to %s\n", doc.Name, path)
	return nil
}

func (a *App) Preview(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("preview <id>")
	}
	doc, err := a.lookup(ctx, args[0])
	if err != nil {
		return err
	}
	url, err := a.manager.Broker.PreviewURL(ctx, doc)
	if err != nil {
		return err
	}
	a.printf("%s\n", url)
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	var id string
	confirmed := false
	for _, arg := range args {
		switch arg {
		case "-y", "--yes":
			confirmed = true
		default:
			id = arg
		}
	}
	if id == "" {
		return usage("delete <id> [-y]")
	}
	doc, err := a.lookup(ctx, id)
	if err != nil {
		return err
	}
	if !confirmed {
		answer, err := GetSimpleText(a.reader, fmt.Sprintf("Delete %s? [y/N]", doc.Name), a.out)
		if err != nil {
			return err
		}
		if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
			a.printf("Kept %s\n", doc.Name)
			return nil
		}
	}
	if _, err := a.manager.Delete(ctx, doc.ID); err != nil {
		return err
	}
	a.printf("Deleted %s\n", doc.Name)
	return nil
}

func (a *App) Refresh(ctx context.Context, args []string) error {
	if err := a.manager.Catalog.Refetch(ctx); err != nil {
		return common.NewError(common.KindUnknown, "refresh", "could not load documents", err)
	}
	a.printf("%d documents\n", len(a.manager.Catalog.Snapshot()))
	return nil
}

func (a *App) Audit(ctx context.Context, args []string) error {
	rep, err := a.manager.Auditor.Audit(ctx, a.manager.Catalog.DealID())
	if err != nil {
		return common.NewError(common.KindUnknown, "audit", "audit failed", err)
	}
	a.printf("%d orphan objects, %d documents without a file\n", len(rep.OrphanObjects), len(rep.DanglingDocuments))
	for _, k := range rep.OrphanObjects {
		a.printf("  orphan    %s\n", k)
	}
	for _, d := range rep.DanglingDocuments {
		a.printf("  dangling  %s  %s\n", shortID(d.ID), d.Name)
	}
	return nil
}

func (a *App) Sweep(ctx context.Context, args []string) error {
	rep, err := a.manager.Auditor.Sweep(ctx)
	if err != nil {
		return common.NewError(common.KindUnknown, "sweep", "sweep failed", err)
	}
	a.printf("removed %d, still referenced %d, failed %d\n", len(rep.Removed), len(rep.Referenced), len(rep.Failed))
	return nil
}

func (a *App) Deal(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("deal <id>|-")
	}
	dealID := args[0]
	if dealID == "-" {
		dealID = ""
	}
	if err := a.Mount(ctx, dealID); err != nil {
		return common.NewError(common.KindUnknown, "deal", "could not open deal", err)
	}
	a.printf("%d documents\n", len(a.manager.Catalog.Snapshot()))
	return nil
}

// lookup resolves a unique id prefix from the catalog, or a full id the
// catalog has not seen yet.
func (a *App) lookup(ctx context.Context, id string) (models.Document, error) {
	if doc, ok := a.manager.Catalog.Get(id); ok {
		return doc, nil
	}
	var found []models.Document
	for _, d := range a.manager.Catalog.Snapshot() {
		if strings.HasPrefix(d.ID, id) {
			found = append(found, d)
		}
	}
	switch len(found) {
	case 0:
		return a.manager.Document(ctx, id)
	case 1:
		return found[0], nil
	default:
		return models.Document{}, common.NewError(common.KindValidation, "lookup", "id "+id+" is ambiguous", nil)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
