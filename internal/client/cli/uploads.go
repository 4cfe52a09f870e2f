package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/dmitrijs2005/dealroom/internal/client/models"
	"github.com/dmitrijs2005/dealroom/internal/client/services"
	"github.com/dmitrijs2005/dealroom/internal/common"
)

// openLocalFile is a test seam for services.OpenLocalFile.
var openLocalFile = services.OpenLocalFile

func (a *App) Add(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usage("add <category> <path>...")
	}
	q, err := a.manager.Queue(args[0])
	if err != nil {
		return err
	}

	var errs []error
	files := make([]services.LocalFile, 0, len(args)-1)
	for _, p := range args[1:] {
		f, err := openLocalFile(p)
		if err != nil {
			errs = append(errs, common.NewError(common.KindValidation, "add files", fmt.Sprintf("cannot read %s", p), err))
			continue
		}
		files = append(files, f)
	}

	res, err := q.AddFiles(files)
	for _, e := range res.Accepted {
		a.printf("queued %s  %s  %s\n", shortID(e.ID), e.Name, humanize.Bytes(uint64(e.Size)))
	}
	if res.Dropped > 0 {
		a.printf("%d file(s) not queued\n", res.Dropped)
	}
	return errors.Join(append(errs, err)...)
}

func (a *App) Queue(ctx context.Context, args []string) error {
	queues, err := a.selectQueues(args)
	if err != nil {
		return err
	}
	a.table(func(w io.Writer) {
		fmt.Fprintln(w, "CATEGORY\tID\tNAME\tSTATUS\tPROGRESS\tERROR")
		for _, q := range queues {
			for _, e := range q.Entries() {
				msg := ""
				if e.Err != nil {
					msg = common.UserMessage(e.Err)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d%%\t%s\n", q.Category().Key, shortID(e.ID), e.Name, e.Status, e.Progress, msg)
			}
		}
	})
	return nil
}

func (a *App) Remove(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("remove <category> <entry-id>")
	}
	q, err := a.manager.Queue(args[0])
	if err != nil {
		return err
	}
	id := args[1]
	for _, e := range q.Entries() {
		if e.ID != id && shortID(e.ID) == id {
			id = e.ID
			break
		}
	}
	return q.RemoveFile(id)
}

func (a *App) Clear(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("clear <category>")
	}
	q, err := a.manager.Queue(args[0])
	if err != nil {
		return err
	}
	q.ClearFiles()
	return nil
}

// Upload runs the selected queues one after another. Each queue uploads
// its own entries concurrently.
func (a *App) Upload(ctx context.Context, args []string) error {
	queues, err := a.selectQueues(args)
	if err != nil {
		return err
	}
	var errs []error
	for _, q := range queues {
		errs = append(errs, q.Upload(ctx))
	}
	err = errors.Join(errs...)
	if err == nil {
		a.printf("Upload finished\n")
	}
	return err
}

func (a *App) Cancel(ctx context.Context, args []string) error {
	queues, err := a.selectQueues(args)
	if err != nil {
		return err
	}
	for _, q := range queues {
		q.Cancel()
	}
	return nil
}

// selectQueues returns the queue named in args, or every queue opened so
// far in category order.
func (a *App) selectQueues(args []string) ([]*services.UploadQueue, error) {
	if len(args) > 0 {
		q, err := a.manager.Queue(args[0])
		if err != nil {
			return nil, err
		}
		return []*services.UploadQueue{q}, nil
	}
	all := a.manager.Queues()
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*services.UploadQueue, 0, len(keys))
	for _, k := range keys {
		out = append(out, all[k])
	}
	return out, nil
}

// progress renders queue entry changes. On a terminal the running entry
// is redrawn in place; otherwise only final states are printed.
func (a *App) progress(category string, e models.QueueEntry) {
	switch e.Status {
	case models.UploadUploading:
		if a.interactive {
			a.printf("\r%s/%s %3d%%", category, e.Name, e.Progress)
		}
	case models.UploadSuccess:
		a.printf("%suploaded %s/%s\n", a.lineReset(), category, e.Name)
	case models.UploadError:
		a.printf("%sfailed %s/%s: %s\n", a.lineReset(), category, e.Name, common.UserMessage(e.Err))
	}
}

func (a *App) lineReset() string {
	if a.interactive {
		return "\r\033[K"
	}
	return ""
}
