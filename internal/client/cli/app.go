package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/dealroom/internal/client/config"
	"github.com/dmitrijs2005/dealroom/internal/client/models"
	"github.com/dmitrijs2005/dealroom/internal/client/services"
	"github.com/dmitrijs2005/dealroom/internal/logging"
	"golang.org/x/term"
)

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

// newManager is a test seam for services.NewDocumentManager.
var newManager = services.NewDocumentManager

type App struct {
	config *config.Config
	deps   services.Deps
	log    logging.Logger

	out         io.Writer
	reader      *bufio.Reader
	interactive bool

	// outMu serializes writes from queue progress callbacks.
	outMu       sync.Mutex
	manager     *services.DocumentManager
	unsubscribe func()
}

func NewApp(c *config.Config, deps services.Deps, log logging.Logger) *App {
	return &App{
		config:      c,
		deps:        deps,
		log:         log,
		out:         os.Stdout,
		reader:      bufio.NewReader(os.Stdin),
		interactive: isTerminal(int(os.Stdout.Fd())),
	}
}

// Mount opens a view for dealID and, once it is loaded, tears down the
// current one. If the new view fails to open the current one stays mounted.
// An empty dealID mounts the global view.
func (a *App) Mount(ctx context.Context, dealID string) error {
	m := newManager(a.deps, services.Options{
		DealID:            dealID,
		UploadedBy:        a.config.UploadedBy,
		Surface:           models.Surface(a.config.Surface),
		UploadConcurrency: a.config.UploadConcurrency,
		RefetchDelay:      a.config.RefetchDelay,
		DownloadDir:       a.config.DownloadDir,
		OnQueueChange:     a.progress,
	})
	if err := m.Open(ctx); err != nil {
		m.Close()
		return err
	}

	a.Close()
	a.manager = m

	changes, unsubscribe := m.Catalog.Subscribe()
	a.unsubscribe = unsubscribe
	go a.watch(m, changes)
	return nil
}

// watch announces catalog changes on a terminal until unsubscribed.
func (a *App) watch(m *services.DocumentManager, changes <-chan struct{}) {
	for range changes {
		if a.interactive {
			a.printf("%s(%d documents)\n", a.lineReset(), len(m.Catalog.Snapshot()))
		}
	}
}

// Run mounts the configured deal and blocks in the REPL until the user
// exits or stdin is closed.
func (a *App) Run(ctx context.Context) error {
	if a.config.MetricsAddr != "" {
		go func() {
			if err := ServeMetrics(ctx, a.config.MetricsAddr); err != nil {
				a.log.Error(ctx, "metrics server failed", "error", err)
			}
		}()
	}

	if err := a.Mount(ctx, a.config.DealID); err != nil {
		return err
	}
	defer a.Close()

	a.printf("Deal documents CLI (type 'help' for commands)\n")
	runREPL(ctx, a, a.status, a.reader)
	return nil
}

func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
	if a.manager != nil {
		a.manager.Close()
		a.manager = nil
	}
}

func (a *App) status() string {
	if a.manager == nil || a.manager.Catalog.DealID() == "" {
		return "all deals"
	}
	return a.manager.Catalog.DealID()
}
