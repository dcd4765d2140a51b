// Package application assembles the remote clients, folder link store,
// service and scanner from configuration. Both binaries start here.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/oauth2"

	"github.com/JonMunkholm/sheetdocs/internal/config"
	"github.com/JonMunkholm/sheetdocs/internal/core"
	"github.com/JonMunkholm/sheetdocs/internal/core/tables"
	"github.com/JonMunkholm/sheetdocs/internal/linkstore"
	"github.com/JonMunkholm/sheetdocs/internal/remote"
	"github.com/JonMunkholm/sheetdocs/internal/scan"
)

// memoryAuditSize bounds the audit trail kept without a database.
const memoryAuditSize = 1000

// Grid is the spreadsheet surface used by the binaries: the table client
// plus the tab administration calls.
type Grid interface {
	core.TableClient
	core.Provisioner
	ClearData(ctx context.Context, sheet string) error
	RenameSheet(ctx context.Context, oldName, newName string) error
}

var (
	_ Grid = (*remote.Sheets)(nil)
	_ Grid = (*remote.MemoryGrid)(nil)
)

// App holds every long-lived dependency of a running process.
type App struct {
	Service *core.Service
	Grid    Grid
	Folders core.FolderClient
	Links   core.FolderLinks
	Audit   core.AuditSink
	Auth    *remote.TokenAuth
	Scanner scan.Scanner
	Limiter *scan.Limiter

	closers []func()
}

// Open builds an App from cfg. With the memory backend every table is
// provisioned in an empty in-process spreadsheet.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{}

	var err error
	switch cfg.Remote.Backend {
	case config.BackendMemory:
		err = app.openMemory(ctx)
	case config.BackendGoogle:
		err = app.openGoogle(ctx, cfg.Remote)
	default:
		err = fmt.Errorf("unknown remote backend %q", cfg.Remote.Backend)
	}
	if err != nil {
		return nil, err
	}

	links, err := app.openLinks(ctx, cfg.Links)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Links = links

	// The links database also holds the audit trail.
	if sink, ok := links.(core.AuditSink); ok {
		app.Audit = sink
	} else {
		app.Audit = core.NewMemoryAudit(memoryAuditSize)
	}

	opts := core.Options{
		Links:           links,
		Audit:           app.Audit,
		RootFolderID:    cfg.Remote.RootFolderID,
		Cascades:        tables.Cascades,
		MaxCascadeDepth: cfg.Remote.MaxCascadeDepth,
	}
	// A nil *TokenAuth must not become a non-nil interface.
	if app.Auth != nil {
		opts.Auth = app.Auth
	}
	app.Service = core.NewService(app.Grid, app.Folders, opts)

	app.Limiter = scan.NewLimiter(cfg.Scan.MaxConcurrent, cfg.Scan.MaxWaitTime)
	app.Scanner = newScanner(cfg.Scan, app.Limiter)

	return app, nil
}

// Close releases every resource opened by Open, in reverse order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) openMemory(ctx context.Context) error {
	grid := remote.NewMemoryGrid()
	if _, err := core.Provision(ctx, grid, core.All()); err != nil {
		return err
	}
	a.Grid = grid
	a.Folders = remote.NewMemoryFolders()
	slog.Info("using in-memory remote store", "tables", core.TableCount())
	return nil
}

func (a *App) openGoogle(ctx context.Context, cfg config.RemoteConfig) error {
	auth, err := newAuth(ctx, cfg)
	if err != nil {
		return err
	}

	ts, err := auth.AuthorizedClient()
	if err != nil {
		// Clients fail per request until a token is bound with Rebind.
		slog.Warn("remote store not authenticated, waiting for rebind")
		ts = unauthenticated{}
	}

	sheets, err := remote.NewSheets(ctx, ts, cfg.SpreadsheetID, cfg.MaxRows)
	if err != nil {
		return err
	}
	drive, err := remote.NewDrive(ctx, ts)
	if err != nil {
		return err
	}

	a.Auth, a.Grid, a.Folders = auth, sheets, drive
	slog.Info("using google remote store", "spreadsheet", cfg.SpreadsheetID, "root_folder", cfg.RootFolderID)
	return nil
}

func (a *App) openLinks(ctx context.Context, cfg config.LinksConfig) (core.FolderLinks, error) {
	if cfg.DatabaseURL == "" {
		slog.Info("folder links kept in memory")
		return core.NewMemoryLinks(), nil
	}

	store, err := linkstore.Open(ctx, linkstore.PoolConfig{
		URL:             cfg.DatabaseURL,
		MaxConns:        cfg.MaxConns,
		MinConns:        cfg.MinConns,
		MaxConnLifetime: cfg.MaxConnLifetime,
		MaxConnIdleTime: cfg.MaxConnIdleTime,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store.Close)
	slog.Info("folder links database connected")
	return store, nil
}

// newAuth prefers a credentials file over a static access token. With
// neither, the returned TokenAuth is unauthenticated.
func newAuth(ctx context.Context, cfg config.RemoteConfig) (*remote.TokenAuth, error) {
	if cfg.CredentialsFile != "" {
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials: %w", err)
		}
		return remote.NewCredentialsAuth(ctx, data)
	}
	return remote.NewStaticTokenAuth(cfg.AccessToken), nil
}

// newScanner chains the extraction endpoint, when configured, ahead of the
// JSON scanner and bounds the chain with limiter.
func newScanner(cfg config.ScanConfig, limiter *scan.Limiter) scan.Scanner {
	var endpoint scan.Scanner
	if cfg.Endpoint != "" {
		endpoint = scan.NewHTTPScanner(cfg.Endpoint, cfg.Timeout)
	}
	chain := scan.NewChain(endpoint, scan.JSONScanner{})
	slog.Info("scanner chain ready", "scanners", chain.Names())
	return scan.Limit(chain, limiter)
}

type unauthenticated struct{}

func (unauthenticated) Token() (*oauth2.Token, error) { return nil, remote.ErrNotAuthenticated }
