// Command resident is a terminal client for the apartment-management API.
//
//	resident login -u <username> -p <password>
//	resident list complaints -all
//	resident complaint create -title "Leak" -content "Bathroom ceiling"
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/apartment-mgmt/resident/internal/api"
	"github.com/apartment-mgmt/resident/internal/config"
	"github.com/apartment-mgmt/resident/internal/pagination"
	"github.com/apartment-mgmt/resident/internal/resident"
	"github.com/apartment-mgmt/resident/internal/session"
	"github.com/apartment-mgmt/resident/internal/storage"
	"github.com/apartment-mgmt/resident/pkg/errs"
	"github.com/apartment-mgmt/resident/pkg/logger"
)

const usage = `usage: resident <command> [flags]

commands:
  login -u USER [-p PASS]        sign in (password may come from RESIDENT_PASSWORD)
  logout                         sign out and forget the stored session
  whoami                         show the signed-in resident
  list RESOURCE [-all]           apartments|parkings|lockers|complaints|surveys
  locker                         show your smart locker number
  complaint create|show|update   manage complaints
  parking create                 register a parking card
  survey show|answer             read and answer a survey
  profile update                 change name, password or avatar`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", userMessage(err))
		os.Exit(1)
	}
}

type app struct {
	store  storage.Store
	mgr    *session.Manager
	client *api.Client
	svc    *resident.Service
	out    io.Writer
	log    *slog.Logger
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return errs.Validation("", usage)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Init(logger.Config{
		Env:       logger.ParseEnv(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		Level:     logger.ParseLevel(cfg.Logging.Level),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
		Output:    stderr,
	})

	a, err := newApp(ctx, cfg, stdout)
	if err != nil {
		return err
	}
	defer a.close()

	a.mgr.Restore(ctx)
	return a.dispatch(ctx, args[0], args[1:])
}

func newApp(ctx context.Context, cfg *config.Config, out io.Writer) (*app, error) {
	log := logger.Component("cli")

	store, err := storage.Open(ctx, cfg.StorageConfig())
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	httpClient := api.NewHTTPClient(cfg.API.Timeout, logger.Component("api"))

	// raw serves login, refresh and the post-login user fetch; it must not
	// go through the session transport.
	raw, err := api.New(api.Options{BaseURL: cfg.API.BaseURL, Timeout: cfg.API.Timeout, Doer: httpClient})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	mgr, err := session.NewManager(session.Options{Store: store, Auth: raw})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	client, err := api.New(api.Options{BaseURL: cfg.API.BaseURL, Timeout: cfg.API.Timeout, Doer: mgr.Transport(httpClient)})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	svc, err := resident.New(resident.Options{Backend: client, Session: mgr})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &app{store: store, mgr: mgr, client: client, svc: svc, out: out, log: log}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("close storage", slog.Any("err", err))
	}
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return a.login(ctx, args)
	case "logout":
		a.mgr.Logout(ctx)
		fmt.Fprintln(a.out, "Signed out.")
		return nil
	case "whoami":
		return a.whoami()
	case "list":
		return a.list(ctx, args)
	case "locker":
		return a.locker(ctx)
	case "complaint":
		return a.complaint(ctx, args)
	case "parking":
		return a.parking(ctx, args)
	case "survey":
		return a.survey(ctx, args)
	case "profile":
		return a.profile(ctx, args)
	case "help", "-h", "--help":
		fmt.Fprintln(a.out, usage)
		return nil
	}
	return errs.Validation("", fmt.Sprintf("unknown command %q\n\n%s", cmd, usage))
}

// userMessage is errs.Message, prefixed with the list's own message when a
// page failed to load.
func userMessage(err error) string {
	var pe *pagination.Error
	if errors.As(err, &pe) && !errors.Is(err, errs.ErrSessionExpired) {
		return pe.Message + " " + errs.Message(pe.Err)
	}
	return errs.Message(err)
}

var errNotSignedIn = errs.Validation("", "You are not signed in. Run: resident login -u <username>")

func (a *app) requireLogin() error {
	if !a.mgr.IsAuthenticated() {
		return errNotSignedIn
	}
	return nil
}
