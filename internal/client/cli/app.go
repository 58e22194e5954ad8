// Package cli implements fdctl, the command-line device client.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/marcos-nsantos/focusdeck-sync/internal/client/agent"
	"github.com/marcos-nsantos/focusdeck-sync/internal/client/api"
	"github.com/marcos-nsantos/focusdeck-sync/internal/client/store"
	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/entity"
	"github.com/marcos-nsantos/focusdeck-sync/internal/infrastructure/observability"
)

const defaultServer = "http://localhost:8080"

var errNotSignedIn = errors.New("not signed in, run login or pair-complete first")

// App holds what every command needs once the global flags are parsed.
type App struct {
	out    io.Writer
	in     *bufio.Reader
	store  *store.Store
	client *api.Client
	logger *zap.Logger
	server string
	sess   *store.Session
}

func New(in io.Reader, out io.Writer) *App {
	return &App{in: bufio.NewReader(in), out: out}
}

// Run parses args (including the program name) and runs one command.
func (a *App) Run(ctx context.Context, args []string) error {
	return a.command().RunContext(ctx, args)
}

func (a *App) command() *cli.App {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "fdctl"
	}

	return &cli.App{
		Name:      "fdctl",
		Usage:     "sign in a device and keep its local copy in sync",
		Writer:    a.out,
		ErrWriter: a.out,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "server", Value: defaultServer, Usage: "sync server base URL", EnvVars: []string{"FDCTL_SERVER"}},
			&cli.StringFlag{Name: "state", Value: "fdctl.db", Usage: "local state database", EnvVars: []string{"FDCTL_STATE"}},
			&cli.StringFlag{Name: "device-id", Value: hostname, Usage: "stable id of this installation"},
			&cli.StringFlag{Name: "device-name", Value: hostname, Usage: "name shown in the device list"},
			&cli.StringFlag{Name: "policy", Value: string(entity.ResolutionManual), Usage: "conflict policy: UseServer, UseLocal or Manual"},
			&cli.StringFlag{Name: "log-level", Value: "warn", Usage: "debug, info, warn or error"},
		},
		Before: a.open,
		After:  a.close,
		Commands: []*cli.Command{
			{Name: "register", Usage: "create an account", ArgsUsage: "<username>", Action: a.register},
			{Name: "login", Usage: "sign in this device", ArgsUsage: "<username>", Action: a.login},
			{Name: "logout", Usage: "revoke this device and forget the session", Action: a.logout},
			{Name: "pair-start", Usage: "issue a code for pairing another device", Action: a.pairStart},
			{
				Name:      "pair-complete",
				Usage:     "sign in this device with a pairing deep link or code",
				ArgsUsage: "<deep-link> | <pairing-id> <code>",
				Action:    a.pairComplete,
			},
			{Name: "devices", Usage: "list the account's devices", Action: a.devices},
			{Name: "revoke", Usage: "revoke one device", ArgsUsage: "<device-record-id>", Action: a.revoke},
			{
				Name:  "revoke-all",
				Usage: "revoke every device of the account",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "keep-current", Usage: "leave this device signed in"},
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
				},
				Action: a.revokeAll,
			},
			{Name: "sync", Usage: "pull, then push pending changes", Action: a.sync},
			{Name: "set", Usage: "create or update an entity locally", ArgsUsage: "<type> <id> <json>", Action: a.set},
			{Name: "delete", Usage: "delete an entity locally", ArgsUsage: "<type> <id>", Action: a.remove},
			{Name: "show", Usage: "print local entities of a type", ArgsUsage: "<type>", Action: a.show},
			{Name: "pending", Usage: "list changes not yet pushed", Action: a.pending},
			{Name: "conflicts", Usage: "list conflicts kept for manual resolution", Action: a.conflicts},
			{Name: "resolve", Usage: "settle a kept conflict", ArgsUsage: "<conflict-id> <UseServer|UseLocal>", Action: a.resolve},
			{Name: "watch", Usage: "print live account events until interrupted", Action: a.watch},
		},

		// Errors are returned to main instead of exiting from inside the app.
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

func (a *App) open(c *cli.Context) error {
	logger, err := observability.NewLogger(c.String("log-level"), "console")
	if err != nil {
		return err
	}
	a.logger = logger

	st, err := store.Open(c.Context, c.String("state"))
	if err != nil {
		return err
	}
	a.store = st

	sess, err := st.Session(c.Context)
	switch {
	case errors.Is(err, store.ErrNoSession):
	case err != nil:
		return err
	default:
		a.sess = sess
	}

	a.server = c.String("server")
	if a.sess != nil && !c.IsSet("server") {
		a.server = a.sess.Server
	}
	a.client = api.New(a.server, nil)
	if a.sess != nil {
		a.client.SetTokens(a.sess.AccessToken, a.sess.RefreshToken)
	}
	a.client.OnTokens(a.persistTokens)
	return nil
}

func (a *App) close(*cli.Context) error {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// persistTokens keeps rotated refresh tokens so the next run can use them.
func (a *App) persistTokens(accessToken, refreshToken string, expiresAt time.Time) {
	if a.sess == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.store.UpdateTokens(ctx, accessToken, refreshToken, expiresAt); err != nil {
		a.logger.Warn("saving rotated tokens", zap.Error(err))
	}
}

func (a *App) requireSession() error {
	if a.sess == nil {
		return errNotSignedIn
	}
	return nil
}

func (a *App) device(c *cli.Context) api.Device {
	return api.Device{
		DeviceID: c.String("device-id"),
		Name:     c.String("device-name"),
		Platform: "cli",
	}
}

func (a *App) agent(c *cli.Context) (*agent.Agent, error) {
	policy, err := entity.ParseResolution(c.String("policy"))
	if err != nil {
		return nil, fmt.Errorf("--policy: %w", err)
	}
	return agent.New(a.client, a.store, agent.Config{Policy: policy}, a.logger), nil
}

// signedOut forgets a session the server no longer accepts.
func (a *App) signedOut(ctx context.Context, err error) error {
	if !api.IsSessionInvalid(err) {
		return err
	}
	if clearErr := a.store.ClearSession(ctx); clearErr != nil {
		a.logger.Warn("clearing session", zap.Error(clearErr))
	}
	a.sess = nil
	return fmt.Errorf("%w: %v", errNotSignedIn, err)
}
