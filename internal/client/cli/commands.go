package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/marcos-nsantos/focusdeck-sync/internal/client/api"
	"github.com/marcos-nsantos/focusdeck-sync/internal/client/store"
	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/entity"
)

func argCount(c *cli.Context, n int) error {
	if c.NArg() != n {
		return fmt.Errorf("%s: expected %d argument(s), usage: %s %s", c.Command.Name, n, c.Command.Name, c.Command.ArgsUsage)
	}
	return nil
}

func (a *App) register(c *cli.Context) error {
	if err := argCount(c, 1); err != nil {
		return err
	}
	password, err := promptPassword(a.out, true)
	if err != nil {
		return err
	}
	cred, err := a.client.Register(c.Context, c.Args().First(), password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "registered %s (%s)\n", cred.Username, cred.UserID)
	return nil
}

func (a *App) login(c *cli.Context) error {
	if err := argCount(c, 1); err != nil {
		return err
	}
	password, err := promptPassword(a.out, false)
	if err != nil {
		return err
	}
	device := a.device(c)
	resp, err := a.client.Login(c.Context, c.Args().First(), password, device)
	if err != nil {
		return err
	}

	sess := store.Session{
		Server:         a.server,
		Username:       resp.Username,
		UserID:         resp.UserID,
		DeviceRecordID: resp.Device.ID,
		DeviceID:       device.DeviceID,
		AccessToken:    resp.AccessToken,
		RefreshToken:   resp.RefreshToken,
		ExpiresAt:      resp.ExpiresAt,
	}
	if err := a.store.SaveSession(c.Context, sess); err != nil {
		return err
	}
	a.sess = &sess
	fmt.Fprintf(a.out, "signed in as %s on %s\n", resp.Username, device.Name)
	return nil
}

func (a *App) logout(c *cli.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	if err := a.client.Logout(c.Context); err != nil && !api.IsSessionInvalid(err) {
		return err
	}
	if err := a.store.ClearSession(c.Context); err != nil {
		return err
	}
	a.sess = nil
	fmt.Fprintln(a.out, "signed out")
	return nil
}

func (a *App) pairStart(c *cli.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	challenge, err := a.client.StartPairing(c.Context)
	if err != nil {
		return a.signedOut(c.Context, err)
	}
	fmt.Fprintf(a.out, "pairing id: %s\ncode:       %s\ndeep link:  %s\nexpires in: %s\n",
		challenge.PairingID, challenge.Code, challenge.DeepLink,
		time.Until(challenge.ExpiresAt).Round(time.Second))
	return nil
}

func (a *App) pairComplete(c *cli.Context) error {
	var deepLink, pairingID, code string
	switch c.NArg() {
	case 1:
		deepLink = c.Args().First()
	case 2:
		pairingID, code = c.Args().Get(0), c.Args().Get(1)
	default:
		return fmt.Errorf("pair-complete: usage: pair-complete %s", c.Command.ArgsUsage)
	}

	device := a.device(c)
	resp, err := a.client.CompletePairing(c.Context, deepLink, pairingID, code, device)
	if err != nil {
		return err
	}

	sess := store.Session{
		Server:         a.server,
		UserID:         resp.UserID,
		DeviceRecordID: resp.Device.ID,
		DeviceID:       device.DeviceID,
		AccessToken:    resp.AccessToken,
		RefreshToken:   resp.RefreshToken,
		ExpiresAt:      resp.ExpiresAt,
	}
	if err := a.store.SaveSession(c.Context, sess); err != nil {
		return err
	}
	a.sess = &sess
	fmt.Fprintf(a.out, "paired %s\n", device.Name)
	return nil
}

func (a *App) devices(c *cli.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	devices, err := a.client.Devices(c.Context)
	if err != nil {
		return a.signedOut(c.Context, err)
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPLATFORM\tSTATE\tLAST SEEN")
	for _, d := range devices {
		state := "active"
		switch {
		case d.RevokedUTC != nil:
			state = "revoked"
		case !d.IsActive:
			state = "expired"
		}
		name := d.Name
		if d.Current {
			name += " (this device)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.ID, name, d.Platform, state, d.LastSeenUTC.Format(time.RFC3339))
	}
	return tw.Flush()
}

func (a *App) revoke(c *cli.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	if err := argCount(c, 1); err != nil {
		return err
	}
	id, err := uuid.Parse(c.Args().First())
	if err != nil {
		return fmt.Errorf("revoke: invalid device id: %w", err)
	}
	d, err := a.client.RevokeDevice(c.Context, id)
	if err != nil {
		return a.signedOut(c.Context, err)
	}
	fmt.Fprintf(a.out, "revoked %s\n", d.Name)
	return nil
}

func (a *App) revokeAll(c *cli.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	keep := c.Bool("keep-current")
	if !c.Bool("yes") {
		question := "Revoke every device, including this one?"
		if keep {
			question = "Revoke every other device?"
		}
		ok, err := confirm(a.in, a.out, question)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	revoked, err := a.client.RevokeAll(c.Context, keep)
	if err != nil {
		return a.signedOut(c.Context, err)
	}
	fmt.Fprintf(a.out, "revoked %d device(s)\n", len(revoked))
	if !keep {
		a.sess = nil
		return a.store.ClearSession(c.Context)
	}
	return nil
}

func (a *App) sync(c *cli.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	ag, err := a.agent(c)
	if err != nil {
		return err
	}
	report, err := ag.Sync(c.Context)
	if err != nil {
		return a.signedOut(c.Context, err)
	}
	fmt.Fprintf(a.out, "pulled %d, pushed %d, resolved %d, open conflicts %d, rejected %d (cursor %d)\n",
		report.Pulled, report.Pushed, report.Resolved, report.Conflicts, report.Rejected, report.Cursor)
	return nil
}

func parseEntityType(s string) (entity.EntityType, error) {
	for _, t := range []entity.EntityType{
		entity.EntityStudySession, entity.EntityTask, entity.EntityNote, entity.EntityDeck,
		entity.EntityAutomation, entity.EntityServiceConfiguration, entity.EntityUserSettings,
	} {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown entity type %q", s)
}

func (a *App) set(c *cli.Context) error {
	if err := argCount(c, 3); err != nil {
		return err
	}
	entityType, err := parseEntityType(c.Args().Get(0))
	if err != nil {
		return err
	}
	id, body := c.Args().Get(1), c.Args().Get(2)
	if !json.Valid([]byte(body)) {
		return errors.New("set: payload is not valid JSON")
	}

	op := entity.OperationUpdate
	current, err := a.store.Entity(c.Context, entityType, id)
	switch {
	case errors.Is(err, store.ErrNotFound) || (err == nil && current.Deleted && current.Version == 0):
		op = entity.OperationCreate
	case err != nil:
		return err
	}

	change, err := a.store.RecordLocal(c.Context, entityType, id, op, json.RawMessage(body))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s %s/%s pending (base version %d)\n", change.Operation, entityType, id, change.BaseVersion)
	return nil
}

func (a *App) remove(c *cli.Context) error {
	if err := argCount(c, 2); err != nil {
		return err
	}
	entityType, err := parseEntityType(c.Args().Get(0))
	if err != nil {
		return err
	}
	id := c.Args().Get(1)
	if _, err := a.store.Entity(c.Context, entityType, id); err != nil {
		return fmt.Errorf("delete %s/%s: %w", entityType, id, err)
	}
	change, err := a.store.RecordLocal(c.Context, entityType, id, entity.OperationDelete, nil)
	if err != nil {
		return err
	}
	if change == nil {
		fmt.Fprintf(a.out, "discarded unpushed %s/%s\n", entityType, id)
		return nil
	}
	fmt.Fprintf(a.out, "delete %s/%s pending\n", entityType, id)
	return nil
}

func (a *App) show(c *cli.Context) error {
	if err := argCount(c, 1); err != nil {
		return err
	}
	entityType, err := parseEntityType(c.Args().First())
	if err != nil {
		return err
	}
	entities, err := a.store.Entities(c.Context, entityType)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tVERSION\tPAYLOAD")
	for _, e := range entities {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", e.ID, e.Version, e.Payload)
	}
	return tw.Flush()
}

func (a *App) pending(c *cli.Context) error {
	changes, err := a.store.Pending(c.Context)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tENTITY\tOPERATION\tBASE")
	for _, p := range changes {
		fmt.Fprintf(tw, "%s\t%s/%s\t%s\t%d\n", p.ID, p.EntityType, p.EntityID, p.Operation, p.BaseVersion)
	}
	return tw.Flush()
}

func (a *App) conflicts(c *cli.Context) error {
	conflicts, err := a.store.Conflicts(c.Context)
	if err != nil {
		return err
	}
	if len(conflicts) == 0 {
		fmt.Fprintln(a.out, "no open conflicts")
		return nil
	}
	for _, cf := range conflicts {
		where := "local"
		if cf.ServerConflictID != nil {
			where = "server " + cf.ServerConflictID.String()
		}
		fmt.Fprintf(a.out, "%s  %s/%s (%s)\n  local:  %s %s\n  server: %s v%d %s\n",
			cf.ID, cf.EntityType, cf.EntityID, where,
			cf.Local.Operation, cf.Local.Payload,
			cf.ServerOperation, cf.ServerVersion, cf.ServerPayload)
	}
	return nil
}

func (a *App) resolve(c *cli.Context) error {
	if err := argCount(c, 2); err != nil {
		return err
	}
	id, err := uuid.Parse(c.Args().Get(0))
	if err != nil {
		return fmt.Errorf("resolve: invalid conflict id: %w", err)
	}
	resolution, err := entity.ParseResolution(c.Args().Get(1))
	if err != nil {
		return err
	}
	ag, err := a.agent(c)
	if err != nil {
		return err
	}
	if err := ag.Resolve(c.Context, id, resolution); err != nil {
		return a.signedOut(c.Context, err)
	}
	fmt.Fprintf(a.out, "resolved %s with %s\n", id, resolution)
	return nil
}

// watch prints events until the server closes the socket. A revocation of
// this device ends the session.
func (a *App) watch(c *cli.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	events, err := a.client.DialEvents(c.Context)
	if err != nil {
		return a.signedOut(c.Context, err)
	}
	go func() {
		<-c.Context.Done()
		_ = events.Close()
	}()

	for {
		evt, err := events.Next()
		if err != nil {
			if c.Context.Err() != nil {
				return nil
			}
			return fmt.Errorf("events closed: %w", err)
		}
		fmt.Fprintf(a.out, "%s %s %s\n", evt.OccurredAt.Format(time.RFC3339), evt.Type, evt.Payload)

		if evt.Type == "device.revoked" && evt.DeviceID != nil && *evt.DeviceID == a.sess.DeviceRecordID {
			fmt.Fprintln(a.out, "this device was revoked")
			a.sess = nil
			return a.store.ClearSession(c.Context)
		}
	}
}
