package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"astroplanner/internal/adapter/api"
	"astroplanner/internal/domain"
	"astroplanner/internal/planner"
	"astroplanner/internal/tz"
)

// zoneFunc resolves each location's effective zone from a listing.
func (e *env) zoneFunc(ctx context.Context) (func(int64) string, error) {
	locs, err := e.client.ListLocations(ctx)
	if err != nil {
		return nil, err
	}
	ambient := e.cfg.Client.Timezone
	if ambient == "" {
		ambient = tz.Ambient()
	}
	resolver := tz.NewResolver(ambient)
	zones := make(map[int64]string, len(locs))
	for _, l := range locs {
		zones[l.ID] = l.Timezone
	}
	return func(id int64) string { return resolver.Effective(zones[id]) }, nil
}

func listSessions(ctx context.Context, cmd *cli.Command) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	q := api.SessionQuery{LocationID: cmd.Int64("location")}
	if st := cmd.String("status"); st != "" {
		if q.Status, err = domain.ParseStatus(st); err != nil {
			return err
		}
	}
	list, err := e.client.ListSessionsFiltered(ctx, q)
	if err != nil {
		return err
	}
	zoneFor, err := e.zoneFunc(ctx)
	if err != nil {
		return err
	}
	return e.out.sessions(list, zoneFor)
}

func sessionFilterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{Name: "location", Aliases: []string{"l"}, Usage: "only sessions at this location"},
		&cli.StringFlag{Name: "status", Usage: "planned, completed or cancelled"},
	}
}

func sessionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "Inspect and delete observing sessions",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List sessions, newest first",
				Flags:  sessionFilterFlags(),
				Action: listSessions,
			},
			{
				Name:      "show",
				Usage:     "Show one session",
				ArgsUsage: "SESSION_ID",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					sid, err := argID(cmd, 0, "session id")
					if err != nil {
						return err
					}
					e, err := newEnv(cmd)
					if err != nil {
						return err
					}
					s, err := e.client.GetSession(ctx, sid)
					if err != nil {
						return err
					}
					zoneFor, err := e.zoneFunc(ctx)
					if err != nil {
						return err
					}
					return e.out.sessions([]domain.Session{*s}, zoneFor)
				},
			},
			{
				Name:  "stats",
				Usage: "Count a location's sessions by status",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "location", Aliases: []string{"l"}, Required: true},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					e, err := newEnv(cmd)
					if err != nil {
						return err
					}
					p, err := e.planner(ctx)
					if err != nil {
						return err
					}
					defer p.Close()
					if err := p.SelectLocation(cmd.Int64("location")); err != nil {
						return plannerErr(p, err)
					}
					st := p.Stats()
					return e.out.kv(st, [][2]string{
						{"planned", itoa(st.Planned)},
						{"completed", itoa(st.Completed)},
						{"cancelled", itoa(st.Cancelled)},
					})
				},
			},
			{
				Name:      "rm",
				Usage:     "Delete a session and its logs",
				ArgsUsage: "SESSION_ID",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					sid, err := argID(cmd, 0, "session id")
					if err != nil {
						return err
					}
					e, err := newEnv(cmd)
					if err != nil {
						return err
					}
					p, err := e.planner(ctx)
					if err != nil {
						return err
					}
					defer p.Close()
					if err := p.DeleteSession(ctx, sid); err != nil {
						return plannerErr(p, err)
					}
					return e.out.line("deleted session %d", sid)
				},
			},
		},
	}
}

func itoa(n int) string { return id(int64(n)) }

func draftFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "target", Aliases: []string{"t"}, Usage: "a target visible at the start time"},
		&cli.StringFlag{Name: "custom", Usage: "free-text target, exempt from the visibility check"},
		&cli.StringFlag{Name: "status", Usage: "planned, completed or cancelled"},
	}
}

// applyDraft copies target and status flags onto the open draft.
func applyDraft(ed *planner.Editor, cmd *cli.Command) error {
	if cmd.IsSet("target") && cmd.IsSet("custom") {
		return errors.New("use either --target or --custom")
	}
	if cmd.IsSet("custom") {
		if err := ed.SelectCustom(cmd.String("custom")); err != nil {
			return err
		}
	}
	if cmd.IsSet("target") {
		if err := ed.SelectPreset(cmd.String("target")); err != nil {
			return err
		}
	}
	if cmd.IsSet("status") {
		if err := ed.SetStatus(cmd.String("status")); err != nil {
			return err
		}
	}
	return nil
}

// submitDraft waits for visibility, applies the flags and submits. On a
// rejected target the visible choices are listed in the error.
func (e *env) submitDraft(ctx context.Context, p *planner.Planner, cmd *cli.Command) error {
	p.Wait()
	ed := p.Editor()
	if err := applyDraft(ed, cmd); err != nil {
		return plannerErr(p, err)
	}
	saved, err := ed.Submit(ctx)
	if err != nil {
		err = plannerErr(p, err)
		if names := ed.Visibility().VisibleNames(); len(names) > 0 {
			return fmt.Errorf("%w (visible: %s)", err, strings.Join(names, ", "))
		}
		return err
	}
	return e.out.sessions([]domain.Session{*saved}, p.ZoneFor)
}

func planCommand() *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "Schedule a session for a target visible at the given local time",
		Flags: append([]cli.Flag{
			&cli.Int64Flag{Name: "location", Aliases: []string{"l"}, Required: true},
			&cli.StringFlag{Name: "at", Required: true, Usage: "local start, YYYY-MM-DDTHH:MM"},
		}, draftFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			p, err := e.planner(ctx)
			if err != nil {
				return err
			}
			defer p.Close()
			if err := p.SelectLocation(cmd.Int64("location")); err != nil {
				return plannerErr(p, err)
			}
			if err := p.BeginCreateSession(cmd.String("at")); err != nil {
				return plannerErr(p, err)
			}
			return e.submitDraft(ctx, p, cmd)
		},
	}
}

func editCommand() *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Change a session's target, time or status",
		ArgsUsage: "SESSION_ID",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "at", Usage: "new local start, YYYY-MM-DDTHH:MM"},
		}, draftFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			sid, err := argID(cmd, 0, "session id")
			if err != nil {
				return err
			}
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			p, err := e.planner(ctx)
			if err != nil {
				return err
			}
			defer p.Close()
			if err := p.SelectSession(sid); err != nil {
				return plannerErr(p, err)
			}
			ed := p.Editor()
			if err := ed.BeginEdit(sid); err != nil {
				return plannerErr(p, err)
			}
			if cmd.IsSet("at") {
				if err := ed.SetLocalStart(cmd.String("at")); err != nil {
					return err
				}
			}
			return e.submitDraft(ctx, p, cmd)
		},
	}
}
