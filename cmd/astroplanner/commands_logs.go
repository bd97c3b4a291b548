package main

import (
	"context"
	"errors"

	"github.com/urfave/cli/v3"

	"astroplanner/internal/domain"
	"astroplanner/internal/planner"
)

func logFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "notes", Aliases: []string{"n"}},
		&cli.StringFlag{Name: "seeing"},
		&cli.StringFlag{Name: "transparency"},
		&cli.Int64Flag{Name: "rating", Usage: "1 to 5"},
	}
}

// logInput overlays the given flags on base.
func logInput(cmd *cli.Command, base domain.LogInput) domain.LogInput {
	in := base
	if cmd.IsSet("notes") {
		in.Notes = cmd.String("notes")
	}
	if cmd.IsSet("seeing") {
		in.Seeing = cmd.String("seeing")
	}
	if cmd.IsSet("transparency") {
		in.Transparency = cmd.String("transparency")
	}
	if cmd.IsSet("rating") {
		r := int(cmd.Int64("rating"))
		in.Rating = &r
	}
	return in
}

// withSession loads a planner with the session selected and its logs
// fetched.
func withSession(ctx context.Context, cmd *cli.Command, fn func(e *env, p *planner.Planner, sessionID int64) error) error {
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
	p.Wait()
	return fn(e, p, sid)
}

func logsCommand() *cli.Command {
	list := func(ctx context.Context, cmd *cli.Command) error {
		return withSession(ctx, cmd, func(e *env, p *planner.Planner, _ int64) error {
			if msg := p.Err(); msg != "" {
				return errors.New(msg)
			}
			return e.out.logs(p.Logs(), p.Timezone())
		})
	}
	return &cli.Command{
		Name:  "logs",
		Usage: "Record observations against a session",
		Commands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "List a session's logs, newest first",
				ArgsUsage: "SESSION_ID",
				Action:    list,
			},
			{
				Name:      "add",
				Usage:     "Add a log to a session",
				ArgsUsage: "SESSION_ID",
				Flags:     logFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withSession(ctx, cmd, func(e *env, p *planner.Planner, _ int64) error {
						l, err := p.CreateLog(ctx, logInput(cmd, domain.LogInput{}))
						if err != nil {
							return plannerErr(p, err)
						}
						return e.out.logs([]domain.ObservationLog{*l}, p.Timezone())
					})
				},
			},
			{
				Name:      "edit",
				Usage:     "Change a log; unset flags keep their values",
				ArgsUsage: "SESSION_ID LOG_ID",
				Flags:     logFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					logID, err := argID(cmd, 1, "log id")
					if err != nil {
						return err
					}
					return withSession(ctx, cmd, func(e *env, p *planner.Planner, _ int64) error {
						var base domain.LogInput
						for _, l := range p.Logs() {
							if l.ID == logID {
								base = domain.LogInput{Notes: l.Notes, Seeing: l.Seeing, Transparency: l.Transparency, Rating: l.Rating}
							}
						}
						l, err := p.UpdateLog(ctx, logID, logInput(cmd, base))
						if err != nil {
							return plannerErr(p, err)
						}
						return e.out.logs([]domain.ObservationLog{*l}, p.Timezone())
					})
				},
			},
			{
				Name:      "rm",
				Usage:     "Delete a log",
				ArgsUsage: "SESSION_ID LOG_ID",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					logID, err := argID(cmd, 1, "log id")
					if err != nil {
						return err
					}
					return withSession(ctx, cmd, func(e *env, p *planner.Planner, _ int64) error {
						if err := p.DeleteLog(ctx, logID); err != nil {
							return plannerErr(p, err)
						}
						return e.out.line("deleted log %d", logID)
					})
				},
			},
		},
	}
}
