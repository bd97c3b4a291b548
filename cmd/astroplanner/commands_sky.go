package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"astroplanner/internal/adapter/api"
	"astroplanner/internal/domain"
	"astroplanner/internal/tz"
)

func targetsCommand() *cli.Command {
	return &cli.Command{
		Name:  "targets",
		Usage: "List targets and their visibility at a location and local time",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "location", Aliases: []string{"l"}, Required: true},
			&cli.StringFlag{Name: "at", Required: true, Usage: "local time, YYYY-MM-DDTHH:MM"},
			&cli.StringFlag{Name: "tz", Usage: "zone of --at (defaults to the location's)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			locID := cmd.Int64("location")
			zone := cmd.String("tz")
			if zone == "" {
				zoneFor, err := e.zoneFunc(ctx)
				if err != nil {
					return err
				}
				zone = zoneFor(locID)
			}
			targets, err := e.client.VisibleTargets(ctx, locID, cmd.String("at"), zone)
			if err != nil {
				return err
			}
			return e.out.targets(targets)
		},
	}
}

func weatherCommand() *cli.Command {
	return &cli.Command{
		Name:      "weather",
		Usage:     "Show the forecast for a session",
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
			if err := p.SelectSession(sid); err != nil {
				return plannerErr(p, err)
			}
			p.Wait()
			snap, _ := p.Weather()
			if snap == nil {
				return plannerErr(p, errors.New("no forecast available"))
			}
			return e.out.weather(snap)
		},
	}
}

func geocodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "geocode",
		Usage:     "Look up a place name",
		ArgsUsage: "PLACE",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			q := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
			if q == "" {
				return errors.New("missing place argument")
			}
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			res, err := e.client.Geocode(ctx, q)
			if err != nil {
				return err
			}
			return e.out.kv(res, [][2]string{
				{"name", res.DisplayName()},
				{"latitude", fmt.Sprintf("%.4f", res.Latitude)},
				{"longitude", fmt.Sprintf("%.4f", res.Longitude)},
				{"timezone", orDash(res.Timezone)},
			})
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Download sessions as an iCalendar file",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "location", Aliases: []string{"l"}},
			&cli.StringFlag{Name: "status", Usage: "planned (default), completed, cancelled or all"},
			&cli.StringFlag{Name: "from", Usage: "earliest start, RFC 3339"},
			&cli.StringFlag{Name: "to", Usage: "latest start, RFC 3339"},
			&cli.Int64Flag{Name: "duration", Usage: "event length in minutes"},
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "write to a file instead of stdout"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			q := api.ICSQuery{
				LocationID:      cmd.Int64("location"),
				Status:          cmd.String("status"),
				DurationMinutes: int(cmd.Int64("duration")),
			}
			if q.From, err = optionalTime(cmd.String("from")); err != nil {
				return err
			}
			if q.To, err = optionalTime(cmd.String("to")); err != nil {
				return err
			}
			body, err := e.client.ExportICS(ctx, q)
			if err != nil {
				return err
			}
			if path := cmd.String("file"); path != "" {
				if err := os.WriteFile(path, body, 0o644); err != nil {
					return fmt.Errorf("write calendar: %w", err)
				}
				_, err = fmt.Fprintf(os.Stderr, "wrote %s\n", path)
				return err
			}
			_, err = cmd.Root().Writer.Write(body)
			return err
		},
	}
}

func optionalTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := tz.ParseServerTime(s)
	if err != nil {
		return time.Time{}, domain.Invalid(err.Error())
	}
	return t, nil
}
