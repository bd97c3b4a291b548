package main

import (
	"context"
	"strings"

	"github.com/urfave/cli/v3"

	"astroplanner/internal/domain"
)

func locationFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "name"},
		&cli.FloatFlag{Name: "lat", Usage: "latitude in degrees"},
		&cli.FloatFlag{Name: "lon", Usage: "longitude in degrees"},
		&cli.StringFlag{Name: "tz", Usage: "IANA time zone"},
		&cli.StringFlag{Name: "notes"},
		&cli.StringFlag{Name: "place", Usage: "look up coordinates and zone by place name"},
	}
}

// locationInput overlays the flags that were given on base. --place fills
// coordinates, zone and name from the geocoder before explicit flags apply.
func (e *env) locationInput(ctx context.Context, cmd *cli.Command, base domain.LocationInput) (domain.LocationInput, error) {
	in := base
	if place := strings.TrimSpace(cmd.String("place")); place != "" {
		res, err := e.client.Geocode(ctx, place)
		if err != nil {
			return in, err
		}
		in.Latitude, in.Longitude, in.Timezone = res.Latitude, res.Longitude, res.Timezone
		if in.Name == "" {
			in.Name = res.DisplayName()
		}
	}
	if cmd.IsSet("name") {
		in.Name = cmd.String("name")
	}
	if cmd.IsSet("lat") {
		in.Latitude = cmd.Float("lat")
	}
	if cmd.IsSet("lon") {
		in.Longitude = cmd.Float("lon")
	}
	if cmd.IsSet("tz") {
		in.Timezone = cmd.String("tz")
	}
	if cmd.IsSet("notes") {
		in.Notes = cmd.String("notes")
	}
	return in, nil
}

func listLocations(ctx context.Context, cmd *cli.Command) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	locs, err := e.client.ListLocations(ctx)
	if err != nil {
		return err
	}
	return e.out.locations(locs)
}

func locationsCommand() *cli.Command {
	return &cli.Command{
		Name:    "locations",
		Aliases: []string{"loc"},
		Usage:   "Manage observing sites",
		Action:  listLocations,
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List locations",
				Action: listLocations,
			},
			{
				Name:  "add",
				Usage: "Create a location",
				Flags: locationFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					e, err := newEnv(cmd)
					if err != nil {
						return err
					}
					in, err := e.locationInput(ctx, cmd, domain.LocationInput{})
					if err != nil {
						return err
					}
					p, err := e.planner(ctx)
					if err != nil {
						return err
					}
					defer p.Close()
					loc, err := p.CreateLocation(ctx, in)
					if err != nil {
						return plannerErr(p, err)
					}
					return e.out.locations([]domain.Location{*loc})
				},
			},
			{
				Name:      "update",
				Usage:     "Change a location; unset flags keep their values",
				ArgsUsage: "LOCATION_ID",
				Flags:     locationFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					locID, err := argID(cmd, 0, "location id")
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
					cur, ok := p.Store().Location(locID)
					if !ok {
						return domain.Invalid("Location not found")
					}
					in, err := e.locationInput(ctx, cmd, domain.LocationInput{
						Name: cur.Name, Latitude: cur.Latitude, Longitude: cur.Longitude, Timezone: cur.Timezone, Notes: cur.Notes,
					})
					if err != nil {
						return err
					}
					loc, err := p.UpdateLocation(ctx, locID, in)
					if err != nil {
						return plannerErr(p, err)
					}
					return e.out.locations([]domain.Location{*loc})
				},
			},
			{
				Name:      "rm",
				Usage:     "Delete a location with its sessions and logs",
				ArgsUsage: "LOCATION_ID",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					locID, err := argID(cmd, 0, "location id")
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
					if err := p.DeleteLocation(ctx, locID); err != nil {
						return plannerErr(p, err)
					}
					return e.out.line("deleted location %d", locID)
				},
			},
		},
	}
}
