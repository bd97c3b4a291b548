package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

func credentialFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "email", Required: true},
		&cli.StringFlag{Name: "password", Required: true, Sources: cli.EnvVars("ASTRO_PASSWORD")},
	}
}

func registerCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Create an account",
		Flags: credentialFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			user, err := e.client.Register(ctx, cmd.String("email"), cmd.String("password"))
			if err != nil {
				return err
			}
			return e.out.kv(user, [][2]string{{"id", id(user.ID)}, {"email", user.Email}, {"created", formatTime(user.CreatedAt)}})
		},
	}
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Log in and store the access token",
		Flags: credentialFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			token, err := e.client.Login(ctx, cmd.String("email"), cmd.String("password"))
			if err != nil {
				return err
			}
			if err := saveToken(tokenPath(e.cfg), token); err != nil {
				return err
			}
			return e.out.line("logged in as %s", cmd.String("email"))
		},
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Revoke and forget the stored token",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			if e.client.Token() != "" {
				// The local token is dropped even when the server is unreachable.
				_ = e.client.Logout(ctx)
			}
			if err := saveToken(tokenPath(e.cfg), ""); err != nil {
				return err
			}
			return e.out.line("logged out")
		},
	}
}

func whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the authenticated user",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			user, err := e.client.Me(ctx)
			if err != nil {
				return err
			}
			return e.out.kv(user, [][2]string{{"id", id(user.ID)}, {"email", user.Email}, {"created", formatTime(user.CreatedAt)}})
		},
	}
}
