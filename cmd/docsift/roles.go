package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/poiesic/docsift/core"
	"github.com/poiesic/docsift/storage"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

var errNoRoles = errors.New("at least one --role is required")

// roleEntry is one item of a roles import file.
type roleEntry struct {
	User  string   `yaml:"user"`
	Roles []string `yaml:"roles"`
}

func rolesCommand() *cli.Command {
	userFlag := &cli.StringFlag{
		Name:     "user",
		Aliases:  []string{"u"},
		Usage:    "User name",
		Required: true,
	}
	roleFlag := &cli.StringSliceFlag{
		Name:    "role",
		Aliases: []string{"r"},
		Usage:   "Role to assign (repeatable)",
	}
	return &cli.Command{
		Name:  "roles",
		Usage: "Manage user role assignments",
		Subcommands: []*cli.Command{
			{
				Name:   "add",
				Usage:  "Assign roles to a new user",
				Action: rolesAddCommand,
				Flags:  []cli.Flag{userFlag, roleFlag},
			},
			{
				Name:   "list",
				Usage:  "List every assignment",
				Action: rolesListCommand,
			},
			{
				Name:   "get",
				Usage:  "Show the roles of a user",
				Action: rolesGetCommand,
				Flags:  []cli.Flag{userFlag},
			},
			{
				Name:   "update",
				Usage:  "Replace the roles of a user",
				Action: rolesUpdateCommand,
				Flags:  []cli.Flag{userFlag, roleFlag},
			},
			{
				Name:   "delete",
				Usage:  "Remove a user's assignment",
				Action: rolesDeleteCommand,
				Flags:  []cli.Flag{userFlag},
			},
			{
				Name:   "import",
				Usage:  "Create or replace assignments from a YAML file of {user, roles} entries",
				Action: rolesImportCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the YAML file",
						Required: true,
					},
				},
			},
		},
	}
}

func rolesFlag(c *cli.Context) ([]string, error) {
	var roles []string
	for _, r := range c.StringSlice("role") {
		for _, part := range strings.Split(r, ",") {
			if part = strings.TrimSpace(part); part != "" {
				roles = append(roles, part)
			}
		}
	}
	if len(roles) == 0 {
		return nil, errNoRoles
	}
	return roles, nil
}

func printAssignment(c *cli.Context, a *core.RoleAssignment) {
	fmt.Fprintf(c.App.Writer, "%s\t%s\n", a.User, strings.Join(a.Roles, ","))
}

func withRoles(c *cli.Context, fn func(ctx context.Context, roles storage.RoleRepository) error) error {
	sys, err := openSystem(c)
	if err != nil {
		return err
	}
	defer sys.Close()
	return fn(c.Context, sys.Roles())
}

func rolesAddCommand(c *cli.Context) error {
	roleNames, err := rolesFlag(c)
	if err != nil {
		return err
	}
	return withRoles(c, func(ctx context.Context, roles storage.RoleRepository) error {
		created, err := roles.Create(ctx, &core.RoleAssignment{User: c.String("user"), Roles: roleNames})
		if err != nil {
			return err
		}
		printAssignment(c, created)
		return nil
	})
}

func rolesListCommand(c *cli.Context) error {
	return withRoles(c, func(ctx context.Context, roles storage.RoleRepository) error {
		all, err := roles.List(ctx)
		if err != nil {
			return err
		}
		for _, a := range all {
			printAssignment(c, a)
		}
		return nil
	})
}

func rolesGetCommand(c *cli.Context) error {
	return withRoles(c, func(ctx context.Context, roles storage.RoleRepository) error {
		a, err := roles.GetByUser(ctx, c.String("user"))
		if err != nil {
			return err
		}
		printAssignment(c, a)
		return nil
	})
}

func rolesUpdateCommand(c *cli.Context) error {
	roleNames, err := rolesFlag(c)
	if err != nil {
		return err
	}
	return withRoles(c, func(ctx context.Context, roles storage.RoleRepository) error {
		a, err := roles.GetByUser(ctx, c.String("user"))
		if err != nil {
			return err
		}
		a.Roles = roleNames
		if a, err = roles.Update(ctx, a); err != nil {
			return err
		}
		printAssignment(c, a)
		return nil
	})
}

func rolesDeleteCommand(c *cli.Context) error {
	return withRoles(c, func(ctx context.Context, roles storage.RoleRepository) error {
		a, err := roles.GetByUser(ctx, c.String("user"))
		if err != nil {
			return err
		}
		return roles.Delete(ctx, a.ID)
	})
}

func readRoleEntries(path string) ([]roleEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []roleEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return entries, nil
}

// importRoles upserts every entry and reports all failures together.
func importRoles(ctx context.Context, roles storage.RoleRepository, entries []roleEntry) (int, error) {
	var errs []error
	imported := 0
	for _, e := range entries {
		existing, err := roles.GetByUser(ctx, e.User)
		switch {
		case err == nil:
			existing.Roles = e.Roles
			_, err = roles.Update(ctx, existing)
		case errors.Is(err, storage.ErrNotFound):
			_, err = roles.Create(ctx, &core.RoleAssignment{User: e.User, Roles: e.Roles})
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("user %q: %w", e.User, err))
			continue
		}
		imported++
	}
	return imported, errors.Join(errs...)
}

func rolesImportCommand(c *cli.Context) error {
	entries, err := readRoleEntries(c.String("file"))
	if err != nil {
		return err
	}
	return withRoles(c, func(ctx context.Context, roles storage.RoleRepository) error {
		n, err := importRoles(ctx, roles, entries)
		fmt.Fprintf(c.App.Writer, "imported %d of %d assignments\n", n, len(entries))
		return err
	})
}
