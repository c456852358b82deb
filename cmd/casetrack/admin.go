package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/freekieb7/casetrack/internal/user"
	"github.com/freekieb7/casetrack/internal/util"

	"github.com/spf13/cobra"
)

var grantName string

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage who holds the admin role",
	Long: `Manage the admin role in the user directory.

Admin rights are required for the /api/admin endpoints, so the first admin
has to be granted from the command line.`,
}

var adminGrantCmd = &cobra.Command{
	Use:   "grant [email]",
	Short: "Give a user the admin role, creating the user when unknown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDirectory(cmd.Context(), func(ctx context.Context, directory *user.Manager) error {
			return setAdmin(ctx, directory, args[0], true)
		})
	},
}

var adminRevokeCmd = &cobra.Command{
	Use:   "revoke [email]",
	Short: "Take the admin role away from a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDirectory(cmd.Context(), func(ctx context.Context, directory *user.Manager) error {
			return setAdmin(ctx, directory, args[0], false)
		})
	},
}

var adminListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users and their roles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDirectory(cmd.Context(), func(ctx context.Context, directory *user.Manager) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "EMAIL\tNAME\tROLE")
			for _, u := range directory.ListUsers() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", u.Email, u.Name, u.Role)
			}
			return w.Flush()
		})
	},
}

func init() {
	adminGrantCmd.Flags().StringVar(&grantName, "name", "", "display name when the user has to be created")
}

func withDirectory(ctx context.Context, fn func(context.Context, *user.Manager) error) error {
	svc, err := newServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close(context.Background())

	return fn(ctx, svc.directory)
}

func setAdmin(ctx context.Context, directory *user.Manager, email string, admin bool) error {
	role := user.RoleUser
	if admin {
		role = user.RoleAdmin
	}

	existing, ok := directory.GetUserByEmail(email).Get()
	if !ok {
		if !admin {
			return fmt.Errorf("no user with email %s", email)
		}
		name := grantName
		if name == "" {
			name = email
		}
		created, err := directory.AddUser(ctx, user.AddUserParams{Name: name, Email: email, Role: util.Some(role)})
		if err != nil {
			return err
		}
		fmt.Printf("Created admin %s (%s)\n", created.Email, created.ID)
		return nil
	}

	if _, err := directory.SetRole(ctx, existing.ID, role); err != nil {
		return err
	}
	fmt.Printf("Set role of %s to %s\n", existing.Email, role)
	return nil
}
