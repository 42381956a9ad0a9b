package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yigit/storetrainer/internal/apiclient"
	"github.com/yigit/storetrainer/internal/app/models"
	"github.com/yigit/storetrainer/internal/session"
)

func printState(w io.Writer, state session.State) {
	if !state.SignedIn() {
		fmt.Fprintln(w, "Not signed in.")
		return
	}
	u := state.User
	if state.Guest {
		fmt.Fprintf(w, "%s (guest)\n", u.Name)
	} else {
		fmt.Fprintf(w, "%s <%s>\n", u.Name, u.Email)
		fmt.Fprintf(w, "  role:       %s\n", u.Role)
	}
	if u.Department != "" {
		fmt.Fprintf(w, "  department: %s\n", u.Department)
	}
	if u.AvatarURL != nil {
		fmt.Fprintf(w, "  avatar:     %s\n", *u.AvatarURL)
	}
	if len(u.ParticipatingEvents) > 0 {
		fmt.Fprintf(w, "  events:     %s\n", strings.Join(u.ParticipatingEvents, ", "))
	}
}

func newLoginCmd() *cobra.Command {
	var email, password string
	var guest bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if guest {
				email, password = "", ""
			} else if email == "" || password == "" {
				return errors.New("--email and --password required (or --guest)")
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.store.SignIn(ctx, email, password); err != nil {
					return err
				}
				printState(cmd.OutOrStdout(), a.store.Current())
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password")
	cmd.Flags().BoolVar(&guest, "guest", false, "Continue as a local guest")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.store.SignOut(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
				return nil
			})
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if refresh {
					if err := refreshProfile(ctx, a); err != nil {
						return err
					}
				}
				printState(cmd.OutOrStdout(), a.store.Current())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Reload the profile from the server first")
	return cmd
}

// refreshProfile reloads a signed-in profile from the server. A rejected
// token clears the saved session.
func refreshProfile(ctx context.Context, a *app) error {
	state := a.store.Current()
	if !state.SignedIn() || state.Guest {
		return nil
	}
	user, err := a.client.Me(ctx, state.Token)
	if apiclient.IsUnauthorized(err) {
		if err := a.store.SignOut(ctx); err != nil {
			return err
		}
		return errSessionExpired
	}
	if err != nil {
		return fmt.Errorf("refresh profile: %w", err)
	}
	return a.store.ReplaceUser(ctx, user)
}

// profileUpdateFromFlags includes only the flags the user actually set
func profileUpdateFromFlags(cmd *cobra.Command, name, department, avatar string) models.ProfileUpdate {
	var update models.ProfileUpdate
	if cmd.Flags().Changed("name") {
		update.Name = &name
	}
	if cmd.Flags().Changed("department") {
		update.Department = &department
	}
	if cmd.Flags().Changed("avatar") {
		update.AvatarURL = &avatar
	}
	return update
}

func newProfileCmd() *cobra.Command {
	var name, department, avatar string
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Change name, department or avatar",
		RunE: func(cmd *cobra.Command, args []string) error {
			update := profileUpdateFromFlags(cmd, name, department, avatar)
			if update.IsEmpty() {
				return errors.New("nothing to change: pass --name, --department or --avatar")
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if !a.store.Current().SignedIn() {
					return session.ErrNotSignedIn
				}
				if !a.store.UpdateProfile(ctx, update) {
					return errors.New("profile update failed; nothing was changed")
				}
				printState(cmd.OutOrStdout(), a.store.Current())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&department, "department", "", "Department")
	cmd.Flags().StringVar(&avatar, "avatar", "", "Avatar URL")
	return cmd
}
