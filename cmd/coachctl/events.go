package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/yigit/storetrainer/internal/app/models"
	"github.com/yigit/storetrainer/internal/app/models/dto"
)

func printEvents(w io.Writer, events []dto.EventResponse) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No events.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tDATES\tJOINED")
	for _, e := range events {
		joined := ""
		if e.Participating {
			joined = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s - %s\t%s\n", e.ID, e.Name, e.Status,
			e.StartDate.Format("2006-01-02"), e.EndDate.Format("2006-01-02"), joined)
	}
	_ = tw.Flush()
}

func newEventsCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List sales events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				token, err := a.token()
				if err != nil {
					return err
				}
				events, err := a.client.Events(ctx, token, models.EventStatus(status))
				if err != nil {
					return err
				}
				printEvents(cmd.OutOrStdout(), events)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", "", "upcoming, active or completed")

	joinCmd := &cobra.Command{
		Use:   "join [EVENT_ID...]",
		Short: "Replace the events you participate in (no IDs leaves all)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				token, err := a.token()
				if err != nil {
					return err
				}
				resp, err := a.client.SaveParticipation(ctx, token, args)
				if err != nil {
					return err
				}

				state := a.store.Current()
				user := *state.User
				user.ParticipatingEvents = resp.EventIDs
				if err := a.store.ReplaceUser(ctx, &user); err != nil {
					a.log.Warn().Err(err).Msg("Participation saved but the local session was not updated")
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Participating in %d event(s).\n", len(resp.EventIDs))
				if len(resp.Added) > 0 {
					fmt.Fprintf(out, "  joined: %v\n", resp.Added)
				}
				if len(resp.Removed) > 0 {
					fmt.Fprintf(out, "  left:   %v\n", resp.Removed)
				}
				return nil
			})
		},
	}
	cmd.AddCommand(joinCmd)
	return cmd
}
