package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/yigit/storetrainer/internal/ai"
	"github.com/yigit/storetrainer/internal/app/models/dto"
)

var (
	errGuestSession   = errors.New("this command needs a signed-in account; run coachctl login --email ... first")
	errSessionExpired = errors.New("the saved session has expired; run coachctl login again")
)

// token returns the saved access token of a signed-in, non-guest session
func (a *app) token() (string, error) {
	state := a.store.Current()
	if !state.SignedIn() || state.Guest || state.Token == "" {
		return "", errGuestSession
	}
	return state.Token, nil
}

// practiceAPI is the part of the API client a practice run uses
type practiceAPI interface {
	Respond(ctx context.Context, token string, req dto.RespondRequest) (string, error)
	Evaluate(ctx context.Context, token string, req dto.EvaluateRequest) (ai.EvaluationResult, error)
}

// Practice commands typed at the prompt
const (
	cmdEvaluate = "/evaluate"
	cmdQuit     = "/quit"
)

// runPractice drives one conversation from in until /evaluate, /quit or EOF.
// EOF and /evaluate score the transcript when the staff member said anything.
func runPractice(ctx context.Context, in io.Reader, out io.Writer, api practiceAPI, token string, persona ai.Persona, scenario string, now func() time.Time) error {
	persona = persona.Normalize()
	fmt.Fprintf(out, "Practicing with a %s. Type %s to finish and get feedback, %s to leave.\n", persona, cmdEvaluate, cmdQuit)

	started := now()
	var turns []ai.Turn
	scanner := bufio.NewScanner(in)

	evaluate := true
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == cmdQuit {
			evaluate = false
			break
		}
		if line == cmdEvaluate {
			break
		}

		reply, err := api.Respond(ctx, token, dto.RespondRequest{
			Message:  line,
			Persona:  string(persona),
			Scenario: scenario,
			History:  ai.HistoryFromTurns(turns),
		})
		if err != nil {
			return fmt.Errorf("get reply: %w", err)
		}
		turns = append(turns,
			ai.Turn{Sender: ai.SenderUser, Text: line, Timestamp: now()},
			ai.Turn{Sender: ai.SenderAI, Text: reply, Timestamp: now()},
		)
		fmt.Fprintf(out, "%s: %s\n", persona, reply)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	fmt.Fprintln(out)

	if !evaluate || len(turns) == 0 {
		fmt.Fprintln(out, "Session ended without evaluation.")
		return nil
	}

	result, err := api.Evaluate(ctx, token, dto.EvaluateRequest{
		Transcript:      turns,
		Scenario:        scenario,
		DurationSeconds: int(now().Sub(started).Seconds()),
	})
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	printEvaluation(out, result)
	return nil
}

func printEvaluation(w io.Writer, r ai.EvaluationResult) {
	fmt.Fprintf(w, "Overall score: %d/100\n", r.OverallScore)
	r.Categories.Each(func(name string, score *int) {
		fmt.Fprintf(w, "  %-17s %3d\n", name, *score)
	})
	if r.Feedback != "" {
		fmt.Fprintf(w, "\n%s\n", r.Feedback)
	}
	printList(w, "Strengths", r.Strengths)
	printList(w, "To improve", r.Improvements)
	fmt.Fprintf(w, "\nTone: %s  confidence %d  engagement %d\n",
		r.EmotionalAnalysis.Tone, r.EmotionalAnalysis.Confidence, r.EmotionalAnalysis.Engagement)
}

func printList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
}

func newPracticeCmd() *cobra.Command {
	var persona, scenario string
	cmd := &cobra.Command{
		Use:   "practice",
		Short: "Hold a practice conversation with an AI persona",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				token, err := a.token()
				if err != nil {
					return err
				}
				return runPractice(ctx, os.Stdin, cmd.OutOrStdout(), a.client, token, ai.Persona(persona), scenario, time.Now)
			})
		},
	}
	cmd.Flags().StringVarP(&persona, "persona", "p", string(ai.PersonaCustomer), "customer or assistant")
	cmd.Flags().StringVarP(&scenario, "scenario", "s", "", "Scenario description")
	return cmd
}
