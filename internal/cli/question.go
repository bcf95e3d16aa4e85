package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/askhub/internal/core/domain"
	"github.com/vietddude/askhub/internal/infra/hub"
)

var (
	accessToken string
	personID    string
)

var questionCmd = &cobra.Command{
	Use:   "question",
	Short: "Show the question currently pending on the hub",
	Run:   runQuestion,
}

func init() {
	questionCmd.Flags().StringVar(&accessToken, "token", "", "bearer token (overrides hub.token)")
	rootCmd.AddCommand(questionCmd)
}

// newHubClient builds a one-shot client for the command line.
func newHubClient(ctx context.Context) *hub.Client {
	cfg := setup()
	if accessToken != "" {
		cfg.Hub.Token = accessToken
	}

	client, err := hub.NewClient(ctx, cfg.Hub, hub.WithCaller(domain.Caller{PersonID: personID}))
	if err != nil {
		slog.Error("Failed to create hub client", "error", err)
		os.Exit(1)
	}
	return client
}

func runQuestion(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client := newHubClient(ctx)
	defer func() {
		_ = client.Close()
	}()

	if !client.Fetch(ctx) {
		slog.Error("Failed to fetch question", "error", client.Err())
		os.Exit(1)
	}
	q, _ := client.Active()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "EVENT\tPROMPT\tSILENT")
	_, _ = fmt.Fprintf(w, "%s\t%s\t%t\n", q.EventID, q.Prompt, q.SuppressConfirmation)
	_ = w.Flush()
}
