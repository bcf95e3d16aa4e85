package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/askhub/internal/core/domain"
)

var (
	answerValue string
	answerType  string
	answerExtra []string
)

var answerCmd = &cobra.Command{
	Use:   "answer",
	Short: "Answer the pending question and print the confirmation",
	Run:   runAnswer,
}

func init() {
	answerCmd.Flags().StringVar(&answerValue, "value", "", "answer value")
	answerCmd.Flags().StringVar(&answerType, "type", string(domain.ResponseString), "response type, e.g. ResponseYes")
	answerCmd.Flags().StringArrayVar(&answerExtra, "extra", nil, "extra field as key=value (repeatable)")
	answerCmd.Flags().StringVar(&accessToken, "token", "", "bearer token (overrides hub.token)")
	answerCmd.Flags().StringVar(&personID, "person", "", "person id sent as event_person_id")
	_ = answerCmd.MarkFlagRequired("value")
	rootCmd.AddCommand(answerCmd)
}

func runAnswer(cmd *cobra.Command, args []string) {
	typ, ok := domain.ParseResponseType(answerType)
	if !ok {
		fmt.Printf("Invalid response type: %s\n", answerType)
		os.Exit(1)
	}
	extra, err := parseExtra(answerExtra)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client := newHubClient(ctx)
	defer func() {
		_ = client.Close()
	}()

	client.Fetch(ctx)
	speech := client.Post(ctx, answerValue, typ, extra)
	if err := client.Err(); err != nil {
		slog.Error("Answer not delivered", "error", err)
		fmt.Println(speech)
		os.Exit(1)
	}

	if speech == "" {
		slog.Info("Answer delivered, confirmation suppressed by the hub")
		return
	}
	fmt.Println(speech)
}

func parseExtra(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	extra := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid extra field %q, expected key=value", p)
		}
		extra[k] = v
	}
	return extra, nil
}
