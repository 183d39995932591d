// ask answers questions about a case spreadsheet from the terminal.
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

	"casequery-backend/config"
	"casequery-backend/dataset"
	"casequery-backend/fallback"
	"casequery-backend/models"
	"casequery-backend/service"

	"github.com/google/generative-ai-go/genai"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

type askOptions struct {
	file    string
	noColor bool
	offline bool
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &askOptions{}
	cmd := &cobra.Command{
		Use:   "ask [pergunta]",
		Short: "Answer questions about a case spreadsheet.",
		Long: `Load a case spreadsheet (CSV or XLSX) and answer questions in Portuguese.

With a question argument, prints one answer. Without one, reads questions from
standard input, one per line, keeping the conversation context between them.

Examples:
  ask -a processos.xlsx "quantos processos ativos?"
  ask -a processos.csv`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, strings.Join(args, " "), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&opts.file, "arquivo", "a", "", "Spreadsheet to load (.csv, .xlsx)")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "Never call the generative model")
	_ = cmd.MarkFlagRequired("arquivo")
	return cmd
}

func run(ctx context.Context, opts *askOptions, question string, in io.Reader, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	svcOpts := []service.QueryServiceOption{service.WithLocation(cfg.Location())}
	if !opts.offline && cfg.Gemini.APIKey != "" {
		gate, closeGate, err := newGate(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeGate()
		svcOpts = append(svcOpts, service.WithFallback(gate))
	}
	svc := service.NewQueryService(svcOpts...)

	if _, err := svc.LoadFrom(ctx, dataset.FileSource{Path: opts.file}); err != nil {
		return err
	}

	useColors := !opts.noColor
	if question != "" {
		_, err := ask(ctx, svc, question, models.ConversationContext{}, out, useColors)
		return err
	}
	return repl(ctx, svc, in, out, useColors)
}

// repl answers one question per input line until EOF.
func repl(ctx context.Context, svc *service.QueryService, in io.Reader, out io.Writer, useColors bool) error {
	var conv models.ConversationContext
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		next, err := ask(ctx, svc, line, conv, out, useColors)
		if err != nil && !errors.Is(err, service.ErrEmptyQuestion) && !errors.Is(err, fallback.ErrDailyBudgetExhausted) {
			return err
		}
		conv = next
	}
}

func ask(ctx context.Context, svc *service.QueryService, question string, conv models.ConversationContext, out io.Writer, useColors bool) (models.ConversationContext, error) {
	res, err := svc.Ask(ctx, service.AskRequest{Question: question, Context: conv})
	if res == nil {
		if errors.Is(err, service.ErrEmptyQuestion) {
			fmt.Fprintln(out, "Pergunta não fornecida!")
		}
		return conv, err
	}
	answer := res.Answer
	for answer.Status == models.AnswerPending {
		select {
		case <-ctx.Done():
			return conv, ctx.Err()
		case <-time.After(time.Second):
		}
		if answer, err = svc.Pending(ctx, res.Answer.Ticket); err != nil {
			return conv, err
		}
	}
	if rerr := renderAnswer(out, answer, useColors); rerr != nil {
		return conv, rerr
	}
	return res.Context, err
}

func newGate(ctx context.Context, cfg *config.Config) (*fallback.Gate, func(), error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.Gemini.APIKey))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	logger := zap.NewNop()
	coordinator := fallback.NewCoordinator(
		fallback.NewGeminiGenerator(client, cfg.Gemini.Model, logger),
		fallback.NewRateLimiter(cfg.RateWindows()),
		fallback.WithRetryConfig(cfg.RetryConfig()),
		fallback.WithGenerationTimeout(cfg.Fallback.Timeout),
	)
	gate := fallback.NewGate(fallback.NewMemoryCache(cfg.Fallback.CacheMaxEntries), coordinator,
		fallback.WithCacheTTL(cfg.Fallback.CacheTTL),
		fallback.WithFallbackWait(cfg.Fallback.Wait),
		fallback.WithMaxPromptChars(cfg.Fallback.MaxPromptChars),
	)
	return gate, func() {
		coordinator.Close()
		client.Close()
	}, nil
}
