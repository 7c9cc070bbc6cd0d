package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/elockenvitz/tesseract/internal/domain/model"
	"github.com/elockenvitz/tesseract/pkg/logger"
)

func feedCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "feed",
		Short: "Show the user's sectioned attention feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireUser(flags); err != nil {
				return err
			}
			return withEnvironment(cmd, flags, func(ctx context.Context, env *environment) error {
				feed, err := env.svc.Run(ctx, flags.userID, flags.window)
				if err != nil {
					return err
				}
				if flags.json {
					return printJSON(out(cmd), feed)
				}
				renderFeed(out(cmd), feed)
				return nil
			})
		},
	}
}

func boardCmd(flags *globalFlags) *cobra.Command {
	var portfolioID string
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show the NOW/SOON/AWARE dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireUser(flags); err != nil {
				return err
			}
			return withEnvironment(cmd, flags, func(ctx context.Context, env *environment) error {
				board, err := env.svc.Classify(ctx, flags.userID, flags.window, portfolioID)
				if err != nil {
					return err
				}
				if flags.json {
					return printJSON(out(cmd), board)
				}
				renderBoard(out(cmd), board)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&portfolioID, "portfolio", "p", "", "only show items scoped to this portfolio (unscoped items stay)")
	return cmd
}

func stateCmd(flags *globalFlags) *cobra.Command {
	var (
		until  string
		hours  int
		reason string
		note   string
	)
	cmd := &cobra.Command{
		Use:   "state <acknowledge|snooze|dismiss|dismiss_with_reason|mark_read> <attention-id>",
		Short: "Record a per-user state decision for an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(flags); err != nil {
				return err
			}
			d := model.Decision{Kind: model.DecisionKind(args[0]), Reason: reason, Note: note}
			switch {
			case until != "":
				t, err := time.Parse(time.RFC3339, until)
				if err != nil {
					return fmt.Errorf("--until: %w", err)
				}
				d.Until = &t
			case hours > 0:
				t := time.Now().Add(time.Duration(hours) * time.Hour)
				d.Until = &t
			}
			return withEnvironment(cmd, flags, func(ctx context.Context, env *environment) error {
				if !env.durable {
					env.log.Warn(ctx, "state_db_path is not set; the decision is kept in memory and lost on exit")
				}
				if err := env.svc.WriteDecision(ctx, flags.userID, args[1], d); err != nil {
					return err
				}
				env.log.Info(ctx, "decision recorded",
					logger.String("user_id", flags.userID),
					logger.String("attention_id", args[1]),
					logger.String("decision", string(d.Kind)),
				)
				if flags.json {
					return printJSON(out(cmd), map[string]string{"status": "recorded"})
				}
				_, err := fmt.Fprintf(out(cmd), "%s recorded for %s\n", d.Kind, args[1])
				return err
			})
		},
	}
	cmd.Flags().StringVar(&until, "until", "", "snooze until this RFC 3339 time")
	cmd.Flags().IntVar(&hours, "hours", 0, "snooze for this many hours")
	cmd.Flags().StringVar(&reason, "reason", "", "dismiss reason")
	cmd.Flags().StringVar(&note, "note", "", "free-form note")
	return cmd
}

func resolveCmd(flags *globalFlags) *cobra.Command {
	var hours int
	cmd := &cobra.Command{
		Use:   "resolve <mark_done|approve|reject|defer> <source-id>",
		Short: "Resolve the underlying record of an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(flags); err != nil {
				return err
			}
			action := model.ActionKind(args[0])
			return withEnvironment(cmd, flags, func(ctx context.Context, env *environment) error {
				env.log.Warn(ctx, "resolutions change the loaded fixtures only; the fixtures file is not rewritten and the change is lost on exit",
					logger.String("fixtures_path", env.cfg.FixturesPath),
				)
				if err := env.svc.Resolve(ctx, flags.userID, action, args[1], hours); err != nil {
					return err
				}
				if flags.json {
					return printJSON(out(cmd), map[string]string{"status": "resolved"})
				}
				_, err := fmt.Fprintf(out(cmd), "%s applied to %s\n", action, args[1])
				return err
			})
		},
	}
	cmd.Flags().IntVar(&hours, "hours", 0, "hours to defer by")
	return cmd
}
