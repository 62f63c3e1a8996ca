package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"opticart/internal/repository"
)

var pruneGrace time.Duration

// manage prune [--grace 24h]
var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired one-time codes and blacklist entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := boot()
		if err != nil {
			return err
		}
		defer e.close()

		otps, tokens, err := prune(cmd.Context(), repository.New(e.db), time.Now().Add(-pruneGrace))
		if err != nil {
			return err
		}
		e.log.Info("pruned expired records", "otps", otps, "blacklisted_tokens", tokens)
		return nil
	},
}

func init() {
	pruneCmd.Flags().DurationVar(&pruneGrace, "grace", 0, "keep records that expired less than this long ago")
}

// prune removes codes and blacklist rows that expired before cutoff. A
// blacklisted refresh token past its own expiry fails validation anyway.
func prune(ctx context.Context, repos *repository.Repositories, cutoff time.Time) (otps, tokens int64, err error) {
	otps, err = repos.OTPs.DeleteExpired(ctx, cutoff)
	if err != nil {
		return 0, 0, fmt.Errorf("prune otps: %w", err)
	}
	tokens, err = repos.Blacklist.DeleteExpired(ctx, cutoff)
	if err != nil {
		return otps, 0, fmt.Errorf("prune token blacklist: %w", err)
	}
	return otps, tokens, nil
}
