package main

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/germanamz/koinonia/pkg/engine"
	"github.com/germanamz/koinonia/pkg/store"
)

func newTierCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tier <device> [tier]",
		Short: "Show a device's tier and monthly usage, or assign it a tier",
		Example: `  koinonia tier 3f2a9c
  koinonia tier 3f2a9c ministry`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(root.configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if cfg.StoreDB == "" {
				return errors.New("store_db is not configured")
			}

			ctx := cmd.Context()
			st, err := store.Open(ctx, cfg.StoreDB)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			tiers := cfg.TierTable()
			device := args[0]
			if len(args) == 2 {
				if _, ok := tiers[args[1]]; !ok {
					return fmt.Errorf("unknown tier %q (have %s)", args[1], strings.Join(slices.Sorted(maps.Keys(tiers)), ", "))
				}
				if err := st.SetTier(ctx, device, args[1]); err != nil {
					return err
				}
			}

			name, err := st.Tier(ctx, device)
			if err != nil {
				return err
			}
			name = cmp.Or(name, engine.DefaultTier)
			used, err := st.Usage(ctx, device, store.Period(time.Now()))
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s, %d of %d messages this month\n",
				device, name, used, tiers[name].MessageLimit)
			return err
		},
	}
}
