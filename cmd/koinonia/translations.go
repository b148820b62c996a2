package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newTranslationsCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "translations",
		Short: "List the translations in the verse store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(root.configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			resolver, closeDB, err := openResolver(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = closeDB() }()

			ts, err := resolver.Translations(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "CODE\tNAME\tLANGUAGE\tDIRECTION")
			for _, t := range ts {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.ShortName, t.FullName, t.Language, t.Direction)
			}
			return w.Flush()
		},
	}
}
