package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <collection> [prefix]",
		Short: "List stored object keys of a collection",
		Example: `  assetctl list photos
  assetctl list photos 3/f`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.schema(args[0])
			if err != nil {
				return err
			}
			store, err := a.storeFor(cmd.Context())
			if err != nil {
				return err
			}

			prefix := s.Table() + "/"
			if len(args) == 2 {
				prefix += args[1]
			}
			keys, err := store.List(cmd.Context(), prefix)
			if err != nil {
				return err
			}
			for _, key := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), key)
			}
			return nil
		},
	}
}
