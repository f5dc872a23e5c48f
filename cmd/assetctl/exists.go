package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newExistsCmd(a *app) *cobra.Command {
	var variant string
	cmd := &cobra.Command{
		Use:   "exists <collection> <filename>",
		Short: "Check that the original and variants of a filename are stored",
		Long: `Prints every object key the filename owns with "ok" or "missing".
Exits non-zero when any key is missing.`,
		Example: `  assetctl exists photos 3/f/3f2a9c0e5b7d4a1e8c6b2d9f0a1b2c3d.jpg
  assetctl exists photos 3/f/3f2a9c0e5b7d4a1e8c6b2d9f0a1b2c3d.jpg --variant thumb`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.schema(args[0])
			if err != nil {
				return err
			}
			keys, err := variantKeys(s, args[1], variant)
			if err != nil {
				return err
			}
			store, err := a.storeFor(cmd.Context())
			if err != nil {
				return err
			}

			missing := 0
			for _, key := range keys {
				ok, err := store.Exists(cmd.Context(), key)
				if err != nil {
					return err
				}
				state := "ok"
				if !ok {
					state = "missing"
					missing++
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s\n", state, key)
			}
			if missing > 0 {
				return fmt.Errorf("%d of %d objects missing", missing, len(keys))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&variant, "variant", "", "check a single variant (\"original\" for the upload)")
	return cmd
}
