package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/radif/media/internal/storage"
)

func newURLCmd(a *app) *cobra.Command {
	var variant string
	cmd := &cobra.Command{
		Use:   "url <collection> <filename>",
		Short: "Print the public URLs of a filename",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.schema(args[0])
			if err != nil {
				return err
			}
			keys, err := variantKeys(s, args[1], variant)
			if err != nil {
				return err
			}
			for _, key := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), storage.PublicURL(a.cfg.Storage.PublicBase, key))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&variant, "variant", "", "print a single variant (\"original\" for the upload)")
	return cmd
}
