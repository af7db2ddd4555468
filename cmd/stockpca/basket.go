package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBasketCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "basket",
		Short: "Print the default basket",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s (%d assets)\n", a.basket.Name, len(a.basket.Assets))
			for _, asset := range a.basket.Assets {
				fmt.Fprintf(w, "  %-14s %s\n", asset.Symbol, asset.Name)
			}
			return nil
		},
	}
}
