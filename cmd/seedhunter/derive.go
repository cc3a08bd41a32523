package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Amr-9/SeedHunter/internal/config"
	"github.com/Amr-9/SeedHunter/pkg/generator/seed"
	"github.com/Amr-9/SeedHunter/pkg/generator/solana"
)

func newDeriveCmd() *cobra.Command {
	var base, owner, seedText string

	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Print the address a seed derives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := solana.ParsePubkey(base)
			if err != nil {
				return fmt.Errorf("invalid base: %w", err)
			}
			o, err := solana.ParsePubkey(owner)
			if err != nil {
				return fmt.Errorf("invalid owner: %w", err)
			}
			s, err := seed.Parse(seedText)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), solana.DeriveAddress(b, s.Bytes(), o))
			return nil
		},
	}

	cmd.Flags().StringVarP(&base, "base", "b", config.DefaultBase, "Base account (base58)")
	cmd.Flags().StringVarP(&owner, "owner", "o", config.DefaultOwner, "Owner program (base58)")
	cmd.Flags().StringVar(&seedText, "seed", "", "16-character seed")
	_ = cmd.MarkFlagRequired("seed")

	return cmd
}
