package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hmoss/pocketwatch/internal/cli"
	"github.com/hmoss/pocketwatch/internal/model"
)

func potsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pots",
		Short: "List the savings pots on an account",
		RunE:  runPots,
	}
	cmd.Flags().StringP("account", "a", "", "Account id (default: first open account)")
	cmd.Flags().Bool("all", false, "Include deleted pots")
	return cmd
}

func runPots(cmd *cobra.Command, _ []string) error {
	accountFlag, _ := cmd.Flags().GetString("account")
	includeDeleted, _ := cmd.Flags().GetBool("all")

	client, err := newClient()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	accountID, err := resolveAccount(ctx, client, accountFlag)
	if err != nil {
		return err
	}

	pots, err := client.ListPots(ctx, accountID)
	if err != nil {
		return err
	}

	fmt.Println(cli.FormatTitle("Pots"))
	shown := 0
	for _, pot := range pots {
		if pot.Deleted && !includeDeleted {
			continue
		}
		shown++

		line := fmt.Sprintf("%s %-20s %s", cli.PotIcon, pot.Name,
			cli.BoldStyle.Render(model.FormatMoney(pot.Balance, pot.Currency)))
		if pot.GoalAmount > 0 {
			line += cli.SubtleStyle.Render(fmt.Sprintf("  (goal %s)", model.FormatMoney(pot.GoalAmount, pot.Currency)))
		}
		if pot.Locked {
			line += " 🔒"
		}
		fmt.Println(line)
	}

	if shown == 0 {
		fmt.Println(cli.FormatInfo("No pots on this account"))
	}
	return nil
}
