package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hmoss/pocketwatch/internal/cli"
	"github.com/hmoss/pocketwatch/internal/model"
)

func balanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show the current balance for an account",
		RunE:  runBalance,
	}
	cmd.Flags().StringP("account", "a", "", "Account id (default: first open account)")
	return cmd
}

func runBalance(cmd *cobra.Command, _ []string) error {
	accountFlag, _ := cmd.Flags().GetString("account")

	client, err := newClient()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	accountID, err := resolveAccount(ctx, client, accountFlag)
	if err != nil {
		return err
	}

	balance, err := client.GetBalance(ctx, accountID)
	if err != nil {
		return err
	}

	content := fmt.Sprintf("Balance:      %s\n", cli.BoldStyle.Render(model.FormatMoney(balance.Balance, balance.Currency))) +
		fmt.Sprintf("Total:        %s\n", model.FormatMoney(balance.TotalBalance, balance.Currency)) +
		fmt.Sprintf("Spent today:  %s", model.FormatMoney(balance.SpendToday, balance.Currency))
	fmt.Println(cli.RenderBox(cli.BankIcon+" "+accountID, content))

	return nil
}
