package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hmoss/pocketwatch/internal/cli"
)

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List your bank accounts",
		RunE:  runAccounts,
	}
	cmd.Flags().Bool("all", false, "Include closed accounts")
	return cmd
}

func runAccounts(cmd *cobra.Command, _ []string) error {
	includeClosed, _ := cmd.Flags().GetBool("all")

	client, err := newClient()
	if err != nil {
		return err
	}

	accounts, err := client.ListAccounts(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Println(cli.FormatTitle("Accounts"))
	shown := 0
	for _, account := range accounts {
		if account.Closed && !includeClosed {
			continue
		}
		shown++

		desc := account.Description
		if desc == "" {
			desc = account.Type
		}
		line := fmt.Sprintf("%s %s  %s", cli.BankIcon, cli.BoldStyle.Render(desc), cli.SubtleStyle.Render(account.ID))
		if account.Closed {
			line += " " + cli.StyleWarning("(closed)")
		}
		fmt.Println(line)
	}

	if shown == 0 {
		fmt.Println(cli.FormatInfo("No accounts found"))
	}
	return nil
}
