package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hmoss/pocketwatch/internal/cli"
	"github.com/hmoss/pocketwatch/internal/model"
	"github.com/hmoss/pocketwatch/internal/monzo"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List recent transactions",
		RunE:  runTransactions,
	}
	cmd.Flags().StringP("account", "a", "", "Account id (default: first open account)")
	cmd.Flags().IntP("limit", "n", 25, "Maximum number of transactions")
	cmd.Flags().String("since", "", "Only include transactions after this RFC3339 timestamp")
	cmd.Flags().Bool("json", false, "Output raw JSON")
	return cmd
}

func runTransactions(cmd *cobra.Command, _ []string) error {
	accountFlag, _ := cmd.Flags().GetString("account")
	limit, _ := cmd.Flags().GetInt("limit")
	since, _ := cmd.Flags().GetString("since")
	asJSON, _ := cmd.Flags().GetBool("json")

	client, err := newClient()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	accountID, err := resolveAccount(ctx, client, accountFlag)
	if err != nil {
		return err
	}

	txns, err := client.ListTransactions(ctx, accountID, monzo.ListTransactionsOptions{
		Limit: limit,
		Since: since,
	})
	if err != nil {
		return err
	}

	if asJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(txns)
	}

	fmt.Println(cli.FormatTitle(fmt.Sprintf("Transactions (%s)", accountID)))
	if len(txns) == 0 {
		fmt.Println(cli.FormatInfo("No transactions in this window"))
		return nil
	}

	for _, txn := range txns {
		fmt.Println(renderTransaction(txn))
	}
	return nil
}

func renderTransaction(txn model.Transaction) string {
	when := txn.Created
	if ts, err := txn.Timestamp(); err == nil {
		when = ts.Format("2006-01-02 15:04")
	}

	amount := "?"
	var minor int64
	if m, err := txn.MinorUnits(); err == nil {
		minor = m
		amount = model.FormatMoney(m, txn.Currency)
	}

	line := fmt.Sprintf("%s  %-30s %s",
		cli.SubtleStyle.Render(when),
		txn.MerchantName(),
		cli.FormatAmount(amount, minor))
	if txn.DeclineReason != "" {
		line += " " + cli.StyleError("declined: "+txn.DeclineReason)
	}
	return line
}
