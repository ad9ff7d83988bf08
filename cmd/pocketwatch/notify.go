package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hmoss/pocketwatch/internal/cli"
)

func notifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify <title> <body>",
		Short: "Post a notification card into the app feed",
		Args:  cobra.ExactArgs(2),
		RunE:  runNotify,
	}
	cmd.Flags().StringP("account", "a", "", "Account id (default: first open account)")
	cmd.Flags().String("image", "", "Image URL for the card")
	return cmd
}

func runNotify(cmd *cobra.Command, args []string) error {
	accountFlag, _ := cmd.Flags().GetString("account")
	imageURL, _ := cmd.Flags().GetString("image")

	client, err := newClient()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	accountID, err := resolveAccount(ctx, client, accountFlag)
	if err != nil {
		return err
	}

	if err := client.CreateFeedItem(ctx, accountID, args[0], args[1], imageURL); err != nil {
		return err
	}

	fmt.Println(cli.FormatSuccess("Feed item created"))
	return nil
}
