package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hmoss/pocketwatch/internal/agent"
	"github.com/hmoss/pocketwatch/internal/analysis"
	"github.com/hmoss/pocketwatch/internal/cli"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve account and analysis tools to agents over WebSocket",
		Long: `Start a WebSocket server exposing the account, transaction, and
analysis operations as tools a conversational agent can call. Each
frame is a JSON request {"id", "tool", "input"} answered by
{"id", "result"} or {"id", "error"}; the built-in list_tools tool
describes the available surface.`,
		RunE: runServe,
	}
	cmd.Flags().String("addr", ":8765", "Listen address")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("addr")

	client, err := newClient()
	if err != nil {
		return err
	}

	cfg := analysisConfigFromViper()
	registry := agent.NewRegistry()
	registry.RegisterAll(agent.NewTools(client, cfg).All()...)

	fmt.Println(cli.FormatTitle("Agent tool server"))
	fmt.Println(cli.FormatInfo(fmt.Sprintf("Listening on ws://%s/ws", displayAddr(addr))))

	return agent.NewServer(registry).Run(cmd.Context(), addr)
}

// analysisConfigFromViper reads analysis settings from the config file,
// keeping defaults for anything unset.
func analysisConfigFromViper() analysis.Config {
	cfg := analysis.DefaultConfig()
	if v := viper.GetInt("analysis.lookback_days"); v > 0 {
		cfg.LookbackDays = v
	}
	if v := viper.GetInt("analysis.min_occurrences"); v > 0 {
		cfg.MinOccurrences = v
	}
	if v := viper.GetInt("analysis.min_transactions"); v > 0 {
		cfg.MinTransactions = v
	}
	if v := viper.GetFloat64("analysis.amount_tolerance"); v > 0 {
		cfg.AmountTolerancePct = v
	}
	return cfg
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
