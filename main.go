package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dhcgn/llm-assist/cmd"
	"github.com/dhcgn/llm-assist/config"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "llm-assist",
		Short:         "Interactive assistants that combine a chat model with mail and Notion",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	config.RegisterFlags(rootCmd)
	rootCmd.AddCommand(cmd.Commands()...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
