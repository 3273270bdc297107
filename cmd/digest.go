package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dhcgn/llm-assist/config"
	"github.com/dhcgn/llm-assist/tools"
)

func newDigestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "digest",
		Short: "Summarize recent mail or search it by keyword, then ask questions about it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, config.ToolDigest)
			if err != nil {
				return err
			}
			defer a.close()

			creds := []config.Credential{config.CredentialLLM}
			if a.cfg.MboxPath == "" {
				creds = append(creds, config.CredentialEmail, config.CredentialEmailPassword)
			}
			if err := a.cfg.Require(creds...); err != nil {
				return err
			}

			mail, err := a.mailReader()
			if err != nil {
				return err
			}
			completer, err := a.completer()
			if err != nil {
				return err
			}

			a.logger.Info("starting digest", "mbox", a.cfg.MboxPath, "imap", a.cfg.IMAPHost, "model", completer.Model())
			return a.run(cmd.Context(), tools.Digest(mail, completer, a.progress, a.logger))
		},
	}
}
