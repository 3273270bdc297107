package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dhcgn/llm-assist/config"
	"github.com/dhcgn/llm-assist/model"
	"github.com/dhcgn/llm-assist/smtp"
	"github.com/dhcgn/llm-assist/tools"
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with the model and mail any reply",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, config.ToolChat)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.cfg.Require(config.CredentialLLM, config.CredentialEmail, config.CredentialEmailPassword); err != nil {
				return err
			}

			sender, err := smtp.NewSender(smtp.Options{
				Host:               a.cfg.SMTPHost,
				Port:               a.cfg.SMTPPort,
				Username:           a.cfg.Email,
				Password:           a.cfg.EmailPassword,
				InsecureSkipVerify: a.cfg.InsecureSkipVerify,
			}, a.logger)
			if err != nil {
				return model.NewError(model.KindConfiguration, "smtp", err)
			}
			completer, err := a.completer()
			if err != nil {
				return err
			}

			a.logger.Info("starting chat", "smtp", a.cfg.SMTPHost, "model", completer.Model())
			return a.run(cmd.Context(), tools.Chat(sender, completer, a.progress, a.logger))
		},
	}
}
