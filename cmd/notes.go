package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dhcgn/llm-assist/config"
	"github.com/dhcgn/llm-assist/notion"
	"github.com/dhcgn/llm-assist/tools"
)

func newNotesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notes",
		Short: "Generate documents or summarize Notion pages and save the result to Notion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, config.ToolNotes)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.cfg.Require(config.CredentialLLM, config.CredentialNotion); err != nil {
				return err
			}

			docs, err := notion.NewClient(a.cfg.NotionAPIKey, a.logger)
			if err != nil {
				return err
			}
			completer, err := a.completer()
			if err != nil {
				return err
			}

			a.logger.Info("starting notes", "model", completer.Model())
			return a.run(cmd.Context(), tools.Notes(docs, completer, a.progress, a.logger))
		},
	}
}
