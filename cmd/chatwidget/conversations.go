package main

import (
	"fmt"
	"io"

	"chatwidget/pkg/api"
	"chatwidget/pkg/config"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/spf13/cobra"
)

const updatedLayout = "2006-01-02 15:04"

func newConversationsCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "conversations",
		Short: "List the conversations stored by the conversation service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(&cliOptions{configPath: configPath})
			if err != nil {
				return err
			}
			convs, err := newServiceClient(cfg).ListConversations(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list conversations: %w", err)
			}
			writeConversations(cmd.OutOrStdout(), convs)
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", config.GetConfigPath(), "Path to the config file")
	return cmd
}

// writeConversations prints convs as a table, ready for --resume.
func writeConversations(w io.Writer, convs []api.Conversation) {
	if len(convs) == 0 {
		fmt.Fprintln(w, "No conversations.")
		return
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "Title", "Model", "Updated")
	for _, conv := range convs {
		updated := ""
		if !conv.UpdatedAt.IsZero() {
			updated = conv.UpdatedAt.Local().Format(updatedLayout)
		}
		t.Row(conv.ID, conv.Title, conv.ModelName, updated)
	}
	fmt.Fprintln(w, t.String())
}
