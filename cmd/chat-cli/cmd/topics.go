package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/nfrund/gobychat/internal/topicmgr"
	_ "github.com/nfrund/gobychat/internal/topics" // registers the chat events
)

var (
	topicsFormat string
	topicsScope  string
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Explore the event bus topics",
	Long: `The topics command lists and describes the topics the server publishes
presence updates, session lifecycle events and chat deliveries on.

Examples:
  chat-cli topics list
  chat-cli topics list --scope framework --format json
  chat-cli topics get chat.private`,
}

// topicView is the JSON shape of a topic.
type topicView struct {
	Name        string         `json:"name"`
	Scope       string         `json:"scope"`
	Module      string         `json:"module,omitempty"`
	Description string         `json:"description"`
	Pattern     string         `json:"pattern"`
	Example     string         `json:"example"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func newTopicView(t topicmgr.Topic) topicView {
	return topicView{
		Name:        t.Name(),
		Scope:       string(t.Scope()),
		Module:      t.Module(),
		Description: t.Description(),
		Pattern:     t.Pattern(),
		Example:     t.Example(),
		Metadata:    t.Metadata(),
	}
}

var topicsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all registered topics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(topicsFormat); err != nil {
			return err
		}

		manager := topicmgr.Default()
		list := manager.List()
		if topicsScope != "" {
			scope, err := parseScope(topicsScope)
			if err != nil {
				return err
			}
			list = manager.ListByScope(scope)
		}
		sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })

		out := cmd.OutOrStdout()
		if topicsFormat == formatJSON {
			return renderJSON(out, map[string]any{
				"topics": lo.Map(list, func(t topicmgr.Topic, _ int) topicView { return newTopicView(t) }),
				"count":  len(list),
			})
		}
		if len(list) == 0 {
			fmt.Fprintln(out, "No topics found")
			return nil
		}
		renderTable(out, []string{"Name", "Scope", "Description", "Example"},
			lo.Map(list, func(t topicmgr.Topic, _ int) []string {
				return []string{t.Name(), string(t.Scope()), truncate(t.Description(), 50), truncate(t.Example(), 40)}
			}))
		return nil
	},
}

var topicsGetCmd = &cobra.Command{
	Use:   "get <topic-name>",
	Short: "Show one topic in detail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(topicsFormat); err != nil {
			return err
		}
		topic, err := topicmgr.Default().Lookup(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if topicsFormat == formatJSON {
			return renderJSON(out, newTopicView(topic))
		}
		fmt.Fprintf(out, "Name:        %s\n", topic.Name())
		fmt.Fprintf(out, "Scope:       %s\n", topic.Scope())
		fmt.Fprintf(out, "Description: %s\n", topic.Description())
		fmt.Fprintf(out, "Pattern:     %s\n", topic.Pattern())
		fmt.Fprintf(out, "Example:     %s\n", topic.Example())

		meta := topic.Metadata()
		if len(meta) > 0 {
			fmt.Fprintln(out, "Metadata:")
			keys := lo.Keys(meta)
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(out, "  %s: %v\n", k, meta[k])
			}
		}
		return nil
	},
}

func parseScope(s string) (topicmgr.TopicScope, error) {
	switch strings.ToLower(s) {
	case "framework":
		return topicmgr.ScopeFramework, nil
	case "module":
		return topicmgr.ScopeModule, nil
	default:
		return "", fmt.Errorf("invalid scope %q, valid scopes: framework, module", s)
	}
}

func init() {
	rootCmd.AddCommand(topicsCmd)
	topicsCmd.AddCommand(topicsListCmd, topicsGetCmd)
	topicsCmd.PersistentFlags().StringVarP(&topicsFormat, "format", "f", formatTable, "Output format (table, json)")
	topicsListCmd.Flags().StringVarP(&topicsScope, "scope", "s", "", "Filter topics by scope (framework, module)")
}
