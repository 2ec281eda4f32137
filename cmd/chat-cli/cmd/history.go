package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/nfrund/gobychat/internal/domain"
	"github.com/nfrund/gobychat/internal/router"
	"github.com/nfrund/gobychat/internal/storage"
)

var (
	dataDir       string
	historyFormat string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Read stored conversations",
	Long: `The history command reads conversations straight from a badger data
directory, oldest first. Badger holds an exclusive lock on its directory, so
stop the server (or point at a copy) before reading.

Examples:
  chat-cli history public
  chat-cli history between alice bob --format json
  chat-cli history group 3 --data-dir /var/lib/gobychat`,
}

// openRouter opens the store read path. The router is never asked to deliver.
func openRouter() (*router.Router, func() error, error) {
	store, err := storage.Open(dataDir, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", dataDir, err)
	}
	return router.New(store, store, nil), store.Close, nil
}

// withRouter runs fn against the data directory and closes it afterwards.
func withRouter(fn func(r *router.Router) error) error {
	if err := checkFormat(historyFormat); err != nil {
		return err
	}
	r, closeStore, err := openRouter()
	if err != nil {
		return err
	}
	defer closeStore()
	return fn(r)
}

var historyPublicCmd = &cobra.Command{
	Use:   "public",
	Short: "Show the public timeline",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRouter(func(r *router.Router) error {
			msgs, err := r.PublicHistory(cmd.Context())
			if err != nil {
				return err
			}
			return printMessages(cmd.OutOrStdout(), msgs)
		})
	},
}

var historyBetweenCmd = &cobra.Command{
	Use:   "between <user> <user>",
	Short: "Show the private conversation of two users",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRouter(func(r *router.Router) error {
			msgs, err := r.History(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printMessages(cmd.OutOrStdout(), msgs)
		})
	},
}

var historyGroupCmd = &cobra.Command{
	Use:   "group <group-id>",
	Short: "Show a group's conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		groupID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || groupID <= 0 {
			return fmt.Errorf("group id must be a positive integer, got %q", args[0])
		}
		return withRouter(func(r *router.Router) error {
			views, err := r.GroupHistory(cmd.Context(), groupID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if historyFormat == formatJSON {
				return renderJSON(out, views)
			}
			if len(views) == 0 {
				fmt.Fprintln(out, "No messages")
				return nil
			}
			renderTable(out, []string{"Time", "Group", "From", "Message"},
				lo.Map(views, func(v domain.GroupMessageView, _ int) []string {
					return []string{formatTime(v.Timestamp), v.GroupName, v.SenderName, truncate(body(v.Message, v.Media), 60)}
				}))
			return nil
		})
	},
}

func printMessages(w io.Writer, msgs []domain.Message) error {
	if historyFormat == formatJSON {
		return renderJSON(w, msgs)
	}
	if len(msgs) == 0 {
		fmt.Fprintln(w, "No messages")
		return nil
	}
	renderTable(w, []string{"Time", "From", "To", "Message"},
		lo.Map(msgs, func(m domain.Message, _ int) []string {
			to := m.ReceiverName
			if to == "" {
				to = "*"
			}
			return []string{formatTime(m.Timestamp), m.SenderName, to, truncate(body(m.Message, m.Media), 60)}
		}))
	return nil
}

// body falls back to the media reference for media-only messages.
func body(text, media string) string {
	if text == "" && media != "" {
		return "[media] " + media
	}
	return text
}

func defaultDataDir() string {
	if dir := os.Getenv("BADGER_DIR"); dir != "" {
		return dir
	}
	return "data/chat"
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyPublicCmd, historyBetweenCmd, historyGroupCmd)
	historyCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", defaultDataDir(), "Badger data directory")
	historyCmd.PersistentFlags().StringVarP(&historyFormat, "format", "f", formatTable, "Output format (table, json)")
}
