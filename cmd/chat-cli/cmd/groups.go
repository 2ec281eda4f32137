package cmd

import (
	"fmt"
	"strconv"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/nfrund/gobychat/internal/domain"
	"github.com/nfrund/gobychat/internal/router"
)

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List the groups in a data directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRouter(func(r *router.Router) error {
			groups, err := r.Groups(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if historyFormat == formatJSON {
				return renderJSON(out, groups)
			}
			if len(groups) == 0 {
				fmt.Fprintln(out, "No groups")
				return nil
			}
			renderTable(out, []string{"ID", "Name", "Created"},
				lo.Map(groups, func(g domain.Group, _ int) []string {
					return []string{strconv.FormatInt(g.ID, 10), g.Name, formatTime(g.CreatedAt)}
				}))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(groupsCmd)
	groupsCmd.Flags().StringVarP(&dataDir, "data-dir", "d", defaultDataDir(), "Badger data directory")
	groupsCmd.Flags().StringVarP(&historyFormat, "format", "f", formatTable, "Output format (table, json)")
}
