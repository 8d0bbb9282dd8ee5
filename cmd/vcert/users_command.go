package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"vcert/internal/store"
)

func newUsersCommand(ctx *commandContext) *cobra.Command {
	var roleFilter string

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List registered users",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			var users []*store.User
			if roleFilter == "" {
				users, err = st.AllUsers(cmd.Context())
			} else {
				role, ok := store.ParseRole(roleFilter)
				if !ok {
					return fmt.Errorf("unknown role %q (expected user, operator, or admin)", roleFilter)
				}
				users, err = st.UsersByRole(cmd.Context(), role)
			}
			if err != nil {
				return err
			}
			if len(users) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No users found.")
				return nil
			}

			rows := make([][]string, 0, len(users))
			for _, u := range users {
				blocked := ""
				if u.IsBlocked {
					blocked = "yes"
				}
				rows = append(rows, []string{
					strconv.FormatInt(u.TelegramID, 10),
					u.DisplayName(),
					string(u.Role),
					blocked,
					u.CreatedAt.Format("2006-01-02"),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Telegram ID", "Name", "Role", "Blocked", "Registered"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&roleFilter, "role", "", "Filter by role (user, operator, admin)")

	return cmd
}
