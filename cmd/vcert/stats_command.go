package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show certificate and user totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			certs, err := st.StatusCounts(cmd.Context())
			if err != nil {
				return err
			}
			users, err := st.UserCounts(cmd.Context())
			if err != nil {
				return err
			}

			rows := [][]string{
				{"Certificates", strconv.Itoa(certs.Total)},
				{"  created today", strconv.Itoa(certs.CreatedToday)},
				{"  pending", strconv.Itoa(certs.Pending)},
				{"  approved", strconv.Itoa(certs.Approved)},
				{"  rejected", strconv.Itoa(certs.Rejected)},
				{"Users", strconv.Itoa(users.Total)},
				{"  operators", strconv.Itoa(users.Operators)},
				{"  blocked", strconv.Itoa(users.Blocked)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Metric", "Count"},
				rows,
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}
}
