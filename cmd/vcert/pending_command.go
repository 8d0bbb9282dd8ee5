package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newPendingCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List certificates awaiting a decision",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			pending, err := st.PendingCertificates(cmd.Context())
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No pending certificates.")
				return nil
			}

			rows := make([][]string, 0, len(pending))
			for _, cert := range pending {
				operator := strconv.FormatInt(cert.OperatorID, 10)
				if u, err := st.UserByID(cmd.Context(), cert.OperatorID); err == nil {
					operator = u.DisplayName()
				}
				rows = append(rows, []string{
					strconv.FormatInt(cert.ID, 10),
					cert.CarBrand + " " + cert.CarModel,
					cert.LicensePlate,
					cert.VIN,
					operator,
					cert.CreatedAt.Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Vehicle", "Plate", "VIN", "Operator", "Created"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}
