package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cardforge/pkg/table"
)

// columnsCommand creates the columns command that lists a data file's header.
func (c *CLI) columnsCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "columns <data>",
		Short:             "List the column names of a CSV or Excel file",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDataFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			cols, err := table.Columns(args[0])
			if err != nil {
				return err
			}
			if len(cols) == 0 {
				printInfo("No columns found")
				return nil
			}
			for i, col := range cols {
				fmt.Println(StyleNumber.Render(fmt.Sprintf("%3d", i)) + "  " + StyleValue.Render(col))
			}
			return nil
		},
	}
}
