package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/coursepath/planner/internal/application/command"
	"github.com/coursepath/planner/internal/application/query"
)

var showCodes bool

// showCmd prints a stored plan.
var showCmd = &cobra.Command{
	Use:   "show <username>",
	Short: "Show a student's stored plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		defer tw.Flush()

		if showCodes {
			view, err := a.planHandler().Handle(ctx, query.GetPlanQuery{Username: args[0]})
			if err != nil {
				return err
			}
			for grade := 9; grade <= 12; grade++ {
				cells := make([]string, 0, len(view.Grades[grade]))
				for _, c := range view.Grades[grade] {
					cells = append(cells, c.Code)
				}
				fmt.Fprintf(tw, "Grade %d\t%s\n", grade, strings.Join(cells, "\t"))
			}
			return nil
		}

		rows, err := a.tableHandler().Handle(ctx, query.GetPlanTableQuery{Username: args[0]})
		if err != nil {
			return err
		}
		for _, row := range rows {
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		return nil
	},
}

// replaceCmd swaps one course of a stored plan.
var replaceCmd = &cobra.Command{
	Use:   "replace <username> <current> <replacement>",
	Short: "Replace one course of a stored plan with another course of the same grade",
	Example: `  planner replace jdoe AMU2O AVI2O`,
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.replaceHandler().Handle(ctx, command.ReplaceCourseCommand{
			Username:    args[0],
			Current:     args[1],
			Replacement: args[2],
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "grade %d updated\n\n", res.Grade)
		printGrid(cmd.OutOrStdout(), res.Grid)
		return nil
	},
}

// counselorCmd looks up a guidance counselor.
var counselorCmd = &cobra.Command{
	Use:   "counselor <last-name>",
	Short: "Find the guidance counselor for a last name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := directory(cfg)
		if err != nil {
			return err
		}
		c, err := dir.Find(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", c.Name, c.Email)
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showCodes, "codes", false, "Show course codes instead of names")
}
