package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/shule/core"
)

func (cli *commandLine) rankingCmd() *cobra.Command {
	var classID string
	var period core.Period

	cmd := &cobra.Command{
		Use:   "ranking",
		Short: "Show a class ranking for an academic period",
		RunE: func(cmd *cobra.Command, _ []string) error {
			classID = core.CleanString(classID)
			period.Clean()
			if classID == "" || period.AcademicYear == "" {
				_ = cmd.Usage()
				return errHelp
			}
			if !core.IsValidAcademicYear(period.AcademicYear) {
				return errors.Errorf("invalid academic year %q", period.AcademicYear)
			}
			if period.Term != "" && !core.IsValidTerm(period.Term) {
				return errors.Errorf("invalid term %q", period.Term)
			}

			ranking, err := cli.acaSvc.GetClassRanking(context.Background(), classID, period)
			if err != nil {
				return errors.Wrap(err, "ranking class")
			}

			title := fmt.Sprintf("Class %s, %s", ranking.ClassID, ranking.Period.AcademicYear)
			if ranking.Period.Term != "" {
				title += " " + ranking.Period.Term
			}
			if ranking.TotalStudents == 0 {
				_, err = fmt.Fprintf(cli.out, "%s\n%s\n", renderTitle(title), dimStyle.Render("no graded students"))
				return err
			}

			tbl := table{headers: []string{"Rank", "Student", "Marks", "Percentage", "Grade"}}
			for _, entry := range ranking.Students {
				name := entry.Name
				if name == "" {
					name = entry.StudentID
				}
				tbl.rows = append(tbl.rows, []string{
					strconv.Itoa(entry.Rank),
					name,
					fmt.Sprintf("%g/%g", entry.TotalMarksObtained, entry.TotalMarksPossible),
					fmt.Sprintf("%.2f", entry.Percentage),
					entry.Grade,
				})
			}
			_, err = fmt.Fprintf(cli.out, "%s\n%s\n", renderTitle(title), renderTable(tbl))
			return err
		},
	}
	cmd.Flags().StringVar(&classID, "class", "", "Class ID")
	cmd.Flags().StringVar(&period.AcademicYear, "year", "", "Academic year, e.g. 2024-2025")
	cmd.Flags().StringVar(&period.Term, "term", "", "Term (TERM1, TERM2 or TERM3), whole year when empty")
	return cmd
}
