package main

import (
	"errors"
	"io"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/academic"
	"github.com/trezcool/shule/core/finance"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db     *sqlx.DB
	conf   *core.Config
	finSvc finance.Service
	acaSvc academic.Service
	out    io.Writer
}

// rootCmd builds the command tree; each call returns fresh flags.
func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "shule-admin",
		Short:         "Shule administration",
		Long:          "Run migrations, mint tokens and review budgets and class rankings.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = cmd.Help()
			return errHelp
		},
	}
	root.SetOut(cli.out)
	root.SetErr(cli.out)

	root.AddCommand(
		cli.migrateCmd(),
		cli.tokenCmd(),
		cli.budgetsCmd(),
		cli.rankingCmd(),
	)
	return root
}

func (cli *commandLine) run(args []string) error {
	root := cli.rootCmd()
	root.SetArgs(args)
	return root.Execute()
}
