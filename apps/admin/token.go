package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/shule/core/auth"
)

func (cli *commandLine) tokenCmd() *cobra.Command {
	var subject, name, email string
	var roles []string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an API token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if subject == "" || len(roles) == 0 {
				_ = cmd.Usage()
				return errHelp
			}
			claims, err := auth.NewClaims(cli.conf, subject, name, email, roles...)
			if err != nil {
				return err
			}
			token, err := auth.GenerateToken(claims, cli.conf)
			if err != nil {
				return errors.Wrap(err, "generating token")
			}
			_, err = fmt.Fprintln(cli.out, token)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "Staff ID, or student ID for students")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringSliceVar(&roles, "role", nil, fmt.Sprintf("Role(s), one of %v", auth.AllRoles))
	return cmd
}
