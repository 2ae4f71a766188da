package main

import (
	"github.com/fatih/color"
	"github.com/mentorloop/reviewhub/internal/models"
	"github.com/mentorloop/reviewhub/internal/services"
	"github.com/spf13/cobra"
)

func newAddUserCmd(g *globalOptions) *cobra.Command {
	var req services.CreateUserRequest

	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := g.openDB(); err != nil {
				return err
			}
			user, err := services.NewUserService(models.GetDB()).Create(cmd.Context(), &req)
			if err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Created %s %s <%s> (id %d)\n", user.Role, user.Name, user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "Display name (required)")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&req.Role, "role", models.RoleMentee, "One of mentor, mentee, coordinator, hod")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
