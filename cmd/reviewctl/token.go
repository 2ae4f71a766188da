package main

import (
	"fmt"

	"github.com/mentorloop/reviewhub/internal/models"
	"github.com/mentorloop/reviewhub/internal/services"
	"github.com/mentorloop/reviewhub/internal/utils"
	"github.com/spf13/cobra"
)

func newTokenCmd(g *globalOptions) *cobra.Command {
	var (
		email string
		hours int
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API token for an existing user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := g.openDB(); err != nil {
				return err
			}
			user, err := services.NewUserService(models.GetDB()).GetByEmail(cmd.Context(), email)
			if err != nil {
				return fmt.Errorf("user %s: %w", email, err)
			}
			if !user.IsActive {
				return fmt.Errorf("user %s is disabled", user.Email)
			}
			if hours <= 0 {
				hours = g.cfg.JWT.ExpireHour
			}
			token, err := utils.GenerateToken(user.ID, user.Email, user.Role, hours)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "User email (required)")
	cmd.Flags().IntVar(&hours, "hours", 0, "Token lifetime in hours (default jwt.expire_hour)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
