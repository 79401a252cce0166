package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-intake/internal/server"
	"github.com/jonathan/resume-intake/internal/types"
)

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create an account",
	Long:  "Create an account directly in the database. Use it to bootstrap the first administrator.",
	RunE:  runCreateUser,
}

var (
	createName     string
	createEmail    string
	createPassword string
	createRole     string
)

func init() {
	createUserCmd.Flags().StringVar(&createName, "name", "", "Full name (required)")
	createUserCmd.Flags().StringVar(&createEmail, "email", "", "Email address (required)")
	createUserCmd.Flags().StringVar(&createPassword, "password", "", "Password, at least 8 characters (required)")
	createUserCmd.Flags().StringVar(&createRole, "role", string(types.RoleCandidate), "Role: candidate, recruiter or admin")
	_ = createUserCmd.MarkFlagRequired("name")
	_ = createUserCmd.MarkFlagRequired("email")
	_ = createUserCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(createUserCmd)
}

func runCreateUser(cmd *cobra.Command, _ []string) error {
	req := &types.CreateUserRequest{
		Name:     createName,
		Email:    createEmail,
		Password: createPassword,
		Role:     types.Role(createRole),
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid user: %w", err)
	}

	a, err := newApp(cmd.Context(), appOptions{database: true})
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := server.NewUserService(a.db, a.passwords).CreateUser(cmd.Context(), req)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Created %s account %s (%s)\n", user.Role, user.Email, user.ID)
	return nil
}
