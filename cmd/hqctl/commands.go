package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gosuda/hq/internal/domain"
)

var (
	loginTenant   string
	loginEmail    string
	loginPassword string

	moveTo    string
	moveIndex int

	deleteYes bool

	createStage string

	investorData domain.Investor

	missionData domain.Mission
	missionDue  string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Exchange credentials for an access token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if loginTenant == "" {
			return errors.New("--tenant is required")
		}
		tokens, err := newClient().Login(cmd.Context(), loginTenant, loginEmail, loginPassword)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "export HQ_TOKEN=%s\n", tokens.AccessToken)
		fmt.Fprintf(out, "# refresh token: %s\n", tokens.RefreshToken)
		return nil
	},
}

var boardCmd = &cobra.Command{
	Use:   "board <investors|missions>",
	Short: "Show a board, one column per stage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ops, err := lookupBoard(args[0])
		if err != nil {
			return err
		}
		return ops.show(cmd.Context(), newClient(), cmd.OutOrStdout())
	},
}

var moveCmd = &cobra.Command{
	Use:   "move <board> <card-id> --to <stage>",
	Short: "Move a card within or across stages",
	Long: `Moves a card to --to at position --index (0 is the top). Without --index
the card goes to the bottom of the stage. The card id may be shortened to any
unique prefix, as printed by "hqctl board".`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ops, err := lookupBoard(args[0])
		if err != nil {
			return err
		}
		return ops.move(cmd.Context(), newClient(), cmd.OutOrStdout(), args[1], moveTo, moveIndex)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <board> <card-id>",
	Short: "Delete a card after confirmation",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ops, err := lookupBoard(args[0])
		if err != nil {
			return err
		}
		return ops.remove(cmd.Context(), newClient(), cmd.OutOrStdout(), cmd.InOrStdin(), args[1], deleteYes)
	},
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a card",
}

var createInvestorCmd = &cobra.Command{
	Use:   "investor",
	Short: "Add an investor to the fundraising board",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return createCard(cmd.Context(), newClient(), cmd.OutOrStdout(), domain.InvestorBoard, createStage, investorData)
	},
}

var createMissionCmd = &cobra.Command{
	Use:   "mission",
	Short: "Add a mission to the task board",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		data := missionData
		if missionDue != "" {
			due, err := time.Parse(time.DateOnly, missionDue)
			if err != nil {
				return fmt.Errorf("--due: %w", err)
			}
			data.DueDate = &due
		}
		return createCard(cmd.Context(), newClient(), cmd.OutOrStdout(), domain.MissionBoard, createStage, data)
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")

	moveCmd.Flags().StringVar(&moveTo, "to", "", "destination stage")
	moveCmd.Flags().IntVar(&moveIndex, "index", -1, "destination position; bottom when omitted")
	_ = moveCmd.MarkFlagRequired("to")

	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "skip the confirmation prompt")

	createCmd.PersistentFlags().StringVar(&createStage, "stage", "", "stage of the new card; the board's first stage when empty")

	f := createInvestorCmd.Flags()
	f.StringVar(&investorData.Name, "name", "", "investor name")
	f.StringVar(&investorData.Firm, "firm", "", "firm")
	f.StringVar(&investorData.Email, "email", "", "email")
	f.StringVar(&investorData.Phone, "phone", "", "phone")
	f.StringVar(&investorData.Website, "website", "", "website")
	f.StringVar(&investorData.CheckSize, "check-size", "", "typical check size")
	f.StringVar(&investorData.Notes, "notes", "", "notes")

	f = createMissionCmd.Flags()
	f.StringVar(&missionData.Title, "title", "", "mission title")
	f.StringVar(&missionData.Description, "description", "", "description")
	f.IntVar(&missionData.Priority, "priority", 0, "priority, higher is more urgent")
	f.StringVar(&missionDue, "due", "", "due date (YYYY-MM-DD)")

	createCmd.AddCommand(createInvestorCmd, createMissionCmd)
}
