package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/e-serbisyo/engage/internal/domain"
)

// ─── Ledger CLI ─────────────────────────────────────────────────────────────
// Points, profiles, badges, and the leaderboard, served by the daemon's
// /api/ledger endpoints.

func init() {
	rootCmd.AddCommand(awardCmd)
	rootCmd.AddCommand(dailyCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(badgesCmd)
	rootCmd.AddCommand(leaderboardCmd)

	historyCmd.Flags().IntP("limit", "n", 20, "Number of activities to show")
	leaderboardCmd.Flags().IntP("limit", "n", 10, "Number of users to show")
}

// awardResult mirrors the ledger's award response.
type awardResult struct {
	PointsAwarded int64                    `json:"points_awarded"`
	BasePoints    int64                    `json:"base_points"`
	BonusPoints   int64                    `json:"bonus_points"`
	BonusMessage  string                   `json:"bonus_message"`
	NewTotal      int64                    `json:"new_total"`
	Level         int                      `json:"level"`
	LeveledUp     bool                     `json:"leveled_up"`
	NewlyUnlocked []domain.BadgeDefinition `json:"newly_unlocked"`
}

func printAwardResult(res awardResult) {
	fmt.Fprintf(os.Stdout, "✅ %d points awarded (total: %d, level %d)\n", res.PointsAwarded, res.NewTotal, res.Level)
	if res.BonusMessage != "" {
		fmt.Fprintf(os.Stdout, "   🎁 %s (+%d)\n", res.BonusMessage, res.BonusPoints)
	}
	if res.LeveledUp {
		fmt.Fprintf(os.Stdout, "   ⬆️  Leveled up to %d!\n", res.Level)
	}
	for _, b := range res.NewlyUnlocked {
		fmt.Fprintf(os.Stdout, "   🏅 Badge unlocked: %s (%s)\n", b.Title, b.Rarity)
	}
}

// ─── award ──────────────────────────────────────────────────────────────────

var awardCmd = &cobra.Command{
	Use:   "award USER_ID ACTIVITY_TYPE",
	Short: "Award points for an activity",
	Long: `Award points to a user for a qualifying activity.

Activity types: signup, join_event, create_event, complete_event,
daily_login, share_event, refer_user, community_service.`,
	Args: cobra.ExactArgs(2),
	RunE: runAward,
}

func runAward(cmd *cobra.Command, args []string) error {
	var res awardResult
	err := postJSON(cmd, "/api/ledger/award", map[string]string{
		"user_id":       args[0],
		"activity_type": args[1],
	}, &res)
	if err != nil {
		return err
	}
	printAwardResult(res)
	return nil
}

// ─── daily ──────────────────────────────────────────────────────────────────

var dailyCmd = &cobra.Command{
	Use:   "daily USER_ID",
	Short: "Claim the daily login bonus",
	Long:  `Claim the once-per-day login bonus for a user.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDaily,
}

func runDaily(cmd *cobra.Command, args []string) error {
	var res awardResult
	err := postJSON(cmd, "/api/ledger/daily-login", map[string]string{
		"user_id": args[0],
	}, &res)
	if err != nil {
		return err
	}
	printAwardResult(res)
	return nil
}

// ─── profile ────────────────────────────────────────────────────────────────

var profileCmd = &cobra.Command{
	Use:   "profile USER_ID",
	Short: "Show a user's engagement profile",
	Long:  `Show a user's points, level, and badge progress.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runProfile,
}

func runProfile(cmd *cobra.Command, args []string) error {
	var view struct {
		User   domain.UserAccount  `json:"user"`
		Level  domain.LevelInfo    `json:"level"`
		Badges []domain.BadgeState `json:"badges"`
	}
	if err := getJSON(cmd, "/api/ledger/profile/"+args[0], &view); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "%s (%s)\n", view.User.Name, view.User.ID)
	fmt.Fprintf(os.Stdout, "  Level %d — %d points (%d to next level)\n",
		view.Level.Level, view.Level.Points, view.Level.PointsToNext)
	fmt.Fprintf(os.Stdout, "  This month: %d points\n", view.User.MonthlyPoints)
	fmt.Fprintln(os.Stdout, "  Badges:")
	for _, b := range view.Badges {
		mark := " "
		if b.Unlocked {
			mark = "🏅"
		}
		fmt.Fprintf(os.Stdout, "    %s %-12s %3.0f%%  (%d pts)\n",
			mark, b.Badge.Title, b.Progress*100, b.Badge.Threshold)
	}
	return nil
}

// ─── history ────────────────────────────────────────────────────────────────

var historyCmd = &cobra.Command{
	Use:   "history USER_ID",
	Short: "Show a user's recent activity",
	Long:  `Show a user's most recent point-earning activities.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	var resp struct {
		Activities []domain.ActivityRecord `json:"activities"`
	}
	if err := getJSON(cmd, fmt.Sprintf("/api/ledger/history/%s?limit=%d", args[0], limit), &resp); err != nil {
		return err
	}
	if len(resp.Activities) == 0 {
		fmt.Fprintln(os.Stdout, "No activity yet.")
		return nil
	}
	for _, a := range resp.Activities {
		fmt.Fprintf(os.Stdout, "  %s  %-18s %+d\n",
			a.CreatedAt.Format("2006-01-02 15:04"), a.Type, a.TotalPoints())
	}
	return nil
}

// ─── badges ─────────────────────────────────────────────────────────────────

var badgesCmd = &cobra.Command{
	Use:   "badges",
	Short: "Show the badge catalog",
	Long:  `Show all badges and the point thresholds that unlock them.`,
	RunE:  runBadges,
}

func runBadges(cmd *cobra.Command, args []string) error {
	var resp struct {
		Badges []domain.BadgeDefinition `json:"badges"`
	}
	if err := getJSON(cmd, "/api/ledger/badges", &resp); err != nil {
		return err
	}
	for _, b := range resp.Badges {
		fmt.Fprintf(os.Stdout, "  %-12s %6d pts  %-10s %s\n", b.Title, b.Threshold, b.Rarity, b.Description)
	}
	return nil
}

// ─── leaderboard ────────────────────────────────────────────────────────────

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the top users by points",
	Long:  `Show the community leaderboard ranked by all-time points.`,
	RunE:  runLeaderboard,
}

func runLeaderboard(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	var resp struct {
		Leaderboard []domain.UserAccount `json:"leaderboard"`
	}
	if err := getJSON(cmd, fmt.Sprintf("/api/ledger/leaderboard?limit=%d", limit), &resp); err != nil {
		return err
	}
	for i, u := range resp.Leaderboard {
		name := u.Name
		if name == "" {
			name = u.ID
		}
		fmt.Fprintf(os.Stdout, "  %2d. %-24s %6d pts  (level %d)\n", i+1, name, u.Points, u.Level)
	}
	if len(resp.Leaderboard) == 0 {
		fmt.Fprintln(os.Stdout, "No users yet.")
	}
	return nil
}
