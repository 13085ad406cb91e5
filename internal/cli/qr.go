package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// ─── QR CLI ─────────────────────────────────────────────────────────────────
// Issue QR payloads and run operator scans against the award validator.

func init() {
	rootCmd.AddCommand(qrCmd)
	qrCmd.AddCommand(qrIssueCmd)
	qrCmd.AddCommand(qrScanCmd)

	qrIssueCmd.Flags().Bool("sealed", false, "Seal the payload with AES-256-GCM")
	qrScanCmd.Flags().StringSliceP("event", "e", nil, "Event ID to award (repeatable)")
	qrScanCmd.Flags().Bool("credit", false, "Credit the award if validation passes")
	qrScanCmd.Flags().Bool("ack-duplicates", false, "Acknowledge duplicate-award warnings and proceed")
}

var qrCmd = &cobra.Command{
	Use:   "qr",
	Short: "Issue and validate QR award payloads",
	Long: `Issue signed QR payloads for users, and validate operator scans
against the award validator.`,
}

// ─── qr issue ───────────────────────────────────────────────────────────────

var qrIssueCmd = &cobra.Command{
	Use:   "issue USER_ID",
	Short: "Issue a signed QR payload for a user",
	Long:  `Issue a signed QR payload. With --sealed the payload is encrypted.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runQRIssue,
}

func runQRIssue(cmd *cobra.Command, args []string) error {
	sealed, _ := cmd.Flags().GetBool("sealed")
	var resp struct {
		Payload string `json:"payload"`
	}
	err := postJSON(cmd, "/api/qr/issue", map[string]interface{}{
		"user_id": args[0],
		"sealed":  sealed,
	}, &resp)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, resp.Payload)
	return nil
}

// ─── qr scan ────────────────────────────────────────────────────────────────

var qrScanCmd = &cobra.Command{
	Use:   "scan OPERATOR_ID PAYLOAD",
	Short: "Validate a scanned QR payload",
	Long: `Run the full award validation pipeline on a scanned QR payload.
With --credit the award is credited when validation passes; duplicate
warnings then require --ack-duplicates to proceed.`,
	Args: cobra.ExactArgs(2),
	RunE: runQRScan,
}

// validationView mirrors the validator's HTTP response.
type validationView struct {
	Authorized bool `json:"authorized"`
	Issues     []struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"issues"`
	Warnings []struct {
		EventID    string    `json:"event_id"`
		OperatorID string    `json:"operator_id"`
		AwardedAt  time.Time `json:"awarded_at"`
	} `json:"warnings"`
	TargetUser *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"target_user"`
	ValidEvents []struct {
		EventID string `json:"event_id"`
	} `json:"valid_events"`
	InvalidEvents []struct {
		EventID string `json:"event_id"`
		Reason  string `json:"reason"`
	} `json:"invalid_events"`
	TotalPoints int64 `json:"total_points"`
}

func runQRScan(cmd *cobra.Command, args []string) error {
	events, _ := cmd.Flags().GetStringSlice("event")
	credit, _ := cmd.Flags().GetBool("credit")
	ack, _ := cmd.Flags().GetBool("ack-duplicates")

	body := map[string]interface{}{
		"operator_id":            args[0],
		"payload":                args[1],
		"event_ids":              events,
		"acknowledge_duplicates": ack,
	}

	if credit {
		var resp struct {
			Validation validationView `json:"validation"`
			Credit     *struct {
				TotalPoints int64 `json:"total_points"`
				Credited    []struct {
					EventID string `json:"event_id"`
					Points  int64  `json:"points"`
				} `json:"credited"`
			} `json:"credit"`
		}
		if err := postJSON(cmd, "/api/awards/credit", body, &resp); err != nil {
			return err
		}
		printValidation(resp.Validation)
		if resp.Credit != nil {
			for _, c := range resp.Credit.Credited {
				fmt.Fprintf(os.Stdout, "✅ Credited %d points for event %s\n", c.Points, c.EventID)
			}
		}
		return nil
	}

	var view validationView
	if err := postJSON(cmd, "/api/awards/validate", body, &view); err != nil {
		return err
	}
	printValidation(view)
	return nil
}

func printValidation(v validationView) {
	if v.Authorized {
		fmt.Fprintln(os.Stdout, "✅ Validation passed")
	} else {
		fmt.Fprintln(os.Stdout, "❌ Validation failed")
	}
	if v.TargetUser != nil {
		fmt.Fprintf(os.Stdout, "   Target: %s (%s)\n", v.TargetUser.Name, v.TargetUser.ID)
	}
	for _, is := range v.Issues {
		fmt.Fprintf(os.Stdout, "   ✗ %s: %s\n", is.Kind, is.Message)
	}
	for _, w := range v.Warnings {
		fmt.Fprintf(os.Stdout, "   ⚠️  Event %s already awarded by %s at %s\n",
			w.EventID, w.OperatorID, w.AwardedAt.Format(time.RFC3339))
	}
	for _, ee := range v.ValidEvents {
		fmt.Fprintf(os.Stdout, "   ✓ Event %s eligible\n", ee.EventID)
	}
	for _, ee := range v.InvalidEvents {
		fmt.Fprintf(os.Stdout, "   ✗ Event %s: %s\n", ee.EventID, ee.Reason)
	}
	if v.TotalPoints > 0 {
		fmt.Fprintf(os.Stdout, "   Total: %d points\n", v.TotalPoints)
	}
}
