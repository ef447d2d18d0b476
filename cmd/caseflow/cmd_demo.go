package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fernwell/caseflow/internal/models"
)

// demoSamples are the six canned messages the demo runs, one per
// emotion/intent combination the pipeline is built around. The order
// IDs match the seeded demo purchase records.
var demoSamples = []string{
	// Angry complaint, damaged in transit
	"Your 'AeroBlend' blender (order ORD-7842-CA, bought on Sep 30, 2025) arrived with a cracked jar and FedEx shows 'delayed, damaged in transit.' I've emailed twice and got nothing. This is ridiculous. Either refund me or I'm filing a claim with my bank.",
	// Confused inquiry, possible duplicate charge
	"I don't understand my bill. I was charged $19.99 twice on Oct 1 for the 'Pro Notes' subscription. I chatted last week, ticket TCK-2025-10-06-C8, but I still don't get what happened. Can someone explain in plain English?",
	// Missing part, polite
	"Hello! My CityLite Laptop Stand arrived (order US-55291) but there's no hex key in the box. Everything else seems fine. Could you send the tool or advise? Thank you!",
	// Cancellation threat
	"I'm done. The StreamGo+ app keeps buffering. I pay for Premium and can't even watch soccer. If this isn't fixed today, I'm canceling and switching to a competitor.",
	// Product defect
	"My CleanTrail Cordless Vacuum (order CA-993144) runs 5 minutes and dies, even after a full charge overnight. I bought it 3 weeks ago. Serial CT-V11-9F2. What can we do? I can send a video.",
	// Praise
	"Just wanted to say thank you. Janelle from support fixed my shipping address mess yesterday and got my Aurora Desk Lamp delivered this morning. Perfect service!",
}

func newDemoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run six sample messages through the full pipeline",
		Long: `Triage six canned customer messages covering the main tone and
intent combinations, printing the classification, executed actions,
and drafted reply for each. Orders are looked up in the built-in demo
records; nothing is persisted.

Pass --polish to also reword the replies with the configured LLM
provider.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			usePolish, _ := cmd.Flags().GetBool("polish")

			engine, cleanup, err := buildEngine(root, usePolish, false)
			if err != nil {
				return err
			}
			defer cleanup()

			type outcome struct {
				Input  string              `json:"input"`
				Result models.TriageResult `json:"result"`
				Reply  string              `json:"reply"`
			}
			var outcomes []outcome

			ctx := cmd.Context()
			for i, text := range demoSamples {
				res, err := engine.Process(ctx, text)
				if err != nil {
					return fmt.Errorf("sample %d failed: %w", i+1, err)
				}
				reply := engine.Respond(ctx, res)

				if jsonOut {
					outcomes = append(outcomes, outcome{Input: text, Result: res, Reply: reply})
					continue
				}

				fmt.Printf("=== Sample %d ===\n", i+1)
				fmt.Printf("Input: %s\n\n", text)
				printResult(res, reply)
				fmt.Println(strings.Repeat("-", 60))
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(outcomes)
			}
			return nil
		},
	}

	cmd.Flags().Bool("polish", false, "Rewrite the replies with the configured LLM provider")

	return cmd
}
