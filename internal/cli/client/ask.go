package client

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// AskAPIRequest represents the ask API request.
type AskAPIRequest struct {
	Question     string `json:"question"`
	ActiveNoteID string `json:"active_note_id,omitempty"`
}

// AskAPIResponse represents the ask API response.
type AskAPIResponse struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	var (
		noteID string
		stream bool
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question over your knowledge base",
		Long: `Answers a question using your captured items as context.

Examples:
  # Ask a question
  axon ask "what did I learn about connection pooling?"

  # Stream the answer as it is generated
  axon ask --stream "summarize my notes from yesterday"

  # Ask about a specific note
  axon ask --note <item_id> "what are the action items here?"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			if stream {
				return runAskStream(args[0], noteID)
			}
			return runAsk(args[0], noteID, outputJSON)
		},
	}

	cmd.Flags().StringVar(&noteID, "note", "", "Item ID to use as the active note")
	cmd.Flags().BoolVar(&stream, "stream", false, "Stream the answer as it is generated")

	return cmd
}

func runAsk(question, noteID string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	req := AskAPIRequest{Question: question, ActiveNoteID: noteID}

	resp, err := api.Post("/assist/ask", req)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	var askResp AskAPIResponse
	if err := json.Unmarshal(resp.Data, &askResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(askResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(askResp.Answer)
	printSources(askResp.Sources)

	return nil
}

func runAskStream(question, noteID string) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	req := AskAPIRequest{Question: question, ActiveNoteID: noteID}

	var sources []Source
	err = api.PostStream("/assist/ask/stream", req, func(event SSEEvent) error {
		switch event.Event {
		case "sources":
			if err := json.Unmarshal(event.Data, &sources); err != nil {
				return fmt.Errorf("failed to parse sources: %w", err)
			}
		case "delta":
			var delta struct {
				Text string `json:"text"`
			}
			if err := json.Unmarshal(event.Data, &delta); err != nil {
				return fmt.Errorf("failed to parse delta: %w", err)
			}
			fmt.Print(delta.Text)
		case "error":
			var errPayload struct {
				Error string `json:"error"`
			}
			_ = json.Unmarshal(event.Data, &errPayload)
			fmt.Fprintln(os.Stderr)
			return fmt.Errorf("stream error: %s", errPayload.Error)
		case "done":
			fmt.Println()
		}
		return nil
	})
	if err != nil {
		return err
	}

	printSources(sources)
	return nil
}

func printSources(sources []Source) {
	if len(sources) == 0 {
		return
	}
	fmt.Println("\nSources:")
	for _, s := range sources {
		fmt.Printf("  - %s (%s)\n", s.Title, s.ID)
	}
}
