package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// CaptureRequest represents the capture API request.
type CaptureRequest struct {
	Type      string   `json:"type"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	SourceURL string   `json:"source_url,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// BatchResult represents a single result in a batch operation.
type BatchResult struct {
	ID     string `json:"id,omitempty"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Title  string `json:"title,omitempty"`
}

// BatchResponse represents the response for a batch operation.
type BatchResponse struct {
	Results   []BatchResult `json:"results"`
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
}

const maxBatchSize = 100

// CaptureCmd creates the capture command.
func CaptureCmd() *cobra.Command {
	var (
		file      string
		itemType  string
		title     string
		sourceURL string
		tags      []string
		batch     bool
	)

	cmd := &cobra.Command{
		Use:     "capture",
		Short:   "Capture a note, link, or insight",
		Aliases: []string{"add"},
		Long: `Capture a knowledge item from JSON input (stdin or file) or raw text with flags.

Examples:
  # Capture from JSON on stdin
  echo '{"type":"note","title":"Test","content":"Remember this"}' | axon capture

  # Capture raw text from a file
  axon capture --file notes.md --type note --title "My Notes"

  # Capture a link with tags
  echo '{"type":"link","title":"Go blog","content":"Good post on generics","source_url":"https://go.dev/blog"}' | axon capture

  # Batch capture from JSONL (one JSON object per line)
  cat batch.jsonl | axon capture --batch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			if batch {
				return runBatchCapture(file, outputJSON)
			}
			return runCapture(file, itemType, title, sourceURL, tags, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Input file (JSON or raw text)")
	cmd.Flags().StringVarP(&itemType, "type", "t", "", "Item type (note, link, insight)")
	cmd.Flags().StringVar(&title, "title", "", "Title (required with --file for raw text)")
	cmd.Flags().StringVar(&sourceURL, "url", "", "Source URL (for links)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tag for the item (repeatable)")
	cmd.Flags().BoolVar(&batch, "batch", false, "Batch mode: read JSONL input, one item per line")

	return cmd
}

func runCapture(file, itemType, title, sourceURL string, tags []string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	var input []byte
	if file != "" {
		input, err = os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
	} else {
		input, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
	}

	if len(input) == 0 {
		return fmt.Errorf("no input provided")
	}

	var req CaptureRequest
	if isJSONInput(input) {
		if err := json.Unmarshal(input, &req); err != nil {
			return fmt.Errorf("failed to parse JSON input: %w", err)
		}
	} else {
		// Treat as raw text
		if title == "" {
			return fmt.Errorf("--title is required when capturing raw text")
		}
		req.Content = string(input)
	}

	// Flags override JSON fields
	if itemType != "" {
		req.Type = itemType
	}
	if title != "" {
		req.Title = title
	}
	if sourceURL != "" {
		req.SourceURL = sourceURL
	}
	if len(tags) > 0 {
		req.Tags = tags
	}

	if req.Type == "" {
		req.Type = "note"
	}
	if req.Title == "" {
		return fmt.Errorf("title is required")
	}
	if req.Content == "" {
		return fmt.Errorf("content is required")
	}

	resp, err := api.Post("/items", req)
	if err != nil {
		return fmt.Errorf("failed to capture item: %w", err)
	}

	var item Item
	if err := json.Unmarshal(resp.Data, &item); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(item, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Captured %s: %s\n", item.Type, item.ID)
		fmt.Printf("Title: %s\n", item.Title)
		if len(item.Tags) > 0 {
			fmt.Printf("Tags: %s\n", strings.Join(item.Tags, ", "))
		}
	}

	return nil
}

func isJSONInput(input []byte) bool {
	s := strings.TrimSpace(string(input))
	return len(s) > 0 && (s[0] == '{' || s[0] == '[')
}

// runBatchCapture processes JSONL input line by line.
func runBatchCapture(file string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	var reader io.Reader
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("failed to open file: %w", err)
		}
		defer f.Close()
		reader = f
	} else {
		reader = os.Stdin
	}

	scanner := bufio.NewScanner(reader)
	// Large notes can exceed the default token size
	const maxScanTokenSize = 5 * 1024 * 1024
	buf := make([]byte, maxScanTokenSize)
	scanner.Buffer(buf, maxScanTokenSize)

	response := BatchResponse{
		Results: make([]BatchResult, 0),
	}

	lineNum := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		lineNum++
		response.Total++

		if response.Total > maxBatchSize {
			return fmt.Errorf("batch size exceeds maximum of %d items", maxBatchSize)
		}

		var req CaptureRequest
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			response.Results = append(response.Results, BatchResult{
				Status: "failed",
				Error:  fmt.Sprintf("line %d: failed to parse JSON: %v", lineNum, err),
			})
			response.Failed++
			if !outputJSON {
				fmt.Fprintf(os.Stderr, "Line %d: parse error: %v\n", lineNum, err)
			}
			continue
		}

		if req.Type == "" {
			req.Type = "note"
		}
		if req.Title == "" {
			response.Results = append(response.Results, BatchResult{
				Status: "failed",
				Error:  "title is required",
			})
			response.Failed++
			if !outputJSON {
				fmt.Fprintf(os.Stderr, "Line %d: title is required\n", lineNum)
			}
			continue
		}
		if req.Content == "" {
			response.Results = append(response.Results, BatchResult{
				Status: "failed",
				Error:  "content is required",
				Title:  req.Title,
			})
			response.Failed++
			if !outputJSON {
				fmt.Fprintf(os.Stderr, "Line %d: content is required\n", lineNum)
			}
			continue
		}

		resp, err := api.Post("/items", req)
		if err != nil {
			response.Results = append(response.Results, BatchResult{
				Status: "failed",
				Error:  err.Error(),
				Title:  req.Title,
			})
			response.Failed++
			if !outputJSON {
				fmt.Fprintf(os.Stderr, "Line %d: %v\n", lineNum, err)
			}
			continue
		}

		var item Item
		if err := json.Unmarshal(resp.Data, &item); err != nil {
			response.Results = append(response.Results, BatchResult{
				Status: "failed",
				Error:  fmt.Sprintf("failed to parse response: %v", err),
				Title:  req.Title,
			})
			response.Failed++
			continue
		}

		response.Results = append(response.Results, BatchResult{
			ID:     item.ID,
			Status: "created",
			Title:  item.Title,
		})
		response.Succeeded++

		if !outputJSON {
			fmt.Printf("Captured: %s - %s\n", item.ID, item.Title)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}

	if response.Total == 0 {
		return fmt.Errorf("no items provided")
	}

	if outputJSON {
		output, _ := json.MarshalIndent(response, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("\nBatch complete: %d succeeded, %d failed out of %d total\n",
			response.Succeeded, response.Failed, response.Total)
	}

	if response.Failed > 0 {
		return fmt.Errorf("batch completed with %d failures", response.Failed)
	}

	return nil
}
