package client

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// SummarizeAPIRequest represents the summarize API request.
type SummarizeAPIRequest struct {
	Content string `json:"content"`
}

// SummarizeAPIResponse represents the summarize API response.
type SummarizeAPIResponse struct {
	Summary string `json:"summary"`
}

// TagsAPIRequest represents the tag suggestion API request.
type TagsAPIRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// TagsAPIResponse represents the tag suggestion API response.
type TagsAPIResponse struct {
	Tags []string `json:"tags"`
}

// SummarizeCmd creates the summarize command.
func SummarizeCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize text from stdin or a file",
		Long:  "Generates a short summary of the given text without storing anything.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runSummarize(file, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Input file (reads stdin if omitted)")

	return cmd
}

func runSummarize(file string, outputJSON bool) error {
	content, err := readTextInput(file)
	if err != nil {
		return err
	}

	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Post("/assist/summarize", SummarizeAPIRequest{Content: content})
	if err != nil {
		return fmt.Errorf("summarize failed: %w", err)
	}

	var result SummarizeAPIResponse
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Println(result.Summary)
	}

	return nil
}

// TagsCmd creates the tags command.
func TagsCmd() *cobra.Command {
	var (
		file  string
		title string
	)

	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Suggest tags for text from stdin or a file",
		Long:  "Suggests tags for the given text without storing anything.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runTags(file, title, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Input file (reads stdin if omitted)")
	cmd.Flags().StringVar(&title, "title", "", "Title to consider when suggesting tags")

	return cmd
}

func runTags(file, title string, outputJSON bool) error {
	content, err := readTextInput(file)
	if err != nil {
		return err
	}

	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Post("/assist/tags", TagsAPIRequest{Title: title, Content: content})
	if err != nil {
		return fmt.Errorf("tag suggestion failed: %w", err)
	}

	var result TagsAPIResponse
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
	} else if len(result.Tags) == 0 {
		fmt.Println("No tags suggested.")
	} else {
		fmt.Println(strings.Join(result.Tags, ", "))
	}

	return nil
}

func readTextInput(file string) (string, error) {
	var input []byte
	var err error
	if file != "" {
		input, err = os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
	} else {
		input, err = io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
	}

	content := strings.TrimSpace(string(input))
	if content == "" {
		return "", fmt.Errorf("no input provided")
	}
	return content, nil
}
