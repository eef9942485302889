package client

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// DownloadURLResponse represents the download URL API response.
type DownloadURLResponse struct {
	DownloadURL string `json:"download_url"`
}

// InitUploadRequest represents the init upload API request.
type InitUploadRequest struct {
	ItemID   string `json:"item_id"`
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
}

// InitUploadResponse represents the init upload API response.
type InitUploadResponse struct {
	AttachmentID string `json:"attachment_id"`
	StorageKey   string `json:"storage_key"`
	UploadURL    string `json:"upload_url"`
}

// CompleteUploadRequest represents the complete upload API request.
type CompleteUploadRequest struct {
	AttachmentID string `json:"attachment_id"`
	ItemID       string `json:"item_id"`
	StorageKey   string `json:"storage_key"`
	Filename     string `json:"filename"`
	MimeType     string `json:"mime_type"`
	SHA256       string `json:"sha256"`
}

// AttachmentListResponse represents the list API response.
type AttachmentListResponse struct {
	Attachments []Attachment `json:"attachments"`
}

// AttachCmd creates the attach command group.
func AttachCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attach",
		Short: "Attachment management commands",
		Long:  "Commands for managing file attachments on knowledge items.",
	}

	cmd.AddCommand(AttachAddCmd())
	cmd.AddCommand(AttachListCmd())
	cmd.AddCommand(AttachGetCmd())
	cmd.AddCommand(AttachDeleteCmd())

	return cmd
}

// AttachAddCmd creates the attach add command.
func AttachAddCmd() *cobra.Command {
	var itemID string

	cmd := &cobra.Command{
		Use:   "add <filepath>",
		Short: "Upload a file attachment",
		Long: `Upload a file and attach it to a knowledge item.

Examples:
  # Attach a screenshot to a note
  axon attach add screenshot.png --item <item_id>`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAttachAdd(args[0], itemID, outputJSON)
		},
	}

	cmd.Flags().StringVar(&itemID, "item", "", "Item ID to attach the file to (required)")
	cmd.MarkFlagRequired("item")

	return cmd
}

func runAttachAdd(filePath, itemID string, outputJSON bool) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	filename := filepath.Base(filePath)

	mimeType := mime.TypeByExtension(filepath.Ext(filePath))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return fmt.Errorf("failed to calculate hash: %w", err)
	}
	sha256Hash := hex.EncodeToString(hash.Sum(nil))

	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	initReq := InitUploadRequest{
		ItemID:   itemID,
		Filename: filename,
		MimeType: mimeType,
	}

	initResp, err := api.Post("/attachments/init", initReq)
	if err != nil {
		return fmt.Errorf("failed to init upload: %w", err)
	}

	var uploadInfo InitUploadResponse
	if err := json.Unmarshal(initResp.Data, &uploadInfo); err != nil {
		return fmt.Errorf("failed to parse init response: %w", err)
	}

	if err := api.UploadFile(uploadInfo.UploadURL, filePath, mimeType); err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}

	completeReq := CompleteUploadRequest{
		AttachmentID: uploadInfo.AttachmentID,
		ItemID:       itemID,
		StorageKey:   uploadInfo.StorageKey,
		Filename:     filename,
		MimeType:     mimeType,
		SHA256:       sha256Hash,
	}

	completeResp, err := api.Post("/attachments/complete", completeReq)
	if err != nil {
		return fmt.Errorf("failed to complete upload: %w", err)
	}

	var attachment Attachment
	if err := json.Unmarshal(completeResp.Data, &attachment); err != nil {
		return fmt.Errorf("failed to parse complete response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(attachment, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Uploaded attachment: %s\n", attachment.ID)
		fmt.Printf("Filename: %s\n", attachment.Filename)
		fmt.Printf("Item: %s\n", attachment.ItemID)
	}

	return nil
}

// AttachListCmd creates the attach list command.
func AttachListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <item_id>",
		Short: "List attachments on an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAttachList(args[0], outputJSON)
		},
	}

	return cmd
}

func runAttachList(itemID string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Get(fmt.Sprintf("/items/%s/attachments", itemID))
	if err != nil {
		return fmt.Errorf("failed to list attachments: %w", err)
	}

	var list AttachmentListResponse
	if err := json.Unmarshal(resp.Data, &list); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(list, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(list.Attachments) == 0 {
		fmt.Println("No attachments found.")
		return nil
	}

	fmt.Printf("Attachments for item %s:\n", itemID)
	for _, a := range list.Attachments {
		fmt.Printf("  %s: %s (%s, created: %s)\n", a.ID, a.Filename, a.MimeType, a.CreatedAt)
	}

	return nil
}

// AttachGetCmd creates the attach get command.
func AttachGetCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "get <attachment_id>",
		Short: "Download an attachment by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAttachGet(args[0], outputPath, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "dest", "o", "", "Output file path (default: current directory with original filename)")

	return cmd
}

func runAttachGet(attachmentID, outputPath string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Get(fmt.Sprintf("/attachments/%s/download", attachmentID))
	if err != nil {
		return fmt.Errorf("failed to get download URL: %w", err)
	}

	var downloadResp DownloadURLResponse
	if err := json.Unmarshal(resp.Data, &downloadResp); err != nil {
		return fmt.Errorf("failed to parse download URL response: %w", err)
	}

	if downloadResp.DownloadURL == "" {
		return fmt.Errorf("no download URL returned")
	}

	if outputPath == "" {
		outputPath = extractFilenameFromURL(downloadResp.DownloadURL)
		if outputPath == "" {
			outputPath = attachmentID
		}
	}

	if err := api.DownloadFile(downloadResp.DownloadURL, outputPath); err != nil {
		return fmt.Errorf("failed to download attachment: %w", err)
	}

	if outputJSON {
		result := map[string]interface{}{
			"success":       true,
			"attachment_id": attachmentID,
			"path":          outputPath,
		}
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Downloaded attachment to %s\n", outputPath)
	}

	return nil
}

// AttachDeleteCmd creates the attach delete command.
func AttachDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <attachment_id>",
		Short: "Delete an attachment by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAttachDelete(args[0], outputJSON)
		},
	}

	return cmd
}

func runAttachDelete(attachmentID string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	if _, err := api.Delete(fmt.Sprintf("/attachments/%s", attachmentID)); err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(map[string]interface{}{
			"id":     attachmentID,
			"status": "deleted",
		}, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Deleted attachment: %s\n", attachmentID)
	}

	return nil
}

// extractFilenameFromURL extracts the filename from a URL path.
func extractFilenameFromURL(url string) string {
	path := url
	if idx := indexOf(path, '?'); idx != -1 {
		path = path[:idx]
	}
	return filepath.Base(path)
}

func indexOf(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}
