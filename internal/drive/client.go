package drive

import (
	"context"
	"fmt"
	"io"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const listFields = "nextPageToken, files(id, name, createdTime, mimeType)"

// File is the metadata drivewatch needs about one Drive file.
type File struct {
	ID          string
	Name        string
	MimeType    string
	CreatedTime time.Time
}

// Client wraps the Drive v3 API for folder listing and file download.
type Client struct {
	svc *drive.Service
}

// NewClient builds a Drive client authenticated with a service account key file.
func NewClient(ctx context.Context, credentialsFile string) (*Client, error) {
	svc, err := drive.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// NewClientFromJSON builds a Drive client from raw service account credentials.
func NewClientFromJSON(ctx context.Context, credentialsJSON []byte) (*Client, error) {
	svc, err := drive.NewService(ctx, option.WithCredentialsJSON(credentialsJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// ListRecent returns the files created in the folder within the given window,
// newest first.
func (c *Client) ListRecent(ctx context.Context, folderID string, window time.Duration) ([]File, error) {
	threshold := time.Now().UTC().Add(-window)
	return c.list(ctx, recentQuery(folderID, threshold))
}

// ListAll returns every file in the folder, newest first.
func (c *Client) ListAll(ctx context.Context, folderID string) ([]File, error) {
	return c.list(ctx, folderQuery(folderID))
}

func (c *Client) list(ctx context.Context, query string) ([]File, error) {
	var files []File
	pageToken := ""
	for {
		call := c.svc.Files.List().
			Q(query).
			Fields(listFields).
			OrderBy("createdTime desc").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list drive files: %w", err)
		}

		for _, f := range resp.Files {
			files = append(files, fromAPI(f))
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return files, nil
}

// Download fetches the raw content of a file.
func (c *Client) Download(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := c.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("failed to download file %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", fileID, err)
	}
	return data, nil
}

// recentQuery builds the Drive query for files created after the threshold.
func recentQuery(folderID string, threshold time.Time) string {
	return fmt.Sprintf("%s and createdTime > '%s'",
		folderQuery(folderID), threshold.UTC().Format(time.RFC3339))
}

func folderQuery(folderID string) string {
	return fmt.Sprintf("'%s' in parents and trashed = false", folderID)
}

func fromAPI(f *drive.File) File {
	created, _ := time.Parse(time.RFC3339, f.CreatedTime)
	return File{
		ID:          f.Id,
		Name:        f.Name,
		MimeType:    f.MimeType,
		CreatedTime: created,
	}
}
