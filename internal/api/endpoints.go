package api

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var pinCodePattern = regexp.MustCompile(`^[0-9]{6}$`)

// ValidateFileID checks that id is a hyphenated UUIDv4, the format the
// backend issues for link shares. Case is ignored; the backend lowercases
// ids before lookup.
func ValidateFileID(id string) error {
	u, err := uuid.Parse(id)
	if err != nil || u.Version() != 4 || u.String() != strings.ToLower(id) {
		return fmt.Errorf("invalid file ID format")
	}
	return nil
}

// ValidatePinCode checks that code is the 6-digit id of a PIN share.
func ValidatePinCode(code string) error {
	if !pinCodePattern.MatchString(code) {
		return fmt.Errorf("file code must be 6 digits")
	}
	return nil
}

// InitUpload requests an upload slot (or stores an inline text secret).
func (c *Client) InitUpload(ctx context.Context, req InitUploadRequest) (*InitUploadResponse, error) {
	var result InitUploadResponse
	if err := c.Do(ctx, "POST", "/upload/init", req, &result); err != nil {
		return nil, WithResourceType(err, ResourceFile)
	}
	return &result, nil
}

// InitPinUpload requests an upload slot for a PIN share.
func (c *Client) InitPinUpload(ctx context.Context, req PinUploadRequest) (*PinUploadResponse, error) {
	var result PinUploadResponse
	if err := c.Do(ctx, "POST", "/pin/upload", req, &result); err != nil {
		return nil, WithResourceType(err, ResourcePIN)
	}
	return &result, nil
}

// GetMetadata returns an object's public metadata without consuming it.
func (c *Client) GetMetadata(ctx context.Context, fileID string) (*Metadata, error) {
	path := fmt.Sprintf("/files/%s/metadata", url.PathEscape(fileID))
	var result Metadata
	if err := c.Do(ctx, "GET", path, nil, &result); err != nil {
		return nil, WithResourceType(err, ResourceFile)
	}
	return &result, nil
}

// RequestDownload asks for the ciphertext location. For single-access
// objects this reserves the object until Confirm is called.
func (c *Client) RequestDownload(ctx context.Context, fileID, botToken string) (*DownloadResponse, error) {
	path := fmt.Sprintf("/files/%s/download", url.PathEscape(fileID))
	var result DownloadResponse
	if err := c.Do(ctx, "POST", path, DownloadRequest{BotToken: botToken}, &result); err != nil {
		return nil, WithResourceType(err, ResourceFile)
	}
	return &result, nil
}

// Confirm tells the backend a single-access object was received.
func (c *Client) Confirm(ctx context.Context, fileID string) error {
	path := fmt.Sprintf("/files/%s/confirm", url.PathEscape(fileID))
	return WithResourceType(c.Do(ctx, "POST", path, struct{}{}, nil), ResourceFile)
}

// Report files an abuse report for an object.
func (c *Client) Report(ctx context.Context, fileID string, req ReportRequest) (*ReportResponse, error) {
	path := fmt.Sprintf("/files/%s/report", url.PathEscape(fileID))
	var result ReportResponse
	if err := c.Do(ctx, "POST", path, req, &result); err != nil {
		return nil, WithResourceType(err, ResourceFile)
	}
	return &result, nil
}

// PinInitiate opens a PIN entry session for a 6-digit code.
func (c *Client) PinInitiate(ctx context.Context, code string) (*PinInitiateResponse, error) {
	var result PinInitiateResponse
	if err := c.Do(ctx, "POST", "/pin/initiate", pinInitiateRequest{FileID: code}, &result); err != nil {
		return nil, WithResourceType(err, ResourcePIN)
	}
	return &result, nil
}

// PinVerify submits a PIN and, when it matches, returns the ciphertext
// location and the derivation salt.
func (c *Client) PinVerify(ctx context.Context, code, pin string) (*DownloadResponse, error) {
	var result DownloadResponse
	if err := c.Do(ctx, "POST", "/pin/verify", pinVerifyRequest{FileID: code, PIN: pin}, &result); err != nil {
		return nil, WithResourceType(err, ResourcePIN)
	}
	return &result, nil
}
