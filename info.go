package sdbx

import (
	"context"
	"fmt"
	"strings"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/sdbx/client-go/internal/api"
	"github.com/sdbx/client-go/internal/sharelink"
)

// MaxReportReasonLength bounds the free-text reason of an abuse report.
const MaxReportReasonLength = 1000

// FileInfo is the public metadata of a share. Reading it does not consume
// single-access shares.
type FileInfo struct {
	FileID        string
	Kind          Kind
	Name          string // from the link, if any
	Size          int64  // declared at upload: plaintext, or the envelope for vaults
	Available     bool
	ExpiresAt     time.Time
	AccessMode    string
	Vault         bool
	DownloadCount int
}

// ReportResult is the backend's answer to an abuse report.
type ReportResult struct {
	Message     string
	ReportCount int
}

// Info returns metadata for a share link or a bare file id.
func (c *Client) Info(ctx context.Context, linkOrID string) (*FileInfo, error) {
	var frag sharelink.Fragment
	if id := strings.TrimSpace(linkOrID); api.ValidateFileID(id) == nil {
		frag.ID = strings.ToLower(id)
	} else {
		var err error
		if frag, err = parseLink(linkOrID); err != nil {
			return nil, wrapError("info", err)
		}
	}

	meta, err := c.apiClient.GetMetadata(ctx, frag.ID)
	if err != nil {
		return nil, wrapError("info", err)
	}

	info := &FileInfo{
		FileID:        meta.FileID,
		Kind:          KindFile,
		Name:          frag.Name,
		Size:          meta.FileSize,
		Available:     meta.Available,
		ExpiresAt:     meta.ExpiresAt.Time(),
		AccessMode:    meta.AccessMode,
		Vault:         frag.Vault || meta.AccessMode == api.AccessMulti,
		DownloadCount: meta.DownloadCount,
	}
	if meta.ContentType == api.ContentTypeText {
		info.Kind = KindText
	}
	if info.FileID == "" {
		info.FileID = frag.ID
	}
	return info, nil
}

// Report files an abuse report for a share. fileID is a link-share UUID or
// a 6-digit PIN code; reason is optional free text.
func (c *Client) Report(ctx context.Context, fileID, reason string) (*ReportResult, error) {
	if api.ValidateFileID(fileID) != nil && api.ValidatePinCode(fileID) != nil {
		return nil, fmt.Errorf("%w: %q is not a file id or code", ErrInvalidLink, fileID)
	}
	fileID = strings.ToLower(fileID)
	reason = strings.TrimSpace(reason)
	err := validation.Validate(reason,
		validation.RuneLength(0, MaxReportReasonLength).Error(fmt.Sprintf("Reason must be at most %d characters", MaxReportReasonLength)),
	)
	if err != nil {
		return nil, &ValidationError{Errors: []string{err.Error()}}
	}

	tok, err := c.token(ctx, ActionReport)
	if err != nil {
		return nil, err
	}
	resp, err := c.apiClient.Report(ctx, fileID, api.ReportRequest{Reason: reason, BotToken: tok})
	if err != nil {
		return nil, wrapError("report", err)
	}
	return &ReportResult{Message: resp.Message, ReportCount: resp.ReportCount}, nil
}
