package sdbx

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sdbx/client-go/internal/api"
	"github.com/sdbx/client-go/internal/crypto"
	"github.com/sdbx/client-go/internal/sharelink"
)

// DefaultFileName names downloaded files whose link carries no name.
const DefaultFileName = "downloaded-file"

// Access modes reported in Result.AccessMode and FileInfo.AccessMode.
const (
	AccessOneTime = api.AccessOneTime
	AccessMulti   = api.AccessMulti
)

// Kind tells files from text secrets.
type Kind int

const (
	KindFile Kind = iota
	KindText
)

func (k Kind) String() string {
	if k == KindText {
		return "text"
	}
	return "file"
}

// Result is the decrypted content of a download.
type Result struct {
	Kind   Kind
	FileID string
	// Name is the file name from the link, or DefaultFileName.
	Name string
	// Data holds the plaintext of a file.
	Data []byte
	// Text holds the plaintext of a text secret.
	Text       string
	Vault      bool
	AccessMode string
}

// Download opens a share link: it checks availability, obtains the key
// (from the link, or by unlocking a vault with a password), fetches the
// ciphertext, decrypts it and confirms the download with the backend.
//
// Single-access objects can be downloaded once; a second attempt fails
// with ErrGone.
func (c *Client) Download(ctx context.Context, link string, opts ...TransferOption) (*Result, error) {
	cfg := newTransferConfig(opts)
	op := newOperation("download", downloadFlow, cfg.progress, c.logger)

	op.enter(StatePreparing, 0, "Checking file...")
	frag, err := parseLink(link)
	if err != nil {
		return nil, op.fail(err)
	}

	meta, err := c.apiClient.GetMetadata(ctx, frag.ID)
	if err != nil {
		return nil, op.fail(err)
	}
	if !meta.Available {
		return nil, op.fail(ErrGone)
	}
	op.report(downloadMetadataEnd, "File available")

	var key crypto.Key
	if frag.Vault {
		key, err = c.unlockVault(ctx, op, frag, meta, cfg)
	} else {
		op.enter(StateKeying, downloadMetadataEnd, "Importing key...")
		key, err = crypto.FromTransport(frag.Secret)
	}
	if err != nil {
		return nil, op.fail(err)
	}
	defer crypto.Wipe(key[:])

	op.enter(StateFetching, downloadUnlockEnd, "Requesting download...")
	tok, err := c.token(ctx, ActionDownload)
	if err != nil {
		return nil, op.fail(err)
	}
	resp, err := c.apiClient.RequestDownload(ctx, frag.ID, tok)
	if err != nil {
		return nil, op.fail(err)
	}
	op.report(downloadRequestEnd, "Downloading...")

	plaintext, err := c.fetchAndDecrypt(ctx, op, resp, key)
	if err != nil {
		return nil, op.fail(err)
	}

	result := newResult(frag.ID, frag.Name, resp.ContentType, plaintext)
	result.Vault = frag.Vault
	result.AccessMode = meta.AccessMode
	if resp.AccessMode != "" {
		result.AccessMode = resp.AccessMode
	}

	if result.AccessMode != AccessMulti {
		c.confirm(ctx, frag.ID)
	}
	op.done("Download complete")
	return result, nil
}

// parseLink decodes a share link and checks its object id.
func parseLink(link string) (sharelink.Fragment, error) {
	frag, err := sharelink.Parse(link)
	if err != nil {
		return sharelink.Fragment{}, err
	}
	if err := api.ValidateFileID(frag.ID); err != nil {
		return sharelink.Fragment{}, fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}
	frag.ID = strings.ToLower(frag.ID)
	return frag, nil
}

// fetchAndDecrypt runs Fetching and Decrypting. Text secrets arrive inline;
// files are read from the presigned URL.
func (c *Client) fetchAndDecrypt(ctx context.Context, op *operation, resp *api.DownloadResponse, key crypto.Key) ([]byte, error) {
	var env []byte
	if resp.ContentType == api.ContentTypeText || resp.EncryptedText != "" {
		var err error
		if env, err = crypto.FromBase64(resp.EncryptedText); err != nil {
			return nil, fmt.Errorf("%w: encrypted text is not base64", crypto.ErrAuthenticationFailed)
		}
		op.report(downloadFetchEnd, "Downloaded")
	} else {
		if resp.DownloadURL == "" {
			return nil, errors.New("backend returned no download URL")
		}
		report := op.span(downloadRequestEnd, downloadFetchEnd, "Downloading...")
		var err error
		env, err = c.apiClient.GetObject(ctx, resp.DownloadURL, func(done, total int64) {
			report(bytesPercent(done, total))
		})
		if err != nil {
			return nil, err
		}
	}

	op.enter(StateDecrypting, downloadFetchEnd, "Decrypting...")
	return c.cipher.Decrypt(ctx, env, key, op.span(downloadFetchEnd, downloadDecryptEnd, "Decrypting..."))
}

func newResult(fileID, name, contentType string, plaintext []byte) *Result {
	if contentType == api.ContentTypeText {
		return &Result{Kind: KindText, FileID: fileID, Text: string(plaintext)}
	}
	if name == "" {
		name = DefaultFileName
	}
	return &Result{Kind: KindFile, FileID: fileID, Name: name, Data: plaintext}
}

// confirm tells the backend a single-access download succeeded, releasing
// the reservation. The caller already has the plaintext, so a failure is
// only logged.
func (c *Client) confirm(ctx context.Context, fileID string) {
	if err := c.apiClient.Confirm(ctx, fileID); err != nil {
		c.logger.Warn("download confirmation failed",
			zap.String("file_id", fileID),
			zap.Error(wrapError("confirm", err)),
		)
	}
}
