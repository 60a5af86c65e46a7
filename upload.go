package sdbx

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sdbx/client-go/internal/api"
	"github.com/sdbx/client-go/internal/archive"
	"github.com/sdbx/client-go/internal/crypto"
	"github.com/sdbx/client-go/internal/sharelink"
)

// Upload limits.
const (
	// MaxFiles is the most files one upload may bundle.
	MaxFiles = archive.MaxFiles
	// MaxTotalSize is the largest combined plaintext size of one upload.
	MaxTotalSize = archive.MaxTotalSize
	// MaxTextLength bounds the encrypted size of a single-access text secret.
	MaxTextLength = 10_000
	// MaxVaultTextLength bounds the encrypted size of a vault text secret.
	MaxVaultTextLength = 100_000
	// MinPasswordLength is the shortest accepted vault password.
	MinPasswordLength = 4
)

// File is a named in-memory file to upload.
type File = archive.File

// Share describes a finished upload.
type Share struct {
	// FileID is a UUID for link shares and the 6-digit code for PIN shares.
	FileID string
	// Link is the full share URL. It is empty for PIN shares, which are
	// opened with FileID and the PIN instead.
	Link string
	// Name is the file or bundle name; empty for text secrets.
	Name      string
	FileCount int
	// Size is the number of ciphertext bytes stored by the backend.
	Size      int64
	Vault     bool
	PIN       bool
	ExpiresAt time.Time
}

// IsText reports whether the share is a text secret.
func (s *Share) IsText() bool {
	return s.Name == ""
}

// payload is the plaintext of one upload after preparation.
type payload struct {
	contentType string
	name        string
	data        []byte
	fileCount   int
}

// Upload encrypts one file, or a bundle of several, under a fresh key and
// returns a single-access share link carrying that key.
func (c *Client) Upload(ctx context.Context, files []File, opts ...TransferOption) (*Share, error) {
	cfg := newTransferConfig(opts)
	op := newOperation("upload", uploadFlow, cfg.progress, c.logger)

	p, err := c.prepareFiles(ctx, op, files)
	if err != nil {
		return nil, op.fail(err)
	}
	if err := checkDeclaredSize(len(p.data), false); err != nil {
		return nil, op.fail(err)
	}
	return c.upload(ctx, op, p, cfg, "")
}

// UploadText encrypts a text secret and stores it inline with the backend.
// The link has no name segment.
func (c *Client) UploadText(ctx context.Context, text string, opts ...TransferOption) (*Share, error) {
	cfg := newTransferConfig(opts)
	op := newOperation("upload text", uploadFlow, cfg.progress, c.logger)

	p, err := prepareText(op, text, MaxTextLength)
	if err != nil {
		return nil, op.fail(err)
	}
	return c.upload(ctx, op, p, cfg, "")
}

// prepareFiles validates the selection and bundles it when it holds more
// than one file.
func (c *Client) prepareFiles(ctx context.Context, op *operation, files []File) (*payload, error) {
	op.enter(StatePreparing, 0, "Preparing...")

	for _, f := range files {
		if strings.TrimSpace(f.Name) == "" {
			return nil, &ValidationError{Errors: []string{"File name is required"}}
		}
	}

	if len(files) == 1 {
		if v := archive.Validate(files); !v.Valid {
			return nil, &ValidationError{Errors: []string{v.Error}}
		}
		op.report(uploadPrepareEnd, "File ready")
		return &payload{
			contentType: api.ContentTypeFile,
			name:        files[0].Name,
			data:        files[0].Data,
			fileCount:   1,
		}, nil
	}

	bundle, err := archive.Build(ctx, files, c.now(), func(percent int, message string) {
		op.report(percent*uploadPrepareEnd/100, message)
	})
	if err != nil {
		return nil, err
	}
	return &payload{
		contentType: api.ContentTypeFile,
		name:        bundle.Name,
		data:        bundle.Data,
		fileCount:   bundle.FileCount,
	}, nil
}

// prepareText checks a text secret against limit, which applies to the
// base64 envelope the backend stores.
func prepareText(op *operation, text string, limit int) (*payload, error) {
	op.enter(StatePreparing, 0, "Preparing...")

	if strings.TrimSpace(text) == "" {
		return nil, &ValidationError{Errors: []string{"Text is empty"}}
	}
	if n := base64.StdEncoding.EncodedLen(len(text) + crypto.EnvelopeOverhead); n > limit {
		return nil, &ValidationError{Errors: []string{
			fmt.Sprintf("Text is too long: encrypted size %d exceeds the %d character limit", n, limit),
		}}
	}

	op.report(uploadPrepareEnd, "Text ready")
	return &payload{contentType: api.ContentTypeText, data: []byte(text)}, nil
}

// upload runs Keying through Done for link and vault shares. A non-empty
// password makes a vault share: the content key is wrapped under a key
// derived from the password and a fresh salt, and only the salt goes into
// the link.
func (c *Client) upload(ctx context.Context, op *operation, p *payload, cfg *transferConfig, password string) (*Share, error) {
	vault := password != ""

	op.enter(StateKeying, uploadPrepareEnd, "Generating key...")
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, op.fail(err)
	}
	defer crypto.Wipe(key[:])

	req := api.InitUploadRequest{
		ContentType: p.contentType,
		TTL:         cfg.ttl.wire(),
		AccessMode:  api.AccessOneTime,
	}
	var secret string
	if vault {
		salt, wrapped, err := wrapForVault(key, password)
		if err != nil {
			return nil, op.fail(err)
		}
		req.AccessMode = api.AccessMulti
		req.Salt = crypto.ToBase64(salt)
		req.EncryptedKey = crypto.ToBase64(wrapped)
		secret = req.Salt
	} else {
		secret = crypto.ToTransport(key)
	}

	env, err := c.encrypt(ctx, op, p, key)
	if err != nil {
		return nil, op.fail(err)
	}

	op.enter(StateUploading, uploadEncryptEnd, "Requesting upload...")
	tok, err := c.token(ctx, ActionUpload)
	if err != nil {
		return nil, op.fail(err)
	}
	req.BotToken = tok
	if p.contentType == api.ContentTypeText {
		req.EncryptedText = crypto.ToBase64(env)
	} else {
		req.FileSize = declaredSize(len(p.data), vault)
	}

	resp, err := c.apiClient.InitUpload(ctx, req)
	if err != nil {
		return nil, op.fail(err)
	}
	op.report(uploadInitEnd, "Uploading...")

	if p.contentType == api.ContentTypeFile {
		if err := c.put(ctx, op, resp.UploadURL, env, uploadInitEnd); err != nil {
			return nil, op.fail(err)
		}
	}

	op.enter(StateFinalizing, uploadPutEnd, "Creating link...")
	link, err := sharelink.BuildURL(c.shareBaseURL, sharelink.Fragment{
		ID:     resp.FileID,
		Secret: secret,
		Name:   p.name,
		Vault:  vault,
	})
	if err != nil {
		return nil, op.fail(err)
	}

	c.logger.Debug("upload complete",
		zap.String("file_id", resp.FileID),
		zap.Int("bytes", len(env)),
		zap.Bool("vault", vault),
	)
	op.done("Upload complete")

	return &Share{
		FileID:    resp.FileID,
		Link:      link,
		Name:      p.name,
		FileCount: p.fileCount,
		Size:      int64(len(env)),
		Vault:     vault,
		ExpiresAt: resp.ExpiresAt.Time(),
	}, nil
}

// declaredSize is the file_size announced at init: the plaintext size for
// link and PIN shares, the envelope size for vault shares.
func declaredSize(plaintextLen int, vault bool) int64 {
	if vault {
		return int64(plaintextLen + crypto.EnvelopeOverhead)
	}
	return int64(plaintextLen)
}

// checkDeclaredSize rejects files whose declared size the backend would
// refuse. A bundle or a vault envelope can exceed the limit even when the
// selected files fit.
func checkDeclaredSize(plaintextLen int, vault bool) error {
	if n := declaredSize(plaintextLen, vault); n > MaxTotalSize {
		return &ValidationError{Errors: []string{
			fmt.Sprintf("Upload is too large: %s exceeds the %s limit", archive.FormatSize(n), archive.FormatSize(MaxTotalSize)),
		}}
	}
	return nil
}

// encrypt runs the Encrypting state.
func (c *Client) encrypt(ctx context.Context, op *operation, p *payload, key crypto.Key) ([]byte, error) {
	op.enter(StateEncrypting, uploadKeyEnd, "Encrypting...")
	return c.cipher.Encrypt(ctx, p.data, key, op.span(uploadKeyEnd, uploadEncryptEnd, "Encrypting..."))
}

// put uploads env to a presigned URL, mapping transport progress onto
// [from, uploadPutEnd].
func (c *Client) put(ctx context.Context, op *operation, uploadURL string, env []byte, from int) error {
	if uploadURL == "" {
		return errors.New("backend returned no upload URL")
	}
	report := op.span(from, uploadPutEnd, "Uploading...")
	return c.apiClient.PutObject(ctx, uploadURL, env, func(done, total int64) {
		report(bytesPercent(done, total))
	})
}
