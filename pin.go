package sdbx

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/sdbx/client-go/internal/api"
	"github.com/sdbx/client-go/internal/crypto"
)

var pinPattern = regexp.MustCompile(`^[a-zA-Z0-9]{4}$`)

// PINSession is an open PIN entry session.
type PINSession struct {
	Code         string
	AttemptsLeft int
}

// UploadPIN uploads files as a PIN share. The backend issues a 6-digit code
// and a salt; the content is sealed directly under a key derived from the
// PIN and that salt.
//
// A 4-character PIN is a deliberately low-entropy secret. The backend
// compensates by locking the code after a few wrong attempts.
func (c *Client) UploadPIN(ctx context.Context, files []File, pin string, opts ...TransferOption) (*Share, error) {
	cfg := newTransferConfig(opts)
	op := newOperation("pin upload", uploadFlow, cfg.progress, c.logger)

	if !pinPattern.MatchString(pin) {
		return nil, op.fail(ErrInvalidPIN)
	}
	p, err := c.prepareFiles(ctx, op, files)
	if err != nil {
		return nil, op.fail(err)
	}
	if err := checkDeclaredSize(len(p.data), false); err != nil {
		return nil, op.fail(err)
	}

	op.enter(StateKeying, uploadPrepareEnd, "Requesting upload...")
	tok, err := c.token(ctx, ActionPinUpload)
	if err != nil {
		return nil, op.fail(err)
	}
	resp, err := c.apiClient.InitPinUpload(ctx, api.PinUploadRequest{
		ContentType: api.ContentTypeFile,
		FileSize:    declaredSize(len(p.data), false),
		PIN:         pin,
		TTL:         cfg.ttl.wire(),
		BotToken:    tok,
	})
	if err != nil {
		return nil, op.fail(err)
	}

	salt, err := crypto.SaltFromHex(resp.Salt)
	if err != nil {
		return nil, op.fail(err)
	}
	key, err := crypto.DeriveKey(pin, salt)
	if err != nil {
		return nil, op.fail(err)
	}
	defer crypto.Wipe(key[:])

	env, err := c.encrypt(ctx, op, p, key)
	if err != nil {
		return nil, op.fail(err)
	}

	op.enter(StateUploading, uploadEncryptEnd, "Uploading...")
	if err := c.put(ctx, op, resp.UploadURL, env, uploadEncryptEnd); err != nil {
		return nil, op.fail(err)
	}

	op.enter(StateFinalizing, uploadPutEnd, "Finishing...")
	op.done("Upload complete")

	return &Share{
		FileID:    resp.FileID,
		Name:      p.name,
		FileCount: p.fileCount,
		Size:      int64(len(env)),
		PIN:       true,
		ExpiresAt: resp.ExpiresAt.Time(),
	}, nil
}

// StartPIN opens a PIN entry session for code and reports how many attempts
// remain. DownloadPIN calls it itself; it is exposed for callers that want
// to show the attempt count before asking for the PIN.
func (c *Client) StartPIN(ctx context.Context, code string) (*PINSession, error) {
	if err := api.ValidatePinCode(code); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}
	session, err := c.apiClient.PinInitiate(ctx, code)
	if err != nil {
		return nil, wrapError("pin initiate", err)
	}
	return &PINSession{Code: code, AttemptsLeft: session.AttemptsLeft}, nil
}

// DownloadPIN opens a PIN share. A rejected PIN, or content that does not
// decrypt under the PIN-derived key, fails with ErrWrongPassword.
func (c *Client) DownloadPIN(ctx context.Context, code, pin string, opts ...TransferOption) (*Result, error) {
	cfg := newTransferConfig(opts)
	op := newOperation("pin download", downloadFlow, cfg.progress, c.logger)

	op.enter(StatePreparing, 0, "Checking code...")
	if !pinPattern.MatchString(pin) {
		return nil, op.fail(ErrInvalidPIN)
	}
	if _, err := c.StartPIN(ctx, code); err != nil {
		return nil, op.fail(err)
	}
	op.report(downloadMetadataEnd, "Code accepted")

	op.enter(StateUnlocking, downloadMetadataEnd, "Verifying PIN...")
	resp, err := c.apiClient.PinVerify(ctx, code, pin)
	if err != nil {
		return nil, op.fail(err)
	}
	salt, err := crypto.SaltFromHex(resp.Salt)
	if err != nil {
		return nil, op.fail(err)
	}
	key, err := crypto.DeriveKey(pin, salt)
	if err != nil {
		return nil, op.fail(err)
	}
	defer crypto.Wipe(key[:])
	op.report(downloadUnlockEnd, "PIN verified")

	op.enter(StateFetching, downloadRequestEnd, "Downloading...")
	plaintext, err := c.fetchAndDecrypt(ctx, op, resp, key)
	if err != nil {
		if errors.Is(err, crypto.ErrAuthenticationFailed) {
			err = &DecryptionError{Stage: "decrypt", Err: ErrWrongPassword}
		}
		return nil, op.fail(err)
	}

	result := newResult(code, "", resp.ContentType, plaintext)
	result.AccessMode = resp.AccessMode

	c.confirm(ctx, code)
	op.done("Download complete")
	return result, nil
}
