package sdbx

import (
	"context"
	"errors"
	"fmt"

	validation "github.com/jellydator/validation"
	"go.uber.org/zap"

	"github.com/sdbx/client-go/internal/api"
	"github.com/sdbx/client-go/internal/crypto"
	"github.com/sdbx/client-go/internal/sharelink"
)

// UploadVault uploads files as a multi-access share protected by password.
// The content key is wrapped under a key derived from the password; the
// backend stores the wrapped key and the salt, and the link carries the salt.
func (c *Client) UploadVault(ctx context.Context, files []File, password string, opts ...TransferOption) (*Share, error) {
	cfg := newTransferConfig(opts)
	op := newOperation("vault upload", uploadFlow, cfg.progress, c.logger)

	if err := validatePassword(password); err != nil {
		return nil, op.fail(err)
	}
	p, err := c.prepareFiles(ctx, op, files)
	if err != nil {
		return nil, op.fail(err)
	}
	if err := checkDeclaredSize(len(p.data), true); err != nil {
		return nil, op.fail(err)
	}
	return c.upload(ctx, op, p, cfg, password)
}

// UploadVaultText uploads a text secret as a password-protected vault share.
func (c *Client) UploadVaultText(ctx context.Context, text, password string, opts ...TransferOption) (*Share, error) {
	cfg := newTransferConfig(opts)
	op := newOperation("vault upload text", uploadFlow, cfg.progress, c.logger)

	if err := validatePassword(password); err != nil {
		return nil, op.fail(err)
	}
	p, err := prepareText(op, text, MaxVaultTextLength)
	if err != nil {
		return nil, op.fail(err)
	}
	return c.upload(ctx, op, p, cfg, password)
}

func validatePassword(password string) error {
	tooShort := fmt.Sprintf("Password must be at least %d characters", MinPasswordLength)
	err := validation.Validate(password,
		validation.Required.Error(tooShort),
		validation.RuneLength(MinPasswordLength, 0).Error(tooShort),
	)
	if err != nil {
		return &ValidationError{Errors: []string{err.Error()}}
	}
	return nil
}

// wrapForVault derives a wrapping key from password and a fresh salt and
// seals key under it.
func wrapForVault(key crypto.Key, password string) (salt, wrapped []byte, err error) {
	salt, err = crypto.NewSalt()
	if err != nil {
		return nil, nil, err
	}
	wrapper, err := crypto.DeriveKey(password, salt)
	if err != nil {
		return nil, nil, err
	}
	defer crypto.Wipe(wrapper[:])

	wrapped, err = crypto.WrapKey(key, wrapper)
	if err != nil {
		return nil, nil, err
	}
	return salt, wrapped, nil
}

// unlockVault runs the Unlocking state: password, salt derivation, key
// unwrap. An unwrap that does not authenticate means the password is wrong.
func (c *Client) unlockVault(ctx context.Context, op *operation, frag sharelink.Fragment, meta *api.Metadata, cfg *transferConfig) (crypto.Key, error) {
	op.enter(StateUnlocking, downloadMetadataEnd, "Unlocking...")

	password := cfg.password
	if password == "" && cfg.passwordFunc != nil {
		var err error
		if password, err = cfg.passwordFunc(ctx); err != nil {
			return crypto.Key{}, err
		}
	}
	if password == "" {
		return crypto.Key{}, ErrPasswordRequired
	}

	if meta.Salt != "" && meta.Salt != frag.Secret {
		c.logger.Warn("vault salt in link differs from stored salt, using the link",
			zap.String("file_id", frag.ID))
	}
	salt, err := crypto.SaltFromTransport(frag.Secret)
	if err != nil {
		return crypto.Key{}, err
	}
	if meta.EncryptedKey == "" {
		return crypto.Key{}, fmt.Errorf("%w: no wrapped key stored for this file", crypto.ErrInvalidKeyMaterial)
	}
	wrapped, err := crypto.DecodeBase64(meta.EncryptedKey)
	if err != nil {
		return crypto.Key{}, fmt.Errorf("%w: wrapped key: %v", crypto.ErrInvalidKeyMaterial, err)
	}

	wrapper, err := crypto.DeriveKey(password, salt)
	if err != nil {
		return crypto.Key{}, err
	}
	defer crypto.Wipe(wrapper[:])
	if err := ctx.Err(); err != nil {
		return crypto.Key{}, err
	}
	op.report((downloadMetadataEnd+downloadUnlockEnd)/2, "Unlocking...")

	key, err := crypto.UnwrapKey(wrapped, wrapper)
	if errors.Is(err, crypto.ErrAuthenticationFailed) {
		return crypto.Key{}, &DecryptionError{Stage: "unwrap", Err: ErrWrongPassword}
	}
	if err != nil {
		return crypto.Key{}, err
	}
	op.report(downloadUnlockEnd, "Unlocked")
	return key, nil
}
