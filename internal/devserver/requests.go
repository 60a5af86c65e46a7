package devserver

import (
	"encoding/json"
	"fmt"
	"regexp"

	validation "github.com/jellydator/validation"
)

var (
	pinPattern     = regexp.MustCompile(`^[a-zA-Z0-9]{4}$`)
	pinCodePattern = regexp.MustCompile(`^[0-9]{6}$`)
)

const maxReasonLength = 1000

// uploadInitRequest is the body of POST /upload/init.
type uploadInitRequest struct {
	ContentType   string          `json:"content_type"`
	FileSize      int64           `json:"file_size"`
	EncryptedText string          `json:"encrypted_text"`
	TTL           json.RawMessage `json:"ttl"`
	BotToken      string          `json:"bot_token"`
	AccessMode    string          `json:"access_mode"`
	Salt          string          `json:"salt"`
	EncryptedKey  string          `json:"encrypted_key"`
}

// Validate checks the upload fields, including the per-mode text limit
// and the vault material required for multi-access uploads.
func (r *uploadInitRequest) Validate() error {
	return validation.ValidateStruct(r, r.fieldRules()...)
}

func (r *uploadInitRequest) fieldRules() []*validation.FieldRules {
	isFile := r.ContentType == contentTypeFile
	isText := r.ContentType == contentTypeText
	isMulti := r.AccessMode == accessMulti

	textLimit := maxTextOneTime
	if isMulti {
		textLimit = maxTextMulti
	}

	return []*validation.FieldRules{
		validation.Field(&r.ContentType,
			validation.Required.Error("is required"),
			validation.In(contentTypeFile, contentTypeText).Error("must be file or text"),
		),
		validation.Field(&r.FileSize, validation.When(isFile,
			validation.Required.Error("must be a positive integer"),
			validation.Min(int64(1)).Error("must be a positive integer"),
			validation.Max(int64(maxFileSize)).Error("exceeds maximum limit (500 MB)"),
		)),
		validation.Field(&r.EncryptedText, validation.When(isText,
			validation.Required.Error("is required for text secrets"),
			validation.Length(1, textLimit).Error(fmt.Sprintf("is too large (max %d characters)", textLimit)),
		)),
		validation.Field(&r.TTL, validation.By(validTTL)),
		validation.Field(&r.AccessMode,
			validation.In(accessOneTime, accessMulti).Error("must be one_time or multi"),
		),
		validation.Field(&r.Salt, validation.When(isMulti,
			validation.Required.Error("is required for multi-access uploads"),
			validation.Length(1, maxSaltLen).Error("is too long"),
		)),
		validation.Field(&r.EncryptedKey, validation.When(isMulti,
			validation.Required.Error("is required for multi-access uploads"),
			validation.Length(1, maxWrappedKeyLen).Error("is too long"),
		)),
	}
}

func validTTL(value any) error {
	raw, _ := value.(json.RawMessage)
	if _, err := parseTTL(raw); err != nil {
		return validation.NewError("validation_ttl", err.Error())
	}
	return nil
}

// pinUploadRequest is the body of POST /pin/upload. PIN shares are always
// single-access.
type pinUploadRequest struct {
	uploadInitRequest
	PIN string `json:"pin"`
}

// Validate checks the upload fields and the PIN format.
func (r *pinUploadRequest) Validate() error {
	rules := append(r.uploadInitRequest.fieldRules(),
		validation.Field(&r.PIN,
			validation.Required.Error("is required"),
			validation.Match(pinPattern).Error("must be exactly 4 alphanumeric characters"),
		),
	)
	return validation.ValidateStruct(r, rules...)
}

type downloadRequest struct {
	BotToken string `json:"bot_token"`
}

type reportRequest struct {
	Reason   string `json:"reason"`
	BotToken string `json:"bot_token"`
}

// Validate bounds the free-text reason.
func (r *reportRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Reason,
			validation.RuneLength(0, maxReasonLength).Error(fmt.Sprintf("must be at most %d characters", maxReasonLength)),
		),
	)
}

type pinInitiateRequest struct {
	FileID string `json:"file_id"`
}

// Validate checks the code format.
func (r *pinInitiateRequest) Validate() error {
	return validation.ValidateStruct(r, pinCodeField(&r.FileID))
}

type pinVerifyRequest struct {
	FileID string `json:"file_id"`
	PIN    string `json:"pin"`
}

// Validate checks the code and PIN formats.
func (r *pinVerifyRequest) Validate() error {
	return validation.ValidateStruct(r,
		pinCodeField(&r.FileID),
		validation.Field(&r.PIN,
			validation.Required.Error("is required"),
			validation.Match(pinPattern).Error("must be exactly 4 alphanumeric characters"),
		),
	)
}

func pinCodeField(code *string) *validation.FieldRules {
	return validation.Field(code,
		validation.Required.Error("is required"),
		validation.Match(pinCodePattern).Error("must be 6 digits"),
	)
}
