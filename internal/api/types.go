package api

import (
	"encoding/json"
	"strconv"
	"time"
)

// Content types stored with an object.
const (
	ContentTypeFile = "file"
	ContentTypeText = "text"
)

// Access modes.
const (
	AccessOneTime = "one_time"
	AccessMulti   = "multi"
)

// TTL is an upload lifetime: either a preset ("1h", "12h", "24h") or a
// number of minutes. On the wire a preset is a JSON string and a custom
// lifetime is a JSON number.
type TTL struct {
	Preset  string
	Minutes int
}

// MarshalJSON implements json.Marshaler.
func (t TTL) MarshalJSON() ([]byte, error) {
	if t.Preset != "" {
		return json.Marshal(t.Preset)
	}
	return []byte(strconv.Itoa(t.Minutes)), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *TTL) UnmarshalJSON(data []byte) error {
	var preset string
	if err := json.Unmarshal(data, &preset); err == nil {
		*t = TTL{Preset: preset}
		return nil
	}
	var minutes float64
	if err := json.Unmarshal(data, &minutes); err != nil {
		return err
	}
	*t = TTL{Minutes: int(minutes)}
	return nil
}

// Timestamp is a unix-seconds time as the backend encodes it.
type Timestamp int64

// Time converts the timestamp to a time.Time.
func (ts Timestamp) Time() time.Time {
	return time.Unix(int64(ts), 0)
}

// InitUploadRequest is the body of POST /upload/init.
type InitUploadRequest struct {
	ContentType   string `json:"content_type"`
	FileSize      int64  `json:"file_size,omitempty"`
	EncryptedText string `json:"encrypted_text,omitempty"`
	TTL           TTL    `json:"ttl"`
	BotToken      string `json:"bot_token"`
	AccessMode    string `json:"access_mode,omitempty"`
	Salt          string `json:"salt,omitempty"`
	EncryptedKey  string `json:"encrypted_key,omitempty"`
}

// InitUploadResponse is returned by POST /upload/init. UploadURL is empty
// for text secrets, which travel inline.
type InitUploadResponse struct {
	FileID    string    `json:"file_id"`
	UploadURL string    `json:"upload_url,omitempty"`
	ExpiresAt Timestamp `json:"expires_at"`
}

// PinUploadRequest is the body of POST /pin/upload.
type PinUploadRequest struct {
	ContentType   string `json:"content_type"`
	FileSize      int64  `json:"file_size,omitempty"`
	EncryptedText string `json:"encrypted_text,omitempty"`
	PIN           string `json:"pin"`
	TTL           TTL    `json:"ttl"`
	BotToken      string `json:"bot_token"`
}

// PinUploadResponse is returned by POST /pin/upload. Salt is hex encoded.
type PinUploadResponse struct {
	FileID    string    `json:"file_id"`
	UploadURL string    `json:"upload_url,omitempty"`
	Salt      string    `json:"salt"`
	ExpiresAt Timestamp `json:"expires_at"`
}

// Metadata is returned by GET /files/{id}/metadata. The vault fields are
// only set for multi-access objects.
type Metadata struct {
	FileID        string    `json:"file_id"`
	ContentType   string    `json:"content_type"`
	FileSize      int64     `json:"file_size"`
	Available     bool      `json:"available"`
	ExpiresAt     Timestamp `json:"expires_at"`
	AccessMode    string    `json:"access_mode"`
	Salt          string    `json:"salt,omitempty"`
	EncryptedKey  string    `json:"encrypted_key,omitempty"`
	DownloadCount int       `json:"download_count,omitempty"`
}

// DownloadRequest is the body of POST /files/{id}/download.
type DownloadRequest struct {
	BotToken string `json:"bot_token"`
}

// DownloadResponse is returned by POST /files/{id}/download and
// POST /pin/verify. Exactly one of DownloadURL and EncryptedText is set.
type DownloadResponse struct {
	ContentType   string `json:"content_type"`
	DownloadURL   string `json:"download_url,omitempty"`
	EncryptedText string `json:"encrypted_text,omitempty"`
	FileSize      int64  `json:"file_size"`
	AccessMode    string `json:"access_mode,omitempty"`
	Salt          string `json:"salt,omitempty"`
}

// ReportRequest is the body of POST /files/{id}/report.
type ReportRequest struct {
	Reason   string `json:"reason"`
	BotToken string `json:"bot_token"`
}

// ReportResponse is returned by POST /files/{id}/report.
type ReportResponse struct {
	Message     string `json:"message"`
	ReportCount int    `json:"report_count"`
}

// PinInitiateResponse is returned by POST /pin/initiate.
type PinInitiateResponse struct {
	SessionExpires Timestamp `json:"session_expires"`
	AttemptsLeft   int       `json:"attempts_left"`
}

type pinInitiateRequest struct {
	FileID string `json:"file_id"`
}

type pinVerifyRequest struct {
	FileID string `json:"file_id"`
	PIN    string `json:"pin"`
}
