package devserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	validation "github.com/jellydator/validation"
)

var ttlPresets = map[string]time.Duration{
	"1h":  time.Hour,
	"12h": 12 * time.Hour,
	"24h": 24 * time.Hour,
}

type uploadInitResponse struct {
	FileID    string `json:"file_id"`
	UploadURL string `json:"upload_url,omitempty"`
	Salt      string `json:"salt,omitempty"`
	ExpiresAt int64  `json:"expires_at"`
}

type metadataResponse struct {
	FileID        string `json:"file_id"`
	ContentType   string `json:"content_type"`
	FileSize      int64  `json:"file_size"`
	Available     bool   `json:"available"`
	ExpiresAt     int64  `json:"expires_at"`
	AccessMode    string `json:"access_mode"`
	Salt          string `json:"salt,omitempty"`
	EncryptedKey  string `json:"encrypted_key,omitempty"`
	DownloadCount int    `json:"download_count"`
}

type downloadResponse struct {
	ContentType   string `json:"content_type"`
	DownloadURL   string `json:"download_url,omitempty"`
	EncryptedText string `json:"encrypted_text,omitempty"`
	FileSize      int64  `json:"file_size"`
	AccessMode    string `json:"access_mode"`
	Salt          string `json:"salt,omitempty"`
}

func (s *Server) uploadInit(w http.ResponseWriter, r *http.Request) {
	var req uploadInitRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.AccessMode == "" {
		req.AccessMode = accessOneTime
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	params := req.createParams()
	params.accessMode = req.AccessMode
	params.salt = req.Salt
	params.encryptedKey = req.EncryptedKey
	o := s.store.create(params)

	s.logger.Infow("upload initialized",
		"file_id", o.id,
		"content_type", o.contentType,
		"access_mode", o.accessMode,
		"size", o.fileSize,
	)
	writeJSON(w, http.StatusOK, uploadInitResponse{
		FileID:    o.id,
		UploadURL: s.objectURL(r, o.id, o.uploadToken),
		ExpiresAt: o.expiresAt.Unix(),
	})
}

func (s *Server) pinUpload(w http.ResponseWriter, r *http.Request) {
	var req pinUploadRequest
	if !s.decode(w, r, &req) {
		return
	}
	req.AccessMode = accessOneTime
	if err := req.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	params := req.createParams()
	params.accessMode = accessOneTime
	o, salt, err := s.store.createPIN(params, req.PIN)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Infow("pin upload initialized", "content_type", o.contentType, "size", o.fileSize)
	writeJSON(w, http.StatusOK, uploadInitResponse{
		FileID:    o.id,
		UploadURL: s.objectURL(r, o.id, o.uploadToken),
		Salt:      salt,
		ExpiresAt: o.expiresAt.Unix(),
	})
}

// createParams converts a validated request into store parameters.
func (r *uploadInitRequest) createParams() createParams {
	ttl, _ := parseTTL(r.TTL)
	p := createParams{contentType: r.ContentType, ttl: ttl}
	if r.ContentType == contentTypeText {
		p.encryptedText = r.EncryptedText
	} else {
		p.fileSize = r.FileSize
	}
	return p
}

// parseTTL accepts a preset string or a number of minutes.
func parseTTL(raw json.RawMessage) (time.Duration, error) {
	invalid := newStatusError(http.StatusBadRequest,
		"TTL must be one of 1h, 12h, 24h or a number of minutes (%d-%d)", minCustomTTL, maxCustomTTL)

	var preset string
	if err := json.Unmarshal(raw, &preset); err == nil {
		if d, ok := ttlPresets[preset]; ok {
			return d, nil
		}
		return 0, invalid
	}
	var minutes float64
	if err := json.Unmarshal(raw, &minutes); err != nil {
		return 0, invalid
	}
	if minutes < minCustomTTL || minutes > maxCustomTTL {
		return 0, invalid
	}
	return time.Duration(minutes) * time.Minute, nil
}

func (s *Server) metadata(w http.ResponseWriter, r *http.Request) {
	o, err := s.store.metadata(fileID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, metadataResponse{
		FileID:        o.id,
		ContentType:   o.contentType,
		FileSize:      o.fileSize,
		Available:     o.available(s.now()),
		ExpiresAt:     o.expiresAt.Unix(),
		AccessMode:    o.accessMode,
		Salt:          vaultOnly(o, o.salt),
		EncryptedKey:  vaultOnly(o, o.encryptedKey),
		DownloadCount: o.downloadCount,
	})
}

func vaultOnly(o object, v string) string {
	if o.accessMode != accessMulti {
		return ""
	}
	return v
}

func (s *Server) download(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if !s.decode(w, r, &req) {
		return
	}
	o, err := s.store.download(fileID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Infow("download reserved", "file_id", o.id, "access_mode", o.accessMode, "count", o.downloadCount)
	writeJSON(w, http.StatusOK, s.downloadResponse(r, o))
}

func (s *Server) downloadResponse(r *http.Request, o object) downloadResponse {
	resp := downloadResponse{
		ContentType: o.contentType,
		FileSize:    o.fileSize,
		AccessMode:  o.accessMode,
	}
	if o.contentType == contentTypeText {
		resp.EncryptedText = o.encryptedText
	} else {
		resp.DownloadURL = s.objectURL(r, o.id, o.downloadToken)
	}
	return resp
}

func (s *Server) confirm(w http.ResponseWriter, r *http.Request) {
	id := fileID(r)
	if err := s.store.confirm(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Download confirmed"})
}

func (s *Server) report(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	count, err := s.store.report(fileID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Infow("abuse report", "file_id", fileID(r), "count", count)
	writeJSON(w, http.StatusOK, map[string]any{
		"message":      "Report submitted successfully",
		"report_count": count,
	})
}

func (s *Server) pinInitiate(w http.ResponseWriter, r *http.Request) {
	var req pinInitiateRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	o, err := s.store.pinInitiate(req.FileID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_expires": o.sessionExpires.Unix(),
		"attempts_left":   o.attemptsLeft,
	})
}

func (s *Server) pinVerify(w http.ResponseWriter, r *http.Request) {
	var req pinVerifyRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	o, err := s.store.pinVerify(req.FileID, req.PIN)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := s.downloadResponse(r, o)
	resp.Salt = o.salt
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) putObject(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxObjectBody+1))
	if err != nil {
		s.writeError(w, r, newStatusError(http.StatusBadRequest, "read body: %v", err))
		return
	}
	if len(data) > maxObjectBody {
		s.writeError(w, r, newStatusError(http.StatusRequestEntityTooLarge, "Object too large"))
		return
	}
	if err := s.store.putObject(chi.URLParam(r, "id"), r.URL.Query().Get("token"), data); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) getObject(w http.ResponseWriter, r *http.Request) {
	data, err := s.store.getObject(chi.URLParam(r, "id"), r.URL.Query().Get("token"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// objectURL returns the presigned-style URL for an object, or "" without a token.
func (s *Server) objectURL(r *http.Request, id, token string) string {
	if token == "" {
		return ""
	}
	base := s.publicURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return strings.TrimRight(base, "/") + "/objects/" + id + "?token=" + token
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err == nil && len(strings.TrimSpace(string(body))) == 0 {
		err = errors.New("empty body")
	}
	if err == nil {
		err = json.Unmarshal(body, v)
	}
	if err != nil {
		s.writeError(w, r, newStatusError(http.StatusBadRequest, "Invalid JSON in request body"))
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": verrs.Error()})
		return
	}
	var se *statusError
	if !errors.As(err, &se) {
		s.logger.Errorw("internal error", "path", r.URL.Path, "error", err)
		se = &statusError{code: http.StatusInternalServerError, msg: "Internal server error"}
	}
	writeJSON(w, se.code, map[string]string{"error": se.msg})
}

// fileID returns the id path parameter, lowercased the way the backend
// does before lookup.
func fileID(r *http.Request) string {
	return strings.ToLower(chi.URLParam(r, "id"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
