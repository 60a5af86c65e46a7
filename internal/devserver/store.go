package devserver

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Lifetimes and limits, matching the production backend.
const (
	uploadURLTTL       = 15 * time.Minute
	downloadURLTTL     = 5 * time.Minute
	reservationTimeout = 10 * time.Minute
	pinSessionTTL      = 60 * time.Second
	pinLockout         = 12 * time.Hour
	pinMaxAttempts     = 3
	pinCodeDigits      = 6
	pinCodeCollisions  = 10

	// maxFileSize bounds the declared file_size; storage accepts the
	// envelope of a file that size.
	maxFileSize      = 500 << 20
	maxObjectBody    = maxFileSize + envelopeOverhead
	envelopeOverhead = 28
	maxTextOneTime   = 10_000
	maxTextMulti     = 100_000
	maxWrappedKeyLen = 200
	maxSaltLen       = 50
	minCustomTTL     = 5
	maxCustomTTL     = 7 * 24 * 60
)

const (
	accessOneTime   = "one_time"
	accessMulti     = "multi"
	contentTypeFile = "file"
	contentTypeText = "text"
)

// statusError is an error with the HTTP status it is reported as.
type statusError struct {
	code int
	msg  string
}

func (e *statusError) Error() string {
	return e.msg
}

func newStatusError(code int, format string, args ...any) *statusError {
	return &statusError{code: code, msg: fmt.Sprintf(format, args...)}
}

var (
	errNotFound     = &statusError{http.StatusNotFound, "File not found"}
	errExpired      = &statusError{http.StatusGone, "File expired"}
	errDownloaded   = &statusError{http.StatusGone, "File already downloaded"}
	errReserved     = &statusError{http.StatusConflict, "File is currently being downloaded"}
	errNoSession    = &statusError{http.StatusBadRequest, "PIN session expired. Please start again"}
	errAccessDenied = &statusError{http.StatusForbidden, "Request has expired"}
)

// object is one stored share.
type object struct {
	id            string
	contentType   string
	accessMode    string
	fileSize      int64
	createdAt     time.Time
	expiresAt     time.Time
	salt          string
	encryptedKey  string
	encryptedText string

	data            []byte
	uploaded        bool
	uploadToken     string
	uploadExpires   time.Time
	downloadToken   string
	downloadExpires time.Time

	reservedUntil time.Time
	downloaded    bool
	downloadCount int
	reports       int

	// PIN shares only.
	pin            bool
	pinHash        [sha256.Size]byte
	attemptsLeft   int
	lockedUntil    time.Time
	sessionExpires time.Time
}

func (o *object) available(now time.Time) bool {
	if !now.Before(o.expiresAt) || o.downloaded {
		return false
	}
	return o.contentType == contentTypeText || o.uploaded
}

// store keeps every object in memory.
type store struct {
	mu      sync.Mutex
	objects map[string]*object
	now     func() time.Time
}

func newStore(now func() time.Time) *store {
	return &store{objects: make(map[string]*object), now: now}
}

// get returns a live object. Expired objects are dropped on access.
func (s *store) get(id string) (*object, error) {
	o, ok := s.objects[id]
	if !ok {
		return nil, errNotFound
	}
	if !s.now().Before(o.expiresAt) {
		delete(s.objects, id)
		return nil, errExpired
	}
	return o, nil
}

type createParams struct {
	contentType   string
	accessMode    string
	fileSize      int64
	ttl           time.Duration
	salt          string
	encryptedKey  string
	encryptedText string
}

func (s *store) create(p createParams) *object {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	o := s.newObject(id, p)
	s.objects[id] = o
	return o
}

// createPIN stores a PIN share under a fresh 6-digit code. The salt is
// generated here; the client derives its content key from it.
func (s *store) createPIN(p createParams, pin string) (*object, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for range pinCodeCollisions {
		code, err := randomCode()
		if err != nil {
			return nil, "", err
		}
		if existing, ok := s.objects[code]; ok && s.now().Before(existing.expiresAt) {
			continue
		}

		saltBytes := make([]byte, 16)
		if _, err := rand.Read(saltBytes); err != nil {
			return nil, "", err
		}
		salt := hex.EncodeToString(saltBytes)

		o := s.newObject(code, p)
		o.pin = true
		o.salt = salt
		o.pinHash = hashPIN(salt, pin)
		o.attemptsLeft = pinMaxAttempts
		s.objects[code] = o
		return o, salt, nil
	}
	return nil, "", newStatusError(http.StatusInternalServerError, "Failed to generate unique file ID. Please try again.")
}

func (s *store) newObject(id string, p createParams) *object {
	now := s.now()
	o := &object{
		id:            id,
		contentType:   p.contentType,
		accessMode:    p.accessMode,
		fileSize:      p.fileSize,
		createdAt:     now,
		expiresAt:     now.Add(p.ttl),
		salt:          p.salt,
		encryptedKey:  p.encryptedKey,
		encryptedText: p.encryptedText,
	}
	if p.contentType == contentTypeText {
		o.fileSize = int64(len(p.encryptedText))
	} else {
		o.uploadToken = uuid.NewString()
		o.uploadExpires = now.Add(uploadURLTTL)
	}
	return o
}

// metadata returns a copy of the object for read-only use.
func (s *store) metadata(id string) (object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, err := s.get(id)
	if err != nil {
		return object{}, err
	}
	return *o, nil
}

// download hands out the content of an object. Vault objects count the
// download; single-access objects are reserved until confirmed.
func (s *store) download(id string) (object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, err := s.get(id)
	if err != nil {
		return object{}, err
	}
	if err := s.reserve(o); err != nil {
		return object{}, err
	}
	return *o, nil
}

func (s *store) reserve(o *object) error {
	now := s.now()
	if o.contentType == contentTypeFile && !o.uploaded {
		return errNotFound
	}
	if o.accessMode == accessMulti {
		o.downloadCount++
	} else {
		if o.downloaded {
			return errDownloaded
		}
		if now.Before(o.reservedUntil) {
			return errReserved
		}
		o.reservedUntil = now.Add(reservationTimeout)
	}
	if o.contentType == contentTypeFile {
		o.downloadToken = uuid.NewString()
		o.downloadExpires = now.Add(downloadURLTTL)
	}
	return nil
}

// confirm marks a reserved single-access object as consumed and drops its
// content.
func (s *store) confirm(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, err := s.get(id)
	if err != nil {
		return err
	}
	if o.accessMode == accessMulti || o.downloaded {
		return nil
	}
	if o.reservedUntil.IsZero() {
		return newStatusError(http.StatusBadRequest, "No active download reservation")
	}
	o.downloaded = true
	o.downloadCount++
	o.data = nil
	o.encryptedText = ""
	o.downloadToken = ""
	return nil
}

func (s *store) report(id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, err := s.get(id)
	if err != nil {
		return 0, err
	}
	o.reports++
	return o.reports, nil
}

func (s *store) putObject(id, token string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.objects[id]
	if !ok || o.uploadToken == "" || !tokenMatches(o.uploadToken, token) || !s.now().Before(o.uploadExpires) {
		return errAccessDenied
	}
	o.data = data
	o.uploaded = true
	o.uploadToken = ""
	return nil
}

func (s *store) getObject(id, token string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.objects[id]
	if !ok || o.downloadToken == "" || !tokenMatches(o.downloadToken, token) ||
		!s.now().Before(o.downloadExpires) || o.data == nil {
		return nil, errAccessDenied
	}
	return o.data, nil
}

// pinInitiate opens a PIN entry session. An expired lockout resets the
// attempt counter.
func (s *store) pinInitiate(code string) (object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, err := s.getPIN(code)
	if err != nil {
		return object{}, err
	}
	now := s.now()
	if now.Before(o.lockedUntil) {
		return object{}, lockedError(o.lockedUntil.Sub(now))
	}
	if !o.lockedUntil.IsZero() {
		o.lockedUntil = time.Time{}
		o.attemptsLeft = pinMaxAttempts
	}
	o.sessionExpires = now.Add(pinSessionTTL)
	return *o, nil
}

// pinVerify checks a PIN within an open session. A wrong PIN costs one
// attempt; the last one locks the code. A correct PIN reserves the object.
func (s *store) pinVerify(code, pin string) (object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, err := s.getPIN(code)
	if err != nil {
		return object{}, err
	}
	now := s.now()
	if o.sessionExpires.IsZero() || !now.Before(o.sessionExpires) {
		return object{}, errNoSession
	}
	if now.Before(o.lockedUntil) || o.attemptsLeft <= 0 {
		return object{}, lockedError(o.lockedUntil.Sub(now))
	}

	want := o.pinHash
	got := hashPIN(o.salt, pin)
	if subtle.ConstantTimeCompare(want[:], got[:]) != 1 {
		o.attemptsLeft--
		if o.attemptsLeft <= 0 {
			o.lockedUntil = now.Add(pinLockout)
			return object{}, newStatusError(http.StatusLocked, "Incorrect PIN. File locked for 12 hours")
		}
		return object{}, newStatusError(http.StatusBadRequest, "Incorrect PIN. %d attempts left", o.attemptsLeft)
	}

	if err := s.reserve(o); err != nil {
		return object{}, err
	}
	o.sessionExpires = time.Time{}
	return *o, nil
}

func (s *store) getPIN(code string) (*object, error) {
	o, err := s.get(code)
	if err != nil {
		return nil, err
	}
	if !o.pin {
		return nil, errNotFound
	}
	if o.downloaded {
		return nil, errDownloaded
	}
	return o, nil
}

// sweep drops expired objects and returns how many were removed.
func (s *store) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for id, o := range s.objects {
		if !now.Before(o.expiresAt) {
			delete(s.objects, id)
			n++
		}
	}
	return n
}

func lockedError(remaining time.Duration) *statusError {
	hours := int(remaining.Hours()) + 1
	return newStatusError(http.StatusLocked, "File is locked. Try again in %d hours", hours)
}

func hashPIN(salt, pin string) [sha256.Size]byte {
	return sha256.Sum256([]byte(salt + ":" + pin))
}

func tokenMatches(want, got string) bool {
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", pinCodeDigits, n.Int64()), nil
}
