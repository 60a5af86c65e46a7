package sdbx

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdbx/client-go/internal/crypto"
	"github.com/sdbx/client-go/internal/devserver"
	"github.com/sdbx/client-go/internal/sharelink"
)

const testShareBase = "https://sdbx.test"

type testBackend struct {
	srv      *httptest.Server
	requests atomic.Int64

	mu    sync.Mutex
	fails map[string]int
}

// failWith makes every request whose method matches and whose path ends
// in suffix answer status instead of reaching the backend.
func (b *testBackend) failWith(method, suffix string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fails == nil {
		b.fails = make(map[string]int)
	}
	b.fails[method+" "+suffix] = status
}

func (b *testBackend) failure(r *http.Request) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for key, status := range b.fails {
		method, suffix, _ := strings.Cut(key, " ")
		if r.Method == method && strings.HasSuffix(r.URL.Path, suffix) {
			return status, true
		}
	}
	return 0, false
}

// newTestClient returns a client talking to a fresh in-memory backend.
func newTestClient(t *testing.T, opts ...Option) (*Client, *testBackend) {
	t.Helper()
	b := &testBackend{}
	handler := devserver.New(devserver.Config{}).Handler()
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.requests.Add(1)
		if status, ok := b.failure(r); ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = io.WriteString(w, `{"error":"`+http.StatusText(status)+`"}`)
			return
		}
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(b.srv.Close)

	opts = append([]Option{WithShareBaseURL(testShareBase)}, opts...)
	c, err := New(b.srv.URL, opts...)
	require.NoError(t, err)
	return c, b
}

// progressLog collects progress reports and checks they never go backwards.
type progressLog struct {
	mu      sync.Mutex
	reports []Progress
}

func (l *progressLog) record(p Progress) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reports = append(l.reports, p)
}

func (l *progressLog) assertComplete(t *testing.T) {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()

	require.NotEmpty(t, l.reports)
	assert.Equal(t, 0, l.reports[0].Percent)
	last := l.reports[len(l.reports)-1]
	assert.Equal(t, StateDone, last.State)
	assert.Equal(t, 100, last.Percent)
	for i := 1; i < len(l.reports); i++ {
		assert.GreaterOrEqual(t, l.reports[i].Percent, l.reports[i-1].Percent,
			"progress went backwards at report %d (%v)", i, l.reports[i])
	}
}

func (l *progressLog) states() []State {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []State
	for _, p := range l.reports {
		if len(out) == 0 || out[len(out)-1] != p.State {
			out = append(out, p.State)
		}
	}
	return out
}

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	_, err := rand.Read(b)
	require.NoError(t, err)
	return b
}

func requireTransferError(t *testing.T, err error, state State, kind FailureKind) *TransferError {
	t.Helper()
	var te *TransferError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, state, te.State, "failed in the wrong state: %v", err)
	assert.Equal(t, kind, te.Kind, "wrong failure kind: %v", err)
	return te
}

func TestUploadDownload_LargeFile(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()
	data := randomBytes(t, 10<<20)

	var up progressLog
	share, err := c.Upload(ctx, []File{{Name: "archive.tar", Data: data}}, WithProgress(up.record))
	require.NoError(t, err)
	up.assertComplete(t)
	assert.Equal(t, []State{
		StatePreparing, StateKeying, StateEncrypting, StateUploading, StateFinalizing, StateDone,
	}, up.states())

	assert.Equal(t, "archive.tar", share.Name)
	assert.Equal(t, 1, share.FileCount)
	assert.Equal(t, int64(len(data)+crypto.EnvelopeOverhead), share.Size)
	assert.False(t, share.Vault)
	assert.True(t, strings.HasPrefix(share.Link, testShareBase+"/download.html#"+share.FileID+"#"))
	assert.True(t, strings.HasSuffix(share.Link, "#archive.tar"))
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), share.ExpiresAt, time.Minute)

	var down progressLog
	result, err := c.Download(ctx, share.Link, WithProgress(down.record))
	require.NoError(t, err)
	down.assertComplete(t)
	assert.Equal(t, []State{
		StatePreparing, StateKeying, StateFetching, StateDecrypting, StateDone,
	}, down.states())

	assert.Equal(t, KindFile, result.Kind)
	assert.Equal(t, "archive.tar", result.Name)
	assert.Equal(t, AccessOneTime, result.AccessMode)
	assert.True(t, bytes.Equal(data, result.Data), "plaintext mismatch")
}

func TestDownload_SingleAccess(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	share, err := c.Upload(ctx, []File{{Name: "a.txt", Data: []byte("once")}})
	require.NoError(t, err)

	_, err = c.Download(ctx, share.Link)
	require.NoError(t, err)

	_, err = c.Download(ctx, share.Link)
	require.ErrorIs(t, err, ErrGone)
	requireTransferError(t, err, StatePreparing, FailureGone)

	info, err := c.Info(ctx, share.FileID)
	require.NoError(t, err)
	assert.False(t, info.Available)
}

func TestUpload_Bundle(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	c, _ := newTestClient(t, WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	var up progressLog
	share, err := c.Upload(ctx, []File{
		{Name: "notes.txt", Data: []byte("first")},
		{Name: "notes.txt", Data: []byte("second")},
		{Name: "image.png", Data: randomBytes(t, 4096)},
	}, WithProgress(up.record), WithTTL(TTL1Hour))
	require.NoError(t, err)
	up.assertComplete(t)
	assert.Equal(t, "bundle-2026-03-01.zip", share.Name)
	assert.Equal(t, 3, share.FileCount)
	assert.WithinDuration(t, time.Now().Add(time.Hour), share.ExpiresAt, time.Minute)

	result, err := c.Download(ctx, share.Link)
	require.NoError(t, err)
	assert.Equal(t, "bundle-2026-03-01.zip", result.Name)

	zr, err := zip.NewReader(bytes.NewReader(result.Data), int64(len(result.Data)))
	require.NoError(t, err)
	contents := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		contents[f.Name] = string(b)
	}
	assert.Len(t, contents, 3)
	assert.Equal(t, "first", contents["notes.txt"])
	assert.Equal(t, "second", contents["notes (1).txt"])
	assert.Contains(t, contents, "image.png")
}

func TestUploadText(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	var up progressLog
	share, err := c.UploadText(ctx, "the launch code is 0000", WithProgress(up.record))
	require.NoError(t, err)
	up.assertComplete(t)
	assert.True(t, share.IsText())

	frag, err := sharelink.Parse(share.Link)
	require.NoError(t, err)
	assert.Empty(t, frag.Name)

	result, err := c.Download(ctx, share.Link)
	require.NoError(t, err)
	assert.Equal(t, KindText, result.Kind)
	assert.Equal(t, "the launch code is 0000", result.Text)
	assert.Empty(t, result.Data)
}

func TestVault(t *testing.T) {
	c, b := newTestClient(t)
	ctx := context.Background()
	data := randomBytes(t, 64<<10)

	share, err := c.UploadVault(ctx, []File{{Name: "keys.db", Data: data}}, "correct horse")
	require.NoError(t, err)
	assert.True(t, share.Vault)
	assert.True(t, strings.HasSuffix(share.Link, "#keys.db#vault"))

	t.Run("missing password", func(t *testing.T) {
		_, err := c.Download(ctx, share.Link)
		require.ErrorIs(t, err, ErrPasswordRequired)
		requireTransferError(t, err, StateUnlocking, FailureWrongPassword)
	})

	t.Run("wrong password", func(t *testing.T) {
		before := b.requests.Load()
		_, err := c.Download(ctx, share.Link, WithPassword("battery staple"))
		require.ErrorIs(t, err, ErrWrongPassword)
		requireTransferError(t, err, StateUnlocking, FailureWrongPassword)
		assert.Equal(t, before+1, b.requests.Load(), "only metadata may be fetched before unlocking")
	})

	t.Run("correct password, repeatedly", func(t *testing.T) {
		for range 2 {
			var down progressLog
			result, err := c.Download(ctx, share.Link, WithPassword("correct horse"), WithProgress(down.record))
			require.NoError(t, err)
			down.assertComplete(t)
			assert.Equal(t, []State{
				StatePreparing, StateUnlocking, StateFetching, StateDecrypting, StateDone,
			}, down.states())
			assert.True(t, result.Vault)
			assert.Equal(t, AccessMulti, result.AccessMode)
			assert.True(t, bytes.Equal(data, result.Data))
		}

		info, err := c.Info(ctx, share.Link)
		require.NoError(t, err)
		assert.True(t, info.Available)
		assert.True(t, info.Vault)
		assert.Equal(t, 2, info.DownloadCount)
	})

	t.Run("password prompt", func(t *testing.T) {
		prompted := 0
		result, err := c.Download(ctx, share.Link, WithPasswordPrompt(func(context.Context) (string, error) {
			prompted++
			return "correct horse", nil
		}))
		require.NoError(t, err)
		assert.Equal(t, 1, prompted)
		assert.Equal(t, "keys.db", result.Name)
	})
}

func TestVault_Validation(t *testing.T) {
	c, b := newTestClient(t)

	_, err := c.UploadVault(context.Background(), []File{{Name: "a", Data: []byte("x")}}, "abc")
	require.ErrorIs(t, err, ErrValidation)
	requireTransferError(t, err, StateIdle, FailureValidation)
	assert.Zero(t, b.requests.Load())
}

func TestVaultText(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()
	secret := strings.Repeat("multi-line secret\n", 1000)

	share, err := c.UploadVaultText(ctx, secret, "p4ssword")
	require.NoError(t, err)
	assert.True(t, share.IsText())
	assert.True(t, strings.HasSuffix(share.Link, "#vault"))

	result, err := c.Download(ctx, share.Link, WithPassword("p4ssword"))
	require.NoError(t, err)
	assert.Equal(t, KindText, result.Kind)
	assert.Equal(t, secret, result.Text)
}

func TestPasswordPromptNotCalledForLinkShares(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	share, err := c.Upload(ctx, []File{{Name: "a.txt", Data: []byte("x")}})
	require.NoError(t, err)

	_, err = c.Download(ctx, share.Link, WithPasswordPrompt(func(context.Context) (string, error) {
		t.Error("password prompt called for a link share")
		return "", nil
	}))
	require.NoError(t, err)
}

func TestPIN(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()
	data := randomBytes(t, 1<<20)

	var up progressLog
	share, err := c.UploadPIN(ctx, []File{{Name: "scan.pdf", Data: data}}, "Ab12", WithProgress(up.record))
	require.NoError(t, err)
	up.assertComplete(t)
	assert.True(t, share.PIN)
	assert.Empty(t, share.Link)
	assert.Regexp(t, `^[0-9]{6}$`, share.FileID)

	session, err := c.StartPIN(ctx, share.FileID)
	require.NoError(t, err)
	assert.Equal(t, 3, session.AttemptsLeft)

	_, err = c.DownloadPIN(ctx, share.FileID, "zz99")
	require.ErrorIs(t, err, ErrWrongPassword)
	requireTransferError(t, err, StateUnlocking, FailureWrongPassword)

	session, err = c.StartPIN(ctx, share.FileID)
	require.NoError(t, err)
	assert.Equal(t, 2, session.AttemptsLeft)

	var down progressLog
	result, err := c.DownloadPIN(ctx, share.FileID, "Ab12", WithProgress(down.record))
	require.NoError(t, err)
	down.assertComplete(t)
	assert.Equal(t, KindFile, result.Kind)
	assert.Equal(t, DefaultFileName, result.Name)
	assert.True(t, bytes.Equal(data, result.Data))

	_, err = c.DownloadPIN(ctx, share.FileID, "Ab12")
	require.ErrorIs(t, err, ErrGone)
}

func TestPIN_Lockout(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	share, err := c.UploadPIN(ctx, []File{{Name: "a", Data: []byte("x")}}, "1234")
	require.NoError(t, err)

	for range 2 {
		_, err = c.DownloadPIN(ctx, share.FileID, "0000")
		require.ErrorIs(t, err, ErrWrongPassword)
	}
	_, err = c.DownloadPIN(ctx, share.FileID, "0000")
	require.ErrorIs(t, err, ErrLocked)
	requireTransferError(t, err, StateUnlocking, FailureLocked)

	_, err = c.DownloadPIN(ctx, share.FileID, "1234")
	require.ErrorIs(t, err, ErrLocked)
	requireTransferError(t, err, StatePreparing, FailureLocked)
}

func TestPIN_Validation(t *testing.T) {
	c, b := newTestClient(t)
	ctx := context.Background()

	_, err := c.UploadPIN(ctx, []File{{Name: "a", Data: []byte("x")}}, "12345")
	require.ErrorIs(t, err, ErrInvalidPIN)
	requireTransferError(t, err, StateIdle, FailureValidation)

	_, err = c.DownloadPIN(ctx, "123456", "a!b2")
	require.ErrorIs(t, err, ErrInvalidPIN)

	_, err = c.DownloadPIN(ctx, "12345", "abcd")
	require.ErrorIs(t, err, ErrInvalidLink)

	assert.Zero(t, b.requests.Load())
}

func TestDownload_Errors(t *testing.T) {
	c, b := newTestClient(t)
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		link := testShareBase + "/download.html#3f8b2a4e-9c1d-4e5f-a6b7-8c9d0e1f2a3b#" + crypto.ToTransport(key)

		_, err = c.Download(ctx, link)
		require.ErrorIs(t, err, ErrNotFound)
		requireTransferError(t, err, StatePreparing, FailureNotFound)
	})

	t.Run("invalid link", func(t *testing.T) {
		before := b.requests.Load()
		for _, link := range []string{
			testShareBase + "/download.html",
			"#only-one-segment",
			"#not-a-uuid#a2V5",
		} {
			_, err := c.Download(ctx, link)
			require.ErrorIs(t, err, ErrInvalidLink, link)
			requireTransferError(t, err, StatePreparing, FailureInvalidKey)
		}
		assert.Equal(t, before, b.requests.Load(), "invalid links must not reach the network")
	})

	t.Run("malformed key", func(t *testing.T) {
		share, err := c.Upload(ctx, []File{{Name: "a", Data: []byte("x")}})
		require.NoError(t, err)
		frag, err := sharelink.Parse(share.Link)
		require.NoError(t, err)
		frag.Secret = "c2hvcnQ="

		link, err := sharelink.BuildURL(testShareBase, frag)
		require.NoError(t, err)
		_, err = c.Download(ctx, link)
		require.ErrorIs(t, err, ErrInvalidKeyMaterial)
		requireTransferError(t, err, StateKeying, FailureInvalidKey)
	})

	t.Run("wrong key", func(t *testing.T) {
		share, err := c.Upload(ctx, []File{{Name: "a", Data: []byte("x")}})
		require.NoError(t, err)
		frag, err := sharelink.Parse(share.Link)
		require.NoError(t, err)
		other, err := crypto.GenerateKey()
		require.NoError(t, err)
		frag.Secret = crypto.ToTransport(other)

		link, err := sharelink.BuildURL(testShareBase, frag)
		require.NoError(t, err)
		_, err = c.Download(ctx, link)
		require.ErrorIs(t, err, ErrAuthenticationFailed)
		requireTransferError(t, err, StateDecrypting, FailureCorrupted)
	})

	t.Run("uppercase file id", func(t *testing.T) {
		data := []byte("case")
		share, err := c.Upload(ctx, []File{{Name: "a.txt", Data: data}})
		require.NoError(t, err)
		frag, err := sharelink.Parse(share.Link)
		require.NoError(t, err)
		frag.ID = strings.ToUpper(frag.ID)

		link, err := sharelink.BuildURL(testShareBase, frag)
		require.NoError(t, err)
		info, err := c.Info(ctx, strings.ToUpper(share.FileID))
		require.NoError(t, err)
		assert.Equal(t, share.FileID, info.FileID)

		result, err := c.Download(ctx, link)
		require.NoError(t, err)
		assert.Equal(t, data, result.Data)
	})

	t.Run("confirm failure keeps the plaintext", func(t *testing.T) {
		c, b := newTestClient(t)
		data := randomBytes(t, 4096)
		share, err := c.Upload(ctx, []File{{Name: "a.bin", Data: data}})
		require.NoError(t, err)

		b.failWith(http.MethodPost, "/confirm", http.StatusInternalServerError)
		result, err := c.Download(ctx, share.Link)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(data, result.Data))
	})

	t.Run("gone at download request", func(t *testing.T) {
		c, b := newTestClient(t)
		share, err := c.Upload(ctx, []File{{Name: "a", Data: []byte("x")}})
		require.NoError(t, err)

		info, err := c.Info(ctx, share.Link)
		require.NoError(t, err)
		require.True(t, info.Available)

		b.failWith(http.MethodPost, "/download", http.StatusGone)
		_, err = c.Download(ctx, share.Link)
		require.ErrorIs(t, err, ErrGone)
		requireTransferError(t, err, StateFetching, FailureGone)
	})
}

func TestDeclaredSize(t *testing.T) {
	tests := []struct {
		name    string
		size    int64
		vault   bool
		want    int64
		wantErr bool
	}{
		{"link at limit", MaxTotalSize, false, MaxTotalSize, false},
		{"link over limit", MaxTotalSize + 1, false, MaxTotalSize + 1, true},
		{"vault envelope at limit", MaxTotalSize - crypto.EnvelopeOverhead, true, MaxTotalSize, false},
		{"vault plaintext at limit", MaxTotalSize, true, MaxTotalSize + crypto.EnvelopeOverhead, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, declaredSize(int(tt.size), tt.vault))
			err := checkDeclaredSize(int(tt.size), tt.vault)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrValidation)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestUpload_DeclaredSize(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()
	data := randomBytes(t, 1000)

	share, err := c.Upload(ctx, []File{{Name: "a.bin", Data: data}})
	require.NoError(t, err)
	info, err := c.Info(ctx, share.Link)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), info.Size)

	vault, err := c.UploadVault(ctx, []File{{Name: "a.bin", Data: data}}, "correct horse battery")
	require.NoError(t, err)
	info, err = c.Info(ctx, vault.Link)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)+crypto.EnvelopeOverhead), info.Size)
}

func TestUpload_ValidationBeforeNetwork(t *testing.T) {
	c, b := newTestClient(t)
	ctx := context.Background()

	tests := []struct {
		name string
		run  func() error
	}{
		{"no files", func() error { _, err := c.Upload(ctx, nil); return err }},
		{"empty file", func() error {
			_, err := c.Upload(ctx, []File{{Name: "empty.txt"}})
			return err
		}},
		{"nameless file", func() error {
			_, err := c.Upload(ctx, []File{{Name: " ", Data: []byte("x")}})
			return err
		}},
		{"too many files", func() error {
			files := make([]File, MaxFiles+1)
			for i := range files {
				files[i] = File{Name: "f", Data: []byte("x")}
			}
			_, err := c.Upload(ctx, files)
			return err
		}},
		{"blank text", func() error { _, err := c.UploadText(ctx, "  \n"); return err }},
		{"text too long", func() error {
			_, err := c.UploadText(ctx, strings.Repeat("a", MaxTextLength))
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			require.ErrorIs(t, err, ErrValidation)
			var te *TransferError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, FailureValidation, te.Kind)
		})
	}
	assert.Zero(t, b.requests.Load())
}

func TestUpload_Canceled(t *testing.T) {
	c, _ := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Upload(ctx, []File{{Name: "a", Data: []byte("x")}})
	require.ErrorIs(t, err, context.Canceled)
	requireTransferError(t, err, StateEncrypting, FailureCanceled)
}

func TestInfoAndReport(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	share, err := c.Upload(ctx, []File{{Name: "doc.pdf", Data: []byte("%PDF")}}, WithTTL(TTL12Hours))
	require.NoError(t, err)

	info, err := c.Info(ctx, share.Link)
	require.NoError(t, err)
	assert.Equal(t, share.FileID, info.FileID)
	assert.Equal(t, KindFile, info.Kind)
	assert.Equal(t, "doc.pdf", info.Name)
	assert.Equal(t, int64(len("%PDF")), info.Size, "link shares declare the plaintext size")
	assert.True(t, info.Available)
	assert.False(t, info.Vault)
	assert.Equal(t, share.ExpiresAt, info.ExpiresAt)

	byID, err := c.Info(ctx, share.FileID)
	require.NoError(t, err)
	assert.Empty(t, byID.Name)
	assert.True(t, byID.Available)

	res, err := c.Report(ctx, share.FileID, "  phishing  ")
	require.NoError(t, err)
	assert.Equal(t, 1, res.ReportCount)
	assert.NotEmpty(t, res.Message)

	_, err = c.Report(ctx, share.FileID, strings.Repeat("x", MaxReportReasonLength+1))
	require.ErrorIs(t, err, ErrValidation)

	_, err = c.Report(ctx, "nope", "")
	require.ErrorIs(t, err, ErrInvalidLink)

	_, err = c.Report(ctx, "3f8b2a4e-9c1d-4e5f-a6b7-8c9d0e1f2a3b", "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTokenSourceActions(t *testing.T) {
	var mu sync.Mutex
	var actions []string
	c, _ := newTestClient(t, WithTokenSource(TokenFunc(func(_ context.Context, action string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		actions = append(actions, action)
		return "token", nil
	})))
	ctx := context.Background()

	share, err := c.Upload(ctx, []File{{Name: "a", Data: []byte("x")}})
	require.NoError(t, err)
	_, err = c.Download(ctx, share.Link)
	require.NoError(t, err)
	_, err = c.UploadPIN(ctx, []File{{Name: "a", Data: []byte("x")}}, "abcd")
	require.NoError(t, err)

	assert.Equal(t, []string{ActionUpload, ActionDownload, ActionPinUpload}, actions)
}

func TestTokenSourceError(t *testing.T) {
	boom := errors.New("captcha unavailable")
	c, _ := newTestClient(t, WithTokenSource(TokenFunc(func(context.Context, string) (string, error) {
		return "", boom
	})))

	_, err := c.Upload(context.Background(), []File{{Name: "a", Data: []byte("x")}})
	require.ErrorIs(t, err, boom)
	requireTransferError(t, err, StateUploading, FailureInternal)
}

func TestConcurrentTransfers(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data := bytes.Repeat([]byte{byte(i)}, 1024*(i+1))
			share, err := c.Upload(ctx, []File{{Name: "f.bin", Data: data}})
			if err != nil {
				errs <- err
				return
			}
			result, err := c.Download(ctx, share.Link)
			if err != nil {
				errs <- err
				return
			}
			if !bytes.Equal(data, result.Data) {
				errs <- errors.New("plaintext mismatch")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
