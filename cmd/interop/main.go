// Command interop exposes the sdbx wire primitives over JSON on stdin and
// stdout, so that another implementation can check byte-for-byte
// compatibility of envelopes, derived keys and share links.
//
// Usage:
//
//	interop <seal|open|derive|wrap|unwrap|encode-link|decode-link|resolve-names> < request.json
//
// Binary fields are standard base64.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sdbx/client-go/internal/archive"
	"github.com/sdbx/client-go/internal/crypto"
	"github.com/sdbx/client-go/internal/sharelink"
)

// Config holds the streams a run reads and writes.
type Config struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// DefaultConfig returns a Config using the process streams.
func DefaultConfig() Config {
	return Config{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Request carries the inputs of every command; each command reads only the
// fields it needs.
type Request struct {
	Key       string   `json:"key,omitempty"`
	Wrapper   string   `json:"wrapper,omitempty"`
	Wrapped   string   `json:"wrapped,omitempty"`
	Plaintext string   `json:"plaintext,omitempty"`
	Envelope  string   `json:"envelope,omitempty"`
	Password  string   `json:"password,omitempty"`
	Salt      string   `json:"salt,omitempty"`
	Base      string   `json:"base,omitempty"`
	Link      string   `json:"link,omitempty"`
	ID        string   `json:"id,omitempty"`
	Secret    string   `json:"secret,omitempty"`
	Name      string   `json:"name,omitempty"`
	Vault     bool     `json:"vault,omitempty"`
	Names     []string `json:"names,omitempty"`
}

type handler func(Request) (any, error)

var commands = map[string]handler{
	"seal":          seal,
	"open":          open,
	"derive":        derive,
	"wrap":          wrap,
	"unwrap":        unwrap,
	"encode-link":   encodeLink,
	"decode-link":   decodeLink,
	"resolve-names": resolveNames,
}

func run(args []string, cfg Config) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: interop <command> < request.json")
	}
	h, ok := commands[args[1]]
	if !ok {
		return fmt.Errorf("unknown command: %s", args[1])
	}

	var req Request
	if err := json.NewDecoder(cfg.Stdin).Decode(&req); err != nil && err != io.EOF {
		return fmt.Errorf("parse request: %w", err)
	}
	out, err := h(req)
	if err != nil {
		return fmt.Errorf("%s: %w", args[1], err)
	}
	if err := json.NewEncoder(cfg.Stdout).Encode(out); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

func decodeKey(field, s string) (crypto.Key, error) {
	raw, err := crypto.FromBase64(s)
	if err != nil {
		return crypto.Key{}, fmt.Errorf("%s: %w", field, err)
	}
	defer crypto.Wipe(raw)
	k, err := crypto.ImportRaw(raw)
	if err != nil {
		return crypto.Key{}, fmt.Errorf("%s: %w", field, err)
	}
	return k, nil
}

func seal(req Request) (any, error) {
	key, err := decodeKey("key", req.Key)
	if err != nil {
		return nil, err
	}
	plaintext, err := crypto.FromBase64(req.Plaintext)
	if err != nil {
		return nil, fmt.Errorf("plaintext: %w", err)
	}
	env, err := crypto.Seal(plaintext, key)
	if err != nil {
		return nil, err
	}
	return map[string]string{"envelope": crypto.ToBase64(env)}, nil
}

func open(req Request) (any, error) {
	key, err := decodeKey("key", req.Key)
	if err != nil {
		return nil, err
	}
	env, err := crypto.FromBase64(req.Envelope)
	if err != nil {
		return nil, fmt.Errorf("envelope: %w", err)
	}
	plaintext, err := crypto.Open(env, key)
	if err != nil {
		return nil, err
	}
	return map[string]string{"plaintext": crypto.ToBase64(plaintext)}, nil
}

func derive(req Request) (any, error) {
	salt, err := crypto.FromBase64(req.Salt)
	if err != nil {
		return nil, fmt.Errorf("salt: %w", err)
	}
	key, err := crypto.DeriveKey(req.Password, salt)
	if err != nil {
		return nil, err
	}
	return map[string]string{"key": crypto.ToTransport(key)}, nil
}

func wrap(req Request) (any, error) {
	key, err := decodeKey("key", req.Key)
	if err != nil {
		return nil, err
	}
	wrapper, err := decodeKey("wrapper", req.Wrapper)
	if err != nil {
		return nil, err
	}
	wrapped, err := crypto.WrapKey(key, wrapper)
	if err != nil {
		return nil, err
	}
	return map[string]string{"wrapped": crypto.ToBase64(wrapped)}, nil
}

func unwrap(req Request) (any, error) {
	wrapper, err := decodeKey("wrapper", req.Wrapper)
	if err != nil {
		return nil, err
	}
	wrapped, err := crypto.FromBase64(req.Wrapped)
	if err != nil {
		return nil, fmt.Errorf("wrapped: %w", err)
	}
	key, err := crypto.UnwrapKey(wrapped, wrapper)
	if err != nil {
		return nil, err
	}
	return map[string]string{"key": crypto.ToTransport(key)}, nil
}

func encodeLink(req Request) (any, error) {
	f := sharelink.Fragment{ID: req.ID, Secret: req.Secret, Name: req.Name, Vault: req.Vault}
	if req.Base == "" {
		frag, err := sharelink.Encode(f)
		if err != nil {
			return nil, err
		}
		return map[string]string{"link": frag}, nil
	}
	link, err := sharelink.BuildURL(req.Base, f)
	if err != nil {
		return nil, err
	}
	return map[string]string{"link": link}, nil
}

func decodeLink(req Request) (any, error) {
	f, err := sharelink.Parse(req.Link)
	if err != nil {
		return nil, err
	}
	return Request{ID: f.ID, Secret: f.Secret, Name: f.Name, Vault: f.Vault}, nil
}

func resolveNames(req Request) (any, error) {
	files := make([]archive.File, len(req.Names))
	for i, n := range req.Names {
		files[i] = archive.File{Name: n}
	}
	return map[string][]string{"names": archive.ResolveNames(files)}, nil
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
