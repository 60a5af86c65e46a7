// Package sdbx provides a Go client SDK for sdbx, an ephemeral file and
// text sharing service with end-to-end encryption.
//
// Content is sealed with AES-256-GCM on the sender's machine. The backend
// stores ciphertext only; the key travels in the URL fragment of the share
// link, which is never sent to the server.
//
// Three kinds of share are supported:
//
//   - Link shares: single-access. The link carries the key.
//   - Vault shares: multi-access and password protected. The link carries a
//     salt; the key is wrapped under a key derived from the password.
//   - PIN shares: a 6-digit code plus a 4-character PIN.
//
// Basic usage:
//
//	client, err := sdbx.New("https://api.example.com/prod")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	share, err := client.Upload(ctx, []sdbx.File{{Name: "report.pdf", Data: data}})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(share.Link)
//
//	result, err := client.Download(ctx, share.Link)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile(result.Name, result.Data, 0o600)
//
// Every upload and download moves through a fixed sequence of states
// (see State) and reports monotonic progress through WithProgress.
// Failures are returned as *TransferError, which records the state the
// operation failed in and a FailureKind; use errors.Is with the package
// sentinels to branch on the cause.
package sdbx
