// Package cli provides the interactive cryptdrive command-line client.
//
// It wires configuration, the HTTP transport, local storage, and the sync
// session into an interactive REPL. Typical flow: prompt for credentials,
// browse the remote tree, sync items to the local sandbox, open the synced
// copies.
//
// Key commands:
//   - login / logout
//   - list, cd, up — browse the remote tree
//   - sync — make an item (or the whole current folder) available locally
//   - open — resolve a synced file to its local path
//   - put — encrypt and upload a local file
//   - mkdir, rm, rmremote — manage folders and items
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
