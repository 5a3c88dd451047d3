// Package cli provides the interactive facevote command-line client.
//
// It wires configuration, the local receipts database, the HTTP transport,
// the voting workflow and an interactive REPL. A background watcher probes
// the server health endpoint and switches between online and offline mode.
//
// Typical flow: start (face recognition or username prompt, then the
// eligibility check), vote <candidate>, and on failure retry or abandon.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
