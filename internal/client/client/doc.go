// Package client contains the client-side transport for facevote.
//
// # Overview
//
// The package provides:
//  1. The Client interface: one method per server endpoint used by the
//     voting workflow (face recognition, user lookup, eligibility, ballot
//     submission).
//  2. HTTPClient, a JSON-over-HTTP implementation built on netx.DoJSON that
//     maps response statuses to sentinel errors.
//  3. HealthProber, which checks reachability over the gRPC health protocol.
//  4. Local persistence bootstrap (InitDatabase, RunMigrations) for the
//     receipts database, applying embedded goose migrations to SQLite.
//
// # Error Handling
//
// Non-2xx responses are returned as *StatusError, whose message is the
// server's error text and which unwraps to one of ErrBadRequest,
// ErrUnauthorized, ErrUnavailable, ErrServer or a common voting error.
// Transport failures wrap ErrUnavailable. Match with errors.Is.
//
// No method retries.
package client
