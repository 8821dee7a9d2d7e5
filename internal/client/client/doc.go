// Package client contains the client-side building blocks for Daybook.
//
// # Overview
//
// The package provides:
//  1. The Client interface, the client's contract with the journal backend,
//     and EntryStore, the part of it the entry editor needs.
//  2. GRPCClient, which talks to daybook.Journal over gRPC. It attaches the
//     access token to every protected call, refreshes an expired token once
//     and retries, and maps gRPC status codes to the sentinels in
//     internal/common.
//  3. InitDatabase and RunMigrations, which open the local SQLite file and
//     apply the embedded goose migrations.
//
// # Error Handling
//
// Transport failures surface as ErrUnavailable. Everything else is matched
// with errors.Is against common.ErrorNotFound, common.ErrorValidation,
// common.ErrorUnauthorized, common.ErrReauthRequired and friends.
package client
