// Package cli provides the interactive Daybook command-line client.
//
// It wires configuration, the local session database, the API client and the
// entry editor into a REPL. On start the previous session is restored from
// the stored refresh token; a background watcher pings the server and shows
// online/offline in the prompt.
//
// Listing a day subscribes to that day's change feed, so edits made on other
// devices show up in the listing and in the open entry. Leaving an entry with
// "back" keeps unsaved work as a shared draft; "discard" and "delete" ask
// twice before dropping anything.
//
// import, export and version are also available as one-shot cobra
// subcommands; see NewRootCmd.
package cli
