// Package common contains shared constants and sentinel errors used across
// Daybook components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// UntitledEntry is shown (and imported) when an entry has no title.
const UntitledEntry = "Untitled"

// DateKeyLayout is the bucket key format of an entry: YYYY-MM-DD.
const DateKeyLayout = "2006-01-02"
