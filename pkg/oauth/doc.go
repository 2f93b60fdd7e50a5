package oauth

// When a candidate requires OAuth and no usable token exists for the
// required account, Store.Get returns an error; pkg/dispatch skips that
// candidate and, when no candidate could be attempted, finishes with a
// relayerr.AuthRequired whose message names the account. The dispatcher
// writes no log line for it.
