// Package server hosts the short-lived local HTTP server used by the OAuth2
// authorization-code flow: a router, middleware hooks, and the /callback
// handler that exchanges the authorization code and hands the token back to
// the CLI over a channel.
package server
