// Package errdefs defines the failure taxonomy of a kubegraph run. Every
// error is fatal for the run; the types exist so callers can tell the user
// what went wrong (unreachable API server, rejected credentials, missing
// namespace, broken output) with the kind and namespace involved.
package errdefs
