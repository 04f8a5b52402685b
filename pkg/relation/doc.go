// Package relation infers the edges of the resource graph. Nothing is read
// from an explicit relationship field: ownership comes from owner
// references, Service to Pod from label selectors, Ingress to Service from
// backend names. References that do not resolve inside the fetched set are
// dropped silently.
package relation
