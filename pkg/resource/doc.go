// Package resource defines the fixed record shape every fetched Kubernetes
// object is reduced to. Typed API objects are converted at the fetch
// boundary so relationship resolution never touches API schema details.
package resource
