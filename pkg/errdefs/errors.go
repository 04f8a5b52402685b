package errdefs

import (
	"errors"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
)

// ConnectivityError means the control plane (or an export backend) could not
// be reached or failed to answer
type ConnectivityError struct {
	Kind      string
	Namespace string
	// Endpoint names a backend other than the control plane
	Endpoint  string
	Err       error
}

func (e *ConnectivityError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("cannot reach %s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("cannot reach control plane listing %s: %v", scope(e.Kind, e.Namespace), e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// AuthorizationError means the credentials were rejected or lack permission
type AuthorizationError struct {
	Kind      string
	Namespace string
	Err       error
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("not authorized to list %s: %v", scope(e.Kind, e.Namespace), e.Err)
}

func (e *AuthorizationError) Unwrap() error { return e.Err }

// NotFoundError means the requested namespace (or resource type) does not exist
type NotFoundError struct {
	Kind      string
	Namespace string
	Err       error
}

func (e *NotFoundError) Error() string {
	if e.Kind == "Namespace" {
		return fmt.Sprintf("namespace %q not found: %v", e.Namespace, e.Err)
	}
	return fmt.Sprintf("%s not found: %v", scope(e.Kind, e.Namespace), e.Err)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// RenderError means the output could not be written or the renderer failed
type RenderError struct {
	Path   string
	Format string
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("failed to render %s output to %s: %v", e.Format, e.Path, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Classify maps an error returned by the Kubernetes API client onto the
// taxonomy. Errors that already belong to the taxonomy are returned as is.
func Classify(err error, kind, namespace string) error {
	if err == nil {
		return nil
	}
	if IsConnectivity(err) || IsAuthorization(err) || IsNotFound(err) || IsRender(err) {
		return err
	}

	switch {
	case apierrors.IsUnauthorized(err), apierrors.IsForbidden(err):
		return &AuthorizationError{Kind: kind, Namespace: namespace, Err: err}
	case apierrors.IsNotFound(err), meta.IsNoMatchError(err):
		return &NotFoundError{Kind: kind, Namespace: namespace, Err: err}
	default:
		return &ConnectivityError{Kind: kind, Namespace: namespace, Err: err}
	}
}

// IsConnectivity reports whether err is or wraps a ConnectivityError
func IsConnectivity(err error) bool {
	var target *ConnectivityError
	return errors.As(err, &target)
}

// IsAuthorization reports whether err is or wraps an AuthorizationError
func IsAuthorization(err error) bool {
	var target *AuthorizationError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is or wraps a NotFoundError
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsRender reports whether err is or wraps a RenderError
func IsRender(err error) bool {
	var target *RenderError
	return errors.As(err, &target)
}

func scope(kind, namespace string) string {
	if kind == "" {
		kind = "resources"
	}
	if namespace == "" {
		return kind + " in all namespaces"
	}
	return fmt.Sprintf("%s in namespace %q", kind, namespace)
}
