// Package errors contains domain-specific errors for the download domain
package errors

import (
	pkgerrors "github.com/Conte777/ClipFlow/pkg/errors"
)

// Domain errors for download operations
var (
	ErrUnsupportedLink    = pkgerrors.NewUnsupported("no supported link found in message")
	ErrIdentifierNotFound = pkgerrors.NewNotFound("no post or video identifier in URL")
	ErrEmptyResult        = pkgerrors.NewEmptyResult("retrieval produced no usable media")
	ErrStaleSelection     = pkgerrors.NewStaleSelection("no pending selection for user")
	ErrNoVideoInPost      = pkgerrors.NewEmptyResult("post contains no video")
)
