// Package services provides the operations exposed by the API and the worker CLI.
package services

import (
	"errors"

	"github.com/dukex/leadflow/pkg/persistence"
)

var (
	// ErrInvalidRequest is returned for requests failing validation (400 Bad Request).
	ErrInvalidRequest = errors.New("invalid request")

	// Not found errors (404).
	ErrFlowNotFound = persistence.ErrFlowNotFound
	ErrLeadNotFound = persistence.ErrLeadNotFound
	ErrJobNotFound  = persistence.ErrJobNotFound
)
