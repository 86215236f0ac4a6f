// Package auth admits or rejects workers at connect time.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/danmuck/worldsync/internal/protocol/session"
	"github.com/danmuck/worldsync/internal/worker/stream"
)

var (
	ErrUnauthorized     = errors.New("auth: unauthorized")
	ErrWorkerTypeDenied = errors.New("auth: worker type not allowed")
)

// Validator validates a worker login token.
type Validator interface {
	Validate(token string) error
}

// StaticToken accepts exactly one shared token. An empty Token rejects
// everything.
type StaticToken struct {
	Token string
}

func (s StaticToken) Validate(token string) error {
	if s.Token == "" {
		return ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(s.Token), []byte(token)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// FuncValidator adapts a function into a Validator.
type FuncValidator func(token string) error

func (f FuncValidator) Validate(token string) error {
	return f(token)
}

// AllowAll admits any token.
var AllowAll = FuncValidator(func(string) error { return nil })

// Connect builds a stream.Authorizer that checks the login token with v and,
// when workerTypes is non-empty, restricts the worker type.
func Connect(v Validator, workerTypes ...string) stream.Authorizer {
	allowed := make([]string, 0, len(workerTypes))
	for _, t := range workerTypes {
		if t = strings.TrimSpace(t); t != "" {
			allowed = append(allowed, t)
		}
	}
	return func(hello session.Connect) error {
		if err := v.Validate(hello.Token); err != nil {
			return fmt.Errorf("worker %s: %w", hello.WorkerID, err)
		}
		if len(allowed) > 0 && !slices.Contains(allowed, hello.WorkerType) {
			return fmt.Errorf("%w: %q", ErrWorkerTypeDenied, hello.WorkerType)
		}
		return nil
	}
}
