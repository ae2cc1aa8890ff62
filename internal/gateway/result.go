// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

package gateway

import (
	autherrors "nort/cli/internal/errors"
	"nort/cli/internal/session"
)

// Result is the uniform outcome of an auth operation: exactly one of Identity
// or Err is set. Logout is the exception: it never carries an identity and
// carries Err only when the remote call failed.
type Result struct {
	Identity *session.Identity
	Err      error
}

func success(id *session.Identity) Result { return Result{Identity: id} }

func failure(kind autherrors.Kind, msg string, cause error) Result {
	return Result{Err: autherrors.Wrap(kind, msg, cause)}
}

// OK reports whether the operation produced an identity.
func (r Result) OK() bool { return r.Err == nil && r.Identity != nil }

// Kind returns the error kind, or "" on success.
func (r Result) Kind() autherrors.Kind { return autherrors.KindOf(r.Err) }
