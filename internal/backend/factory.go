// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"fmt"
	"net/http"
)

// Transport names a remote binding.
type Transport string

const (
	TransportAppwrite Transport = "appwrite"
	TransportAPI      Transport = "api"
	TransportPostgres Transport = "postgres"
)

// Options selects and configures an HTTP binding.
type Options struct {
	Transport Transport
	// Appwrite
	Endpoint string
	Project  string
	Platform string
	// NORT API
	BaseURL   string
	Endpoints Endpoints

	Client *http.Client
}

// New creates an HTTP-backed API implementation. The postgres transport is
// built by the accountdb package and is rejected here.
func New(opts Options) (API, error) {
	switch opts.Transport {
	case TransportAppwrite, "":
		if opts.Project == "" {
			return nil, fmt.Errorf("appwrite transport requires a project id")
		}
		return NewAppwrite(opts.Endpoint, opts.Project, opts.Platform, opts.Client), nil
	case TransportAPI:
		if opts.BaseURL == "" {
			return nil, fmt.Errorf("api transport requires a base URL")
		}
		return NewHTTP(opts.BaseURL, opts.Endpoints, opts.Client), nil
	default:
		return nil, fmt.Errorf("transport %q is not an HTTP binding", opts.Transport)
	}
}
