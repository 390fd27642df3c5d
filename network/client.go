// Package network holds the HTTP client shared by everything that talks to the outside.
package network

import (
	"net/http"
	"time"
)

// Client is used for release checks. Media is fetched by the engine itself, never through it.
var Client = &http.Client{
	Timeout:   30 * time.Second,
	Transport: newTransport(),
}

func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConnsPerHost = 4
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 10 * time.Second
	return t
}
