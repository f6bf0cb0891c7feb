// Package repository holds the user store behind the reference backend.
// Sentinel errors let handlers map failures onto status codes without
// inspecting driver-specific messages.
package repository

import "errors"

// ErrNotFound is returned when no row matches the lookup.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned by Create when the email is already registered.
// Handlers translate it into a 409 response.
var ErrEmailExists = errors.New("email already exists")
