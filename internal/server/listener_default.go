//go:build !linux && !darwin

// Package server provides network listener functionality
package server

import (
	"net"
)

// GetListener returns a TCP listener for addr.
func GetListener(addr string) (net.Listener, error) {
	return net.Listen("tcp", addr)
}
