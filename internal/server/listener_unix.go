//go:build linux || darwin

// Package server provides network listener functionality
package server

import (
	"errors"
	"net"
	"os"
	"strconv"
)

// sdListenFDsStart is the first file descriptor passed by systemd.
const sdListenFDsStart = 3

// GetListener uses the systemd-activated socket when SOCKET_ACTIVATION=1
// and LISTEN_FDS/LISTEN_PID are addressed to this process. Otherwise it
// listens on addr.
func GetListener(addr string) (net.Listener, error) {
	if os.Getenv("SOCKET_ACTIVATION") != "1" {
		return net.Listen("tcp", addr)
	}
	if os.Getenv("LISTEN_FDS") != "1" {
		return nil, errors.New("socket activation requested but LISTEN_FDS is not 1")
	}
	if pid, err := strconv.Atoi(os.Getenv("LISTEN_PID")); err != nil || pid != os.Getpid() {
		return nil, errors.New("socket activation requested but LISTEN_PID does not match")
	}
	f := os.NewFile(uintptr(sdListenFDsStart), "listener")
	if f == nil {
		return nil, errors.New("socket activation: invalid listener fd")
	}
	return net.FileListener(f)
}
