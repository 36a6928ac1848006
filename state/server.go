// Copyright (c) YugaByte, Inc.

package state

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ServerInstance identifies one live incarnation of a tablet server: its
// advertised host:port plus the lock session that distinguishes restarts of
// the same address. Comparable, usable as a map key.
type ServerInstance struct {
	HostPort string
	Session  string
}

func (s ServerInstance) String() string {
	return fmt.Sprintf("%s[%s]", s.HostPort, s.Session)
}

// SuspendingServer records that a tablet's last server died at SuspensionTime
// (millis since epoch) and reassignment is deliberately deferred.
type SuspendingServer struct {
	HostPort       string
	SuspensionTime int64
}

// Value encodes the marker as it is stored in the suspend column.
func (s SuspendingServer) Value() []byte {
	return []byte(fmt.Sprintf("%s|%d", s.HostPort, s.SuspensionTime))
}

// ParseSuspendingServer decodes a suspend column value.
func ParseSuspendingServer(value []byte) (*SuspendingServer, error) {
	text := string(value)
	sep := strings.LastIndex(text, "|")
	if sep < 0 {
		return nil, errors.Errorf("invalid suspension marker %q", text)
	}
	suspensionTime, err := strconv.ParseInt(text[sep+1:], 10, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid suspension timestamp in %q", text)
	}
	return &SuspendingServer{HostPort: text[:sep], SuspensionTime: suspensionTime}, nil
}

func (s SuspendingServer) String() string {
	return fmt.Sprintf("%s[%d]", s.HostPort, s.SuspensionTime)
}
