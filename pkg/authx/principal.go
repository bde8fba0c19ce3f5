package authx

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Principal is the immutable identity a token is issued for.
type Principal struct {
	ID       uuid.UUID
	Username string
	Roles    []string
}

// DeviceType categorizes the client a token was issued to. It is carried as
// a claim for informational purposes only.
type DeviceType int

const (
	DeviceWeb DeviceType = iota
	DeviceMobile
	DeviceDesktop
)

func (d DeviceType) String() string {
	switch d {
	case DeviceMobile:
		return "mobile"
	case DeviceDesktop:
		return "desktop"
	default:
		return "web"
	}
}

// ParseDeviceType maps a client-supplied string onto the closed enumeration.
func ParseDeviceType(s string) (DeviceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "web", "":
		return DeviceWeb, nil
	case "mobile":
		return DeviceMobile, nil
	case "desktop":
		return DeviceDesktop, nil
	default:
		return DeviceWeb, fmt.Errorf("authx: unknown device type %q", s)
	}
}
