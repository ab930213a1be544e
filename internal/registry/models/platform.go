package models

import (
	"strconv"
	"strings"
)

// Platform is the external account kind an identity binds to.
// The numeric value is part of the identity address seed and the account layout.
type Platform uint8

const (
	PlatformLinkedIn Platform = iota
	PlatformGitHub
	PlatformTwitter
	PlatformGoogle
)

var platformNames = [...]string{
	PlatformLinkedIn: "LinkedIn",
	PlatformGitHub:   "GitHub",
	PlatformTwitter:  "Twitter",
	PlatformGoogle:   "Google",
}

// PlatformFromU8 validates a raw tag.
func PlatformFromU8(v uint8) (Platform, error) {
	if int(v) >= len(platformNames) {
		return 0, ErrInvalidPlatform
	}
	return Platform(v), nil
}

// ParsePlatform accepts a platform name (case-insensitive) or its decimal tag.
func ParsePlatform(s string) (Platform, error) {
	s = strings.TrimSpace(s)
	for i, name := range platformNames {
		if strings.EqualFold(s, name) {
			return Platform(i), nil
		}
	}
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, ErrInvalidPlatform
	}
	return PlatformFromU8(uint8(n))
}

// AllPlatforms lists every platform in tag order.
func AllPlatforms() []Platform {
	out := make([]Platform, len(platformNames))
	for i := range platformNames {
		out[i] = Platform(i)
	}
	return out
}

func (p Platform) String() string {
	if int(p) < len(platformNames) {
		return platformNames[p]
	}
	return "Platform(" + strconv.Itoa(int(p)) + ")"
}

// Seed is the single-byte seed used in address derivation.
func (p Platform) Seed() []byte { return []byte{byte(p)} }

func (p Platform) MarshalText() ([]byte, error) {
	if _, err := PlatformFromU8(uint8(p)); err != nil {
		return nil, err
	}
	return []byte(p.String()), nil
}

func (p *Platform) UnmarshalText(text []byte) error {
	parsed, err := ParsePlatform(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
