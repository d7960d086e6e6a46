package lua

import (
	"fmt"
	"net/netip"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yuin/gluamapper"
	lua "github.com/yuin/gopher-lua"

	"github.com/samaelod/netassist/hexdump"
	"github.com/samaelod/netassist/types"
)

var hostnameRegex = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9.-]*[A-Za-z0-9])?$`)

// ReadProfile runs a Lua file that returns a profile table:
//
//	return {
//		local_ip = "127.0.0.1", local_port = 9000,
//		remote_ip = "127.0.0.1", remote_port = 9001,
//		rx_hex = true, tx_hex = true,
//		presets = { { name = "hello", value = "48656C6C6F", hex = true } },
//	}
func ReadProfile(path string) (*types.Profile, error) {
	L := lua.NewState()
	defer L.Close()

	if err := L.DoFile(path); err != nil {
		return nil, err
	}

	lv := L.Get(-1)
	table, ok := lv.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("lua file did not return a table")
	}

	var p types.Profile
	if err := gluamapper.Map(table, &p); err != nil {
		return nil, err
	}

	if p.Name == "" {
		base := filepath.Base(path)
		p.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	if err := ValidateProfile(&p); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}

	return &p, nil
}

// ValidateProfile checks ports, addresses and preset payloads. Empty
// addresses are allowed; the session substitutes defaults for them.
// Port ranges match what the session accepts, so a remote_port of 0 loads
// and sends to it fail at send time.
func ValidateProfile(p *types.Profile) error {
	if p.LocalPort < 0 || p.LocalPort > 65535 {
		return fmt.Errorf("local_port %d out of range", p.LocalPort)
	}
	if p.RemotePort < 0 || p.RemotePort > 65535 {
		return fmt.Errorf("remote_port %d out of range", p.RemotePort)
	}
	if err := validateHost(p.LocalIP); err != nil {
		return fmt.Errorf("local_ip: %w", err)
	}
	if err := validateHost(p.RemoteIP); err != nil {
		return fmt.Errorf("remote_ip: %w", err)
	}

	seen := make(map[string]bool, len(p.Presets))
	for i := range p.Presets {
		pr := &p.Presets[i]
		if pr.Name == "" {
			pr.Name = fmt.Sprintf("preset %d", i+1)
		}
		if seen[pr.Name] {
			return fmt.Errorf("preset %d: duplicate name %q", i, pr.Name)
		}
		seen[pr.Name] = true

		if pr.Value == "" {
			return fmt.Errorf("preset %q: empty value", pr.Name)
		}
		if pr.Hex {
			if _, err := hexdump.Decode(pr.Value); err != nil {
				return fmt.Errorf("preset %q: %w", pr.Name, err)
			}
		}
	}

	return nil
}

func validateHost(h string) error {
	if h == "" {
		return nil
	}
	if addr, err := netip.ParseAddr(h); err == nil {
		if !addr.Is4() {
			return fmt.Errorf("%s is not an IPv4 address", h)
		}
		return nil
	}
	if !hostnameRegex.MatchString(h) {
		return fmt.Errorf("invalid host %q", h)
	}
	return nil
}
