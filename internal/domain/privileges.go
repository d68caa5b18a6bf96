package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Account kinds carried in sessions and login responses
const (
	RoleOwner    = "owner"
	RoleCenter   = "center"
	RoleEmployee = "employee"
)

// Privilege codes. A privilege string is a comma separated list of "code:level".
const (
	PrivSuper          = "s"
	PrivProfile        = "pp"
	PrivVehicles       = "mv"
	PrivEmployees      = "em"
	PrivRoles          = "rl"
	PrivInventory      = "in"
	PrivServiceTypes   = "sv"
	PrivClients        = "cl"
	PrivServiceRecords = "sr"
)

// Privilege levels
const (
	LevelAdmin = "ad"
	LevelView  = "vw"
)

// Default privilege strings assigned at registration
const (
	OwnerPrivileges      = "mv:ad, pp:ad"
	CenterPrivileges     = "s:ad"
	BasicRolePrivileges  = "pp:ad"
	BasicRoleName        = "Basic Role"
	BasicRoleDescription = "Provides access to profile page for employee"
)

var knownPrivileges = map[string]bool{
	PrivSuper: true, PrivProfile: true, PrivVehicles: true, PrivEmployees: true, PrivRoles: true,
	PrivInventory: true, PrivServiceTypes: true, PrivClients: true, PrivServiceRecords: true,
}

// Privileges maps a privilege code to its level
type Privileges map[string]string

// ParsePrivileges decodes "code:level, code:level". Malformed entries are skipped.
func ParsePrivileges(s string) Privileges {
	p := Privileges{}
	for _, part := range strings.Split(s, ",") {
		code, level, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok || code == "" || level == "" {
			continue
		}
		p[strings.TrimSpace(code)] = strings.TrimSpace(level)
	}
	return p
}

// ValidatePrivileges rejects unknown codes or levels
func ValidatePrivileges(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: privileges are required", ErrValidation)
	}
	for _, part := range strings.Split(s, ",") {
		code, level, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return fmt.Errorf("%w: malformed privilege %q", ErrValidation, part)
		}
		if !knownPrivileges[code] || code == PrivSuper {
			return fmt.Errorf("%w: unknown privilege code %q", ErrValidation, code)
		}
		if level != LevelAdmin && level != LevelView {
			return fmt.Errorf("%w: unknown privilege level %q", ErrValidation, level)
		}
	}
	return nil
}

// Allows reports whether the holder may read (write=false) or modify (write=true) code
func (p Privileges) Allows(code string, write bool) bool {
	if p[PrivSuper] == LevelAdmin {
		return true
	}
	switch p[code] {
	case LevelAdmin:
		return true
	case LevelView:
		return !write
	default:
		return false
	}
}

// String renders the canonical, sorted form
func (p Privileges) String() string {
	codes := make([]string, 0, len(p))
	for code := range p {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	parts := make([]string, 0, len(codes))
	for _, code := range codes {
		parts = append(parts, code+":"+p[code])
	}
	return strings.Join(parts, ", ")
}
