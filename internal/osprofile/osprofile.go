package osprofile

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	ctlerrors "github.com/systmms/sentinelctl/internal/errors"
	"gopkg.in/yaml.v3"
)

// Family identifies a supported operating-system family
type Family string

const (
	FamilyDebian  Family = "debian"
	FamilyRedHat  Family = "redhat"
	FamilyAmazon  Family = "amazon"
	FamilyGentoo  Family = "gentoo"
	FamilyUnknown Family = "unknown"
)

// ServiceStyle selects how a sentinel instance is supervised
type ServiceStyle string

const (
	StyleSystemd ServiceStyle = "systemd"
	StyleSysV    ServiceStyle = "sysv"
)

// InitFlavor names the init-script template used on SysV platforms
type InitFlavor string

const (
	InitDebian InitFlavor = "debian"
	InitRedHat InitFlavor = "redhat"
	InitGentoo InitFlavor = "gentoo"
)

// Facts holds the OS identity a declaration is resolved against. Normally
// discovered from /etc/os-release; overridable from a YAML facts file for
// cross-host planning and tests.
type Facts struct {
	Family       Family `yaml:"family"`
	MajorVersion int    `yaml:"major_version"`
}

// Profile is the resolved dispatch result: either a systemd unit or a
// SysV init script of a specific flavor.
type Profile struct {
	Style      ServiceStyle
	InitFlavor InitFlavor
}

// Resolve maps facts to a service profile. The mapping is exhaustive over
// the supported families; anything else is a hard error, never an empty
// template.
//
// Amazon Linux reports major versions that look systemd-era but its family
// historically shipped without the preset machinery this tool relies on,
// so it always takes the SysV path.
func Resolve(f Facts) (Profile, error) {
	switch f.Family {
	case FamilyRedHat:
		if f.MajorVersion >= 7 {
			return Profile{Style: StyleSystemd}, nil
		}
		return Profile{Style: StyleSysV, InitFlavor: InitRedHat}, nil
	case FamilyAmazon:
		return Profile{Style: StyleSysV, InitFlavor: InitRedHat}, nil
	case FamilyDebian:
		return Profile{Style: StyleSysV, InitFlavor: InitDebian}, nil
	case FamilyGentoo:
		return Profile{Style: StyleSysV, InitFlavor: InitGentoo}, nil
	default:
		return Profile{}, ctlerrors.UnsupportedPlatformError{
			Family:       string(f.Family),
			MajorVersion: f.MajorVersion,
		}
	}
}

// Discover reads the host's OS identity from /etc/os-release
func Discover() (Facts, error) {
	return DiscoverAt("/etc/os-release")
}

// DiscoverAt parses an os-release file into Facts
func DiscoverAt(path string) (Facts, error) {
	f, err := os.Open(path)
	if err != nil {
		return Facts{}, ctlerrors.UserError{
			Message:    "Failed to read OS release information",
			Details:    err.Error(),
			Suggestion: "Pass --facts <file> to supply family and major_version explicitly",
			Err:        err,
		}
	}
	defer f.Close()

	fields := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		fields[key] = strings.Trim(value, `"'`)
	}
	if err := scanner.Err(); err != nil {
		return Facts{}, fmt.Errorf("failed to scan %s: %w", path, err)
	}

	facts := Facts{
		Family:       classify(fields["ID"], fields["ID_LIKE"]),
		MajorVersion: majorVersion(fields["VERSION_ID"]),
	}
	return facts, nil
}

// LoadFacts reads a facts override file (YAML with family and major_version)
func LoadFacts(path string) (Facts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Facts{}, ctlerrors.UserError{
			Message:    "Failed to read facts file",
			Details:    err.Error(),
			Suggestion: "Check the path passed to --facts",
			Err:        err,
		}
	}

	var facts Facts
	if err := yaml.Unmarshal(data, &facts); err != nil {
		return Facts{}, ctlerrors.ConfigError{
			Field:      "facts",
			Value:      path,
			Message:    "invalid YAML in facts file",
			Suggestion: "Expected keys: family, major_version",
		}
	}

	if facts.Family == "" {
		facts.Family = FamilyUnknown
	}
	return facts, nil
}

// classify maps os-release ID/ID_LIKE values onto a Family
func classify(id, idLike string) Family {
	id = strings.ToLower(id)
	like := strings.ToLower(idLike)

	switch id {
	case "amzn":
		return FamilyAmazon
	case "gentoo":
		return FamilyGentoo
	case "debian", "ubuntu", "raspbian":
		return FamilyDebian
	case "rhel", "centos", "fedora", "rocky", "almalinux", "ol":
		return FamilyRedHat
	}

	for _, l := range strings.Fields(like) {
		switch l {
		case "debian", "ubuntu":
			return FamilyDebian
		case "rhel", "fedora", "centos":
			return FamilyRedHat
		case "gentoo":
			return FamilyGentoo
		}
	}

	return FamilyUnknown
}

// majorVersion extracts the leading integer from a VERSION_ID value like
// "7.9" or "22.04". Missing or malformed values yield 0.
func majorVersion(versionID string) int {
	if versionID == "" {
		return 0
	}
	head, _, _ := strings.Cut(versionID, ".")
	n, err := strconv.Atoi(head)
	if err != nil {
		return 0
	}
	return n
}
