package cache

import (
	"fmt"
	"net/http"
	"strings"
)

// Role identifies the purpose of a cache partition.
type Role string

const (
	// RolePrecache holds the application shell populated at install time.
	RolePrecache Role = "precache"

	// RoleRuntime holds API and document responses captured at runtime.
	RoleRuntime Role = "runtime"

	// RoleImages holds image responses refreshed in the background.
	RoleImages Role = "images"
)

// Config identifies the active cache generation. Version is injected at
// startup so version-transition scenarios can be exercised deterministically.
type Config struct {
	// Prefix namespaces every partition owned by this core (e.g. "recipe-finder")
	Prefix string

	// Version is the active cache generation (e.g. "v2")
	Version string
}

// Names holds the three active partition names derived from a Config.
type Names struct {
	Precache string
	Runtime  string
	Images   string
}

// PartitionName builds the canonical partition name for a role.
// Format: {prefix}-{role}-{version}
func (c Config) PartitionName(role Role) string {
	return fmt.Sprintf("%s-%s-%s", c.Prefix, role, c.Version)
}

// Names returns the full active partition set for this configuration.
func (c Config) Names() Names {
	return Names{
		Precache: c.PartitionName(RolePrecache),
		Runtime:  c.PartitionName(RoleRuntime),
		Images:   c.PartitionName(RoleImages),
	}
}

// Expected reports whether a partition name belongs to the active set.
func (n Names) Expected(name string) bool {
	return name == n.Precache || name == n.Runtime || name == n.Images
}

// keySeparator joins a partition name and a request key into a Redis key.
// Partition names never contain it, so enumeration can split unambiguously.
const keySeparator = "::"

// RequestKey generates a deterministic key for a request within a partition.
// Query parameters are sorted so equivalent URLs map to the same entry.
func RequestKey(req *http.Request) string {
	path := req.URL.Path
	if path == "" {
		path = "/"
	}
	if query := req.URL.Query().Encode(); query != "" {
		return path + "?" + query
	}
	return path
}

// entryKey builds the Redis key for an entry in a partition.
func entryKey(partition, requestKey string) string {
	return partition + keySeparator + requestKey
}

// partitionOf extracts the partition name from a Redis key.
// Returns "" if the key does not carry the separator.
func partitionOf(redisKey string) string {
	name, _, found := strings.Cut(redisKey, keySeparator)
	if !found {
		return ""
	}
	return name
}
