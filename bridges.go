package sam

import "github.com/pior/sam/internal"

// Bridges provides the list of SAM bridge addresses (host:port).
type Bridges interface {
	List() []string
}

// StaticBridges is a fixed list of bridges.
type StaticBridges struct {
	addrs []string
}

// NewStaticBridges creates a bridge list from addresses.
func NewStaticBridges(addrs ...string) *StaticBridges {
	return &StaticBridges{addrs: addrs}
}

func (s *StaticBridges) List() []string {
	return s.addrs
}

// BridgeSelector picks the index of the bridge to use for a key.
// bridgeCount is always > 0.
type BridgeSelector func(key string, bridgeCount int) int

// DefaultBridgeSelector uses Jump Hash over xxh3 for consistent selection:
// a name is always resolved by the same bridge while the list is stable,
// which keeps each bridge's naming cache warm.
func DefaultBridgeSelector(key string, bridgeCount int) int {
	return internal.JumpHashString(key, bridgeCount)
}

// staticSelector is used in tests to always select a specific bridge.
func staticSelector(index int) BridgeSelector {
	return func(key string, bridgeCount int) int {
		return index % bridgeCount
	}
}
