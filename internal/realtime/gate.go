package realtime

// versionGate tracks the highest profile version delivered per player.
// Profile rows carry a monotonic version bumped on every write; comparing
// against it makes stale pushes detectable without any clock coordination.
type versionGate struct {
	latest map[uint]int64
}

// observe records the version and reports whether it is newer than anything
// delivered for the player so far.
func (g *versionGate) observe(playerID uint, version int64) bool {
	if g.latest == nil {
		g.latest = make(map[uint]int64)
	}
	if version <= g.latest[playerID] {
		return false
	}
	g.latest[playerID] = version
	return true
}
