package experiment

import (
	"fmt"
	"hash/fnv"
	"sort"

	"shopsense/domain"
)

// bucketFor hashes (experiment id, user id) into [0,1). Pure and
// stateless: the same inputs always land in the same bucket, so assignment
// is idempotent without coordination. The raw fnv sum clusters on
// structured user ids, so a splitmix64 finalizer spreads it out before
// the division.
func bucketFor(experimentID, userID string) float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(fmt.Sprintf("%s:%s", experimentID, userID)))

	x := h.Sum64()
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31

	return float64(x>>11) / float64(uint64(1)<<53)
}

// assignVariant partitions [0,1) into cumulative traffic-split ranges over
// the variants in a fixed, name-sorted order. Changing one split boundary
// only moves users whose bucket crosses it.
func assignVariant(exp domain.Experiment, userID string) string {
	names := make([]string, 0, len(exp.TrafficSplit))
	for name := range exp.TrafficSplit {
		names = append(names, name)
	}
	sort.Strings(names)

	bucket := bucketFor(exp.ExperimentID, userID)

	cumulative := 0.0
	for _, name := range names {
		cumulative += exp.TrafficSplit[name]
		if bucket < cumulative {
			return name
		}
	}

	// floating point slack at the top of the range
	if len(names) > 0 {
		return names[len(names)-1]
	}
	return ""
}
