package committees

// WeightThresholdToBuildQC is the smallest weight strictly above two thirds
// of totalWeight. QCs and TCs need at least this much.
func WeightThresholdToBuildQC(totalWeight uint64) uint64 {
	threshold := 2*(totalWeight/3) + 1
	if totalWeight%3 == 2 {
		threshold++
	}
	return threshold
}

// WeightThresholdForHonestMajority is the smallest weight strictly above one
// third of totalWeight. Any set holding it contains an honest replica.
func WeightThresholdForHonestMajority(totalWeight uint64) uint64 {
	return totalWeight/3 + 1
}
