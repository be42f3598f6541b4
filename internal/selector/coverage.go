package selector

import "github.com/bft-labs/keyframer/internal/domain"

// Coverage summarizes how many frames are represented by some keyframe.
type Coverage struct {
	Total  int
	Hits   int
	Misses int
}

// Ratio returns Hits/Total, or 0 for an empty run.
func (c Coverage) Ratio() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Hits) / float64(c.Total)
}

// CheckCoverage counts the frames lying within threshold of at least one
// keyframe. A nil dist uses hashing.Distance.
func CheckCoverage(all, keyframes []domain.HashValue, threshold float64, dist DistanceFunc) (Coverage, error) {
	if dist == nil {
		dist = Options{}.distance()
	}
	cov := Coverage{Total: len(all)}
	for _, h := range all {
		hit := false
		for _, k := range keyframes {
			d, err := dist(h, k)
			if err != nil {
				return Coverage{}, err
			}
			if d <= threshold {
				hit = true
				break
			}
		}
		if hit {
			cov.Hits++
		}
	}
	cov.Misses = cov.Total - cov.Hits
	return cov, nil
}
