package wheel

import (
	"fmt"
	"math/rand"
	"time"
)

// Source supplies the Sampler with everything it needs from the vocabulary
// model: decoding for resampled tokens and the full probability vector for a
// context when the "other" bucket is hit.
type Source interface {
	Decoder
	Probabilities(context string) ([]float64, error)
}

// SampleResult describes one selected token together with the wedge it came
// from and the angle the wheel pointer should land on. TargetAngle always
// lies within [WedgeStart, WedgeEnd]. IsOther marks selections that went
// through the other-resample; Token and TokenID are still the concrete
// resampled token, never the placeholder.
type SampleResult struct {
	Token       string  `json:"token"`
	TokenID     int     `json:"token_id"`
	Probability float64 `json:"probability"`
	WedgeStart  float64 `json:"wedge_start"`
	WedgeEnd    float64 `json:"wedge_end"`
	TargetAngle float64 `json:"target_angle"`
	IsOther     bool    `json:"is_other"`
}

// Sampler draws tokens from a Distribution. The random source is injectable
// so tests can fix the draw sequence.
type Sampler struct {
	src Source
	rng *rand.Rand
}

// NewSampler creates a Sampler over src. A nil rng gets a time-seeded one.
func NewSampler(src Source, rng *rand.Rand) *Sampler {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Sampler{src: src, rng: rng}
}

// Sample draws one token from d with probability proportional to its share
// of the wheel. The weights are renormalized before the draw because the
// threshold selection can leave their sum slightly off 1.0. If the draw
// lands in the remaining bucket, a concrete token is resampled from the
// excluded set. The target angle is uniform within the hit wedge.
func (s *Sampler) Sample(d *Distribution) (SampleResult, error) {
	weights := make([]float64, 0, len(d.Candidates)+1)
	for _, c := range d.Candidates {
		weights = append(weights, c.Probability)
	}
	weights = append(weights, d.RemainingProbability)

	idx, err := s.weightedIndex(weights)
	if err != nil {
		return SampleResult{}, err
	}
	// The remaining slot carries zero weight when nothing was folded into
	// it; a drift fallback onto it maps back to the last real candidate.
	if idx == len(d.Candidates) && d.RemainingProbability <= 0 {
		idx = len(d.Candidates) - 1
	}

	wedges := Wedges(d)
	if idx == len(d.Candidates) {
		other := wedges[len(wedges)-1]
		return s.resampleOther(d, other, s.uniformIn(other.StartAngle, other.EndAngle))
	}

	c := d.Candidates[idx]
	w := wedges[idx]
	return SampleResult{
		Token:       c.Token,
		TokenID:     c.TokenID,
		Probability: c.Probability,
		WedgeStart:  w.StartAngle,
		WedgeEnd:    w.EndAngle,
		TargetAngle: s.uniformIn(w.StartAngle, w.EndAngle),
	}, nil
}

// SelectByAngle resolves the wedge containing the supplied landing angle.
// Wedges are half-open on the right, with 360.0 special-cased onto the last
// wedge so the seam at the top of the wheel belongs to it. Landing on the
// other wedge resamples a concrete token with the target angle fixed to the
// supplied angle rather than redrawn.
func (s *Sampler) SelectByAngle(d *Distribution, angle float64) (SampleResult, error) {
	if angle < 0 || angle > FullCircle {
		return SampleResult{}, fmt.Errorf("%w: landing angle %v outside [0, 360]", ErrOutOfRange, angle)
	}

	wedges := Wedges(d)
	hit := -1
	for i, w := range wedges {
		if w.StartAngle <= angle && angle < w.EndAngle {
			hit = i
			break
		}
	}
	if hit == -1 && angle == FullCircle {
		hit = len(wedges) - 1
	}
	if hit == -1 {
		return SampleResult{}, fmt.Errorf("%w: landing angle %v matched no wedge", ErrOutOfRange, angle)
	}

	w := wedges[hit]
	if w.IsOther {
		return s.resampleOther(d, w, angle)
	}
	c := d.Candidates[hit]
	return SampleResult{
		Token:       c.Token,
		TokenID:     c.TokenID,
		Probability: c.Probability,
		WedgeStart:  w.StartAngle,
		WedgeEnd:    w.EndAngle,
		TargetAngle: angle,
	}, nil
}

// SelectByID resolves an explicit token id against d. A main candidate id
// returns its info with a fresh random angle inside its wedge; this mode
// feeds downstream animation and is not meant to reproduce a particular
// landing. The OtherTokenID sentinel triggers an other-resample. Any other
// id fails with NotFound.
func (s *Sampler) SelectByID(d *Distribution, tokenID int) (SampleResult, error) {
	wedges := Wedges(d)
	for i, c := range d.Candidates {
		if c.TokenID != tokenID {
			continue
		}
		w := wedges[i]
		return SampleResult{
			Token:       c.Token,
			TokenID:     c.TokenID,
			Probability: c.Probability,
			WedgeStart:  w.StartAngle,
			WedgeEnd:    w.EndAngle,
			TargetAngle: s.uniformIn(w.StartAngle, w.EndAngle),
		}, nil
	}

	if tokenID == OtherTokenID {
		if d.RemainingProbability <= 0 {
			return SampleResult{}, fmt.Errorf("%w: no remaining probability to resample from", ErrNotFound)
		}
		other := wedges[len(wedges)-1]
		return s.resampleOther(d, other, s.uniformIn(other.StartAngle, other.EndAngle))
	}
	return SampleResult{}, fmt.Errorf("%w: token id %d not in distribution", ErrNotFound, tokenID)
}

// resampleOther draws a concrete token from the vocabulary entries excluded
// from d's candidate set. The full vector is re-derived for d.Context once
// per call; the excluded mass is renormalized by drawing over its own sum.
// A zero excluded mass falls back to a uniform draw over the excluded ids.
func (s *Sampler) resampleOther(d *Distribution, other Wedge, targetAngle float64) (SampleResult, error) {
	probs, err := s.src.Probabilities(d.Context)
	if err != nil {
		return SampleResult{}, fmt.Errorf("other-resample: %w", err)
	}

	included := d.CandidateIDs()
	excludedIDs := make([]int, 0, len(probs))
	excludedProbs := make([]float64, 0, len(probs))
	for id, p := range probs {
		if _, ok := included[id]; ok {
			continue
		}
		excludedIDs = append(excludedIDs, id)
		excludedProbs = append(excludedProbs, p)
	}
	if len(excludedIDs) == 0 {
		return SampleResult{}, fmt.Errorf("%w: excluded set is empty", ErrInvalidState)
	}

	idx, err := s.weightedIndex(excludedProbs)
	if err != nil {
		// All excluded mass is zero; fall back to a uniform draw.
		idx = s.rng.Intn(len(excludedIDs))
	}

	id := excludedIDs[idx]
	return SampleResult{
		Token:       s.src.Decode(id),
		TokenID:     id,
		Probability: probs[id],
		WedgeStart:  other.StartAngle,
		WedgeEnd:    other.EndAngle,
		TargetAngle: targetAngle,
		IsOther:     true,
	}, nil
}

// weightedIndex draws one index with probability proportional to weights.
// The draw is made over the raw sum, which renormalizes without mutating
// the weights. A non-positive sum is reported so callers decide the
// fallback; it is never silently divided through.
func (s *Sampler) weightedIndex(weights []float64) (int, error) {
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if sum <= 0 {
		return 0, fmt.Errorf("%w: weights sum to %v", ErrInvalidState, sum)
	}

	r := s.rng.Float64() * sum
	cum := 0.0
	for i, w := range weights {
		cum += w
		if r < cum {
			return i, nil
		}
	}
	return len(weights) - 1, nil
}

func (s *Sampler) uniformIn(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}
