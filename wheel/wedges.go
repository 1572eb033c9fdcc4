package wheel

// FullCircle is the angular extent of the wheel in degrees. The terminal
// wedge always closes at this constant rather than an accumulated sum, so
// floating-point drift never leaves a gap at the top of the wheel.
const FullCircle = 360.0

// Wedge is one contiguous angular slice of the wheel. Wedges are derived
// from a Distribution on demand and never persisted.
type Wedge struct {
	Token       string  `json:"token"`
	TokenID     int     `json:"token_id"`
	Probability float64 `json:"probability"`
	StartAngle  float64 `json:"start_angle"`
	EndAngle    float64 `json:"end_angle"`
	IsSpecial   bool    `json:"is_special"`
	IsOther     bool    `json:"is_other"`
}

// Wedges partitions the circle among d's candidates in order, each wedge
// spanning probability x 360 degrees, placed sequentially from 0 with no
// gaps. Any remaining mass becomes one terminal "other" wedge that absorbs
// accumulated drift by ending at exactly FullCircle. With zero remaining
// mass the last candidate wedge closes the circle as closely as the floats
// allow.
func Wedges(d *Distribution) []Wedge {
	wedges := make([]Wedge, 0, len(d.Candidates)+1)
	angle := 0.0
	for _, c := range d.Candidates {
		span := c.Probability * FullCircle
		wedges = append(wedges, Wedge{
			Token:       c.Token,
			TokenID:     c.TokenID,
			Probability: c.Probability,
			StartAngle:  angle,
			EndAngle:    angle + span,
			IsSpecial:   c.IsSpecial,
		})
		angle += span
	}

	if d.RemainingProbability > 0 {
		wedges = append(wedges, Wedge{
			Token:       OtherToken,
			TokenID:     OtherTokenID,
			Probability: d.RemainingProbability,
			StartAngle:  angle,
			EndAngle:    FullCircle,
			IsOther:     true,
		})
	}
	return wedges
}
