package training

// Rating is a qualification a training leads to.
type Rating struct {
	ID   int64
	Name string
}

// Band groups rating ids into the request quota classes.
type Band int

const (
	BandNone Band = iota
	BandRating
	BandTier1
	BandTier2
)

func (b Band) String() string {
	switch b {
	case BandRating:
		return "rating"
	case BandTier1:
		return "tier1"
	case BandTier2:
		return "tier2"
	}
	return "none"
}

// BandOf classifies a rating id. Ids 6 and 7 are not part of any band.
func BandOf(ratingID int64) Band {
	switch {
	case ratingID >= 1 && ratingID <= 5:
		return BandRating
	case ratingID >= 8 && ratingID <= 10:
		return BandTier1
	case ratingID >= 11 && ratingID <= 14:
		return BandTier2
	}
	return BandNone
}
