package boarddto

// PlayerRecord is one player's lifetime tally.
type PlayerRecord struct {
	Player string
	Wins   int64
	Losses int64
	Ties   int64
}

func (r PlayerRecord) Games() int64 { return r.Wins + r.Losses + r.Ties }
