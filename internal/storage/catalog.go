package storage

// Professional is a provider profile that hosts can be matched with.
type Professional struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Specialty  string `json:"specialty"`
	Bio        string `json:"bio,omitempty"`
	HourlyRate int64  `json:"hourlyRate"`
}

const (
	TierBasic    = "basic"
	TierStandard = "standard"
	TierPremium  = "premium"
)

// Package is a purchasable tier. Prices are in cents.
type Package struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Tier     string   `json:"tier"`
	Price    int64    `json:"price"`
	Features []string `json:"features"`
}
