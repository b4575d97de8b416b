package model

// Fare is the per-kilometre price of one (coach, class) combination.
type Fare struct {
	ID             uint64 `db:"id" json:"id"`
	CoachNumber    int    `db:"coach_number" json:"coach_number"`
	ClassType      string `db:"class_type" json:"class_type"`
	PerKmFareCents int64  `db:"per_km_fare_cents" json:"per_km_fare_cents"`
}
