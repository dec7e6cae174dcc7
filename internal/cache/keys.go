package cache

const (
	KeyAirportsDataset = "airports:dataset"
)
