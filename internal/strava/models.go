package strava

import "time"

// Athlete is the detailed athlete profile from /athlete, including the
// gear list that feeds bike reconciliation.
type Athlete struct {
	ID       int64   `json:"id"`
	FTP      float64 `json:"ftp"`
	WeightKg float64 `json:"weight"`
	Sex      string  `json:"sex"` // "M" or "F"
	Bikes    []Gear  `json:"bikes"`
}

// Gear is one bike as Strava reports it. Distance is lifetime meters.
type Gear struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
	Primary  bool    `json:"primary"`
}

// Activity is an activity summary from /athlete/activities.
type Activity struct {
	ID                   int64     `json:"id"`
	Name                 string    `json:"name"`
	Type                 string    `json:"type"`
	StartDateLocal       time.Time `json:"start_date_local"`
	Distance             float64   `json:"distance"`    // meters
	MovingTime           int       `json:"moving_time"` // seconds
	ElapsedTime          int       `json:"elapsed_time"`
	TotalElevationGain   float64   `json:"total_elevation_gain"`
	AverageWatts         float64   `json:"average_watts"`
	WeightedAverageWatts float64   `json:"weighted_average_watts"`
	AverageHeartrate     float64   `json:"average_heartrate"`
	MaxHeartrate         float64   `json:"max_heartrate"`
	MaxWatts             float64   `json:"max_watts"`
	SufferScore          float64   `json:"suffer_score"`
}

// ActivityDetail is the full single-activity payload, which additionally
// carries the ride's segment efforts.
type ActivityDetail struct {
	Activity
	SegmentEfforts []SegmentEffort `json:"segment_efforts"`
}

// SegmentEffort is one effort on a named segment within an activity.
type SegmentEffort struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	ElapsedTime    int       `json:"elapsed_time"` // seconds
	Distance       float64   `json:"distance"`     // meters
	StartDateLocal time.Time `json:"start_date_local"`
	AverageWatts   float64   `json:"average_watts"`
	PRRank         int       `json:"pr_rank"`
}

// Route is one saved route from /athletes/{id}/routes, with the encoded
// polyline that overlays consume.
type Route struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Distance      float64 `json:"distance"`       // meters
	ElevationGain float64 `json:"elevation_gain"` // meters
	Map           struct {
		SummaryPolyline string `json:"summary_polyline"`
	} `json:"map"`
}
