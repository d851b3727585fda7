package request

import (
	"math"
	"strings"
	"time"
)

type point struct{ x, y float64 }

// campusGrid places known pickup and dropoff points on a unit grid.
// Unknown names resolve to the origin.
var campusGrid = map[string]point{
	"sbasse":          {0, 0},
	"sdsb":            {0, 2},
	"ssh":             {1, 1},
	"law school":      {2, 0},
	"male hostel":     {3, 1},
	"female hostel":   {3, 2},
	"faculty housing": {4, 2},
	"sports complex":  {2, 3},
	"dining center":   {1, 2},
	"pdc":             {4, 0},
}

const (
	baseFare        = 30.0
	farePerUnit     = 20.0
	peakMultiplier  = 1.2
	urgentWithin    = 60 * time.Minute
	urgentSurcharge = 1.3
	fareStep        = 5.0

	baseMinutes    = 5.0
	minutesPerUnit = 3.0
	bufferMinutes  = 2
)

// peakHours are [from, to) hour ranges.
var peakHours = [][2]int{{8, 10}, {12, 14}, {17, 19}}

type campusEstimator struct {
	loc *time.Location
}

// NewCampusEstimator returns a FareEstimator over the campus grid. Peak
// hours are evaluated in loc; nil means time.Local.
func NewCampusEstimator(loc *time.Location) FareEstimator {
	if loc == nil {
		loc = time.Local
	}
	return campusEstimator{loc: loc}
}

func (e campusEstimator) Fare(pickup, dropoff string, preferred, now time.Time) int64 {
	fare := baseFare + distance(pickup, dropoff)*farePerUnit

	hour := preferred.In(e.loc).Hour()
	for _, h := range peakHours {
		if hour >= h[0] && hour < h[1] {
			fare *= peakMultiplier
			break
		}
	}
	if preferred.Sub(now) <= urgentWithin {
		fare *= urgentSurcharge
	}
	return int64(math.Ceil(fare/fareStep) * fareStep)
}

func (campusEstimator) ETA(pickup, dropoff string) int {
	return int(math.Ceil(baseMinutes+distance(pickup, dropoff)*minutesPerUnit)) + bufferMinutes
}

func distance(from, to string) float64 {
	a := campusGrid[strings.ToLower(strings.TrimSpace(from))]
	b := campusGrid[strings.ToLower(strings.TrimSpace(to))]
	return math.Hypot(a.x-b.x, a.y-b.y)
}
