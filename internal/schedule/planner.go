// Package schedule assigns visits to business days with a bucketed greedy
// loop: records are grouped once into four priority buckets, then each day
// is filled bucket by bucket, always taking the candidate with the best
// (primary key, distance-from-last-visit) pair. The algorithm is greedy
// and non-backtracking on purpose; its pick order is load-bearing for
// reproducibility and must not be "improved" into an optimal solver.
package schedule

import (
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/tapline/visitplanner/internal/model"
	"github.com/tapline/visitplanner/internal/postcode"
)

// Bucket identifies one of the four scheduling priority classes.
type Bucket string

const (
	BucketDeadline Bucket = "deadline"
	BucketFollowUp Bucket = "followUp"
	BucketPriority Bucket = "priority"
	BucketMaster   Bucket = "master"
)

// Buckets are always processed in this order within a day.
var bucketOrder = []Bucket{BucketDeadline, BucketFollowUp, BucketPriority, BucketMaster}

// Options configures one planning run.
type Options struct {
	StartDate    time.Time
	BusinessDays int
	HomePostcode string // empty disables home-leg accounting
	VisitsPerDay int

	// SearchRadiusMiles excludes candidates farther than this from home
	// (mock mileage). Zero disables the filter, matching the historical
	// behavior where the radius was accepted but never enforced.
	SearchRadiusMiles int

	// Distance is the travel model used for tie-breaking and day metrics.
	// Nil selects the default tiered structural model.
	Distance postcode.DistanceProvider
}

// Exclusions breaks down why candidates never reached a day.
// AlreadyScheduled is always zero: scheduled records are removed from
// their pools and can never be excluded a second time. It stays in the
// output so the review UI's summary shape is stable.
type Exclusions struct {
	InvalidGeo        int `json:"invalid_geo"`
	RadiusConstrained int `json:"radius_constrained"`
	AlreadyScheduled  int `json:"already_scheduled"`
}

// BucketStats counts one bucket's candidates through a planning run.
type BucketStats struct {
	Total      int        `json:"total"`
	Scheduled  int        `json:"scheduled"`
	Excluded   int        `json:"excluded"`
	Exclusions Exclusions `json:"exclusions"`
}

// Summary is the post-hoc debug report for a planning run.
type Summary struct {
	Buckets map[Bucket]*BucketStats `json:"buckets"`
}

type candidate struct {
	pub model.Pub
	key int64  // bucket-specific primary sort key, lower first
	zip string // normalized postcode used for distance lookups
}

// Plan builds the day-by-day schedule. It never fails: infeasible requests
// simply produce fewer days than asked for, and quality problems surface
// as per-day warnings.
func Plan(pubs []model.Pub, opts Options) ([]model.ScheduleDay, Summary) {
	dist := opts.Distance
	if dist == nil {
		dist = postcode.TieredProvider{}
	}

	summary := Summary{Buckets: make(map[Bucket]*BucketStats, len(bucketOrder))}
	for _, b := range bucketOrder {
		summary.Buckets[b] = &BucketStats{}
	}

	pools := buildBuckets(pubs, opts, dist, &summary)

	var days []model.ScheduleDay
	date := nextBusinessDay(opts.StartDate)
	for dayIdx := 0; dayIdx < opts.BusinessDays; dayIdx++ {
		day := buildDay(date, pools, opts, dist, &summary)
		if len(day.Visits) == 0 {
			break
		}
		days = append(days, day)
		date = nextBusinessDay(date.AddDate(0, 0, 1))
	}

	zap.L().Debug("schedule: plan complete",
		zap.Int("days", len(days)),
		zap.Int("requested_days", opts.BusinessDays),
	)
	return days, summary
}

// buildBuckets filters and groups the candidate pool once, up front.
func buildBuckets(pubs []model.Pub, opts Options, dist postcode.DistanceProvider, summary *Summary) map[Bucket][]candidate {
	pools := make(map[Bucket][]candidate, len(bucketOrder))

	for _, p := range pubs {
		b := bucketFor(p)
		stats := summary.Buckets[b]
		stats.Total++

		parsed := postcode.ParseLenient(p.Zip)
		if parsed.Status == postcode.StatusInvalid {
			stats.Excluded++
			stats.Exclusions.InvalidGeo++
			continue
		}

		zip := parsed.Normalized
		if opts.SearchRadiusMiles > 0 && opts.HomePostcode != "" {
			if dist.Distance(opts.HomePostcode, zip).Miles > opts.SearchRadiusMiles {
				stats.Excluded++
				stats.Exclusions.RadiusConstrained++
				continue
			}
		}

		pools[b] = append(pools[b], candidate{pub: p, key: primaryKey(b, p), zip: zip})
	}

	// Deterministic base order: primary key, then postcode, then identity.
	for b := range pools {
		pool := pools[b]
		sort.Slice(pool, func(i, j int) bool {
			if pool[i].key != pool[j].key {
				return pool[i].key < pool[j].key
			}
			if pool[i].zip != pool[j].zip {
				return pool[i].zip < pool[j].zip
			}
			return pool[i].pub.UUID < pool[j].pub.UUID
		})
	}
	return pools
}

// buildDay fills one day, consuming candidates from the pools.
func buildDay(date time.Time, pools map[Bucket][]candidate, opts Options, dist postcode.DistanceProvider, summary *Summary) model.ScheduleDay {
	day := model.ScheduleDay{Date: date.Format("2006-01-02")}
	last := opts.HomePostcode

	for _, b := range bucketOrder {
		for len(day.Visits) < opts.VisitsPerDay && len(pools[b]) > 0 {
			idx := pickNext(pools[b], last, dist)
			chosen := pools[b][idx]
			pools[b] = append(pools[b][:idx], pools[b][idx+1:]...)

			day.Visits = append(day.Visits, model.ScheduledVisit{Pub: chosen.pub})
			summary.Buckets[b].Scheduled++
			last = chosen.zip
		}
		if len(day.Visits) >= opts.VisitsPerDay {
			break
		}
	}

	if len(day.Visits) == 0 {
		return day
	}

	applyMetrics(&day, opts, dist)
	applyWarnings(&day, date, opts)
	return day
}

// pickNext returns the index of the remaining candidate minimizing
// (primary key, distance from the last visited location). The pool is
// pre-sorted, so scanning for a strict improvement keeps ties
// deterministic.
func pickNext(pool []candidate, last string, dist postcode.DistanceProvider) int {
	best := 0
	bestLeg := dist.Distance(last, pool[0].zip)
	for i := 1; i < len(pool); i++ {
		if pool[i].key != pool[best].key {
			if pool[i].key > pool[best].key {
				continue
			}
			best = i
			bestLeg = dist.Distance(last, pool[i].zip)
			continue
		}
		leg := dist.Distance(last, pool[i].zip)
		if leg.Miles < bestLeg.Miles || (leg.Miles == bestLeg.Miles && leg.DriveTimeMins < bestLeg.DriveTimeMins) {
			best = i
			bestLeg = leg
		}
	}
	return best
}

// applyMetrics fills leg mileage and drive time. Home legs only exist (and
// only count toward the totals) when a home postcode is configured.
func applyMetrics(day *model.ScheduleDay, opts Options, dist postcode.DistanceProvider) {
	visits := day.Visits

	if opts.HomePostcode != "" {
		start := dist.Distance(opts.HomePostcode, visits[0].Pub.Zip)
		day.StartMileage = start.Miles
		day.StartDriveTime = start.DriveTimeMins

		end := dist.Distance(visits[len(visits)-1].Pub.Zip, opts.HomePostcode)
		day.EndMileage = end.Miles
		day.EndDriveTime = end.DriveTimeMins

		day.TotalMileage += start.Miles + end.Miles
		day.TotalDriveTime += start.DriveTimeMins + end.DriveTimeMins
	}

	for i := 0; i < len(visits)-1; i++ {
		leg := dist.Distance(visits[i].Pub.Zip, visits[i+1].Pub.Zip)
		visits[i].MileageToNext = leg.Miles
		visits[i].DriveTimeToNext = leg.DriveTimeMins
		day.TotalMileage += leg.Miles
		day.TotalDriveTime += leg.DriveTimeMins
	}
}

// applyWarnings records non-fatal quality problems on the day.
func applyWarnings(day *model.ScheduleDay, date time.Time, opts Options) {
	if len(day.Visits) < opts.VisitsPerDay {
		day.SchedulingErrors = append(day.SchedulingErrors,
			fmt.Sprintf("Only %d visits scheduled (target: %d)", len(day.Visits), opts.VisitsPerDay))
	}
	for _, v := range day.Visits {
		deadline := deadlineOf(v.Pub)
		if deadline == "" {
			continue
		}
		if d, err := time.Parse("2006-01-02", deadline); err == nil && d.Before(date) {
			day.SchedulingErrors = append(day.SchedulingErrors,
				fmt.Sprintf("%s scheduled after deadline (%s)", v.Pub.Name, deadline))
		}
	}
}

// bucketFor assigns a record to exactly one bucket, preferring the
// effective plan's primary mode and falling back to raw fields.
func bucketFor(p model.Pub) Bucket {
	if p.EffectivePlan != nil {
		switch p.EffectivePlan.PrimaryMode {
		case model.ModeDeadline:
			return BucketDeadline
		case model.ModeFollowUp:
			return BucketFollowUp
		case model.ModePriority:
			return BucketPriority
		case model.ModeMaster:
			return BucketMaster
		}
	}
	switch {
	case p.Deadline != "":
		return BucketDeadline
	case p.FollowUpDays > 0:
		return BucketFollowUp
	case p.PriorityLevel > 0:
		return BucketPriority
	}
	return BucketMaster
}

// primaryKey is the bucket-specific dominant sort key. The master bucket
// has none: ordering there is purely proximity-driven.
func primaryKey(b Bucket, p model.Pub) int64 {
	switch b {
	case BucketDeadline:
		d, err := time.Parse("2006-01-02", deadlineOf(p))
		if err != nil {
			return math.MaxInt64 // unparseable deadlines schedule last in the bucket
		}
		return d.Unix()
	case BucketFollowUp:
		return int64(followUpOf(p))
	case BucketPriority:
		return int64(priorityOf(p))
	}
	return 0
}

func deadlineOf(p model.Pub) string {
	if p.EffectivePlan != nil && p.EffectivePlan.Deadline != "" {
		return p.EffectivePlan.Deadline
	}
	return p.Deadline
}

func followUpOf(p model.Pub) int {
	if p.EffectivePlan != nil && p.EffectivePlan.FollowUpDays > 0 {
		return p.EffectivePlan.FollowUpDays
	}
	return p.FollowUpDays
}

func priorityOf(p model.Pub) int {
	if p.EffectivePlan != nil && p.EffectivePlan.PriorityLevel > 0 {
		return p.EffectivePlan.PriorityLevel
	}
	return p.PriorityLevel
}

// nextBusinessDay returns t unless it falls on a weekend, in which case it
// advances to the following Monday.
func nextBusinessDay(t time.Time) time.Time {
	for t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		t = t.AddDate(0, 0, 1)
	}
	return t
}
