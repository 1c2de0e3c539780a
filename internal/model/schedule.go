package model

// ScheduledVisit is one stop on a planned day. MileageToNext and
// DriveTimeToNext describe the leg from this visit to the following one and
// are zero for the last visit of the day.
type ScheduledVisit struct {
	Pub             Pub `json:"pub"`
	MileageToNext   int `json:"mileage_to_next"`
	DriveTimeToNext int `json:"drive_time_to_next"` // minutes
}

// ScheduleDay is one planned business day. Visits never exceeds the
// configured per-day capacity, and a record appears on at most one day
// across a whole planning run.
type ScheduleDay struct {
	Date   string           `json:"date"` // ISO date, YYYY-MM-DD
	Visits []ScheduledVisit `json:"visits"`

	TotalMileage   int `json:"total_mileage"`
	TotalDriveTime int `json:"total_drive_time"` // minutes

	// Home legs; zero when no home postcode is configured.
	StartMileage   int `json:"start_mileage"`
	StartDriveTime int `json:"start_drive_time"`
	EndMileage     int `json:"end_mileage"`
	EndDriveTime   int `json:"end_drive_time"`

	// Non-fatal quality warnings (under-capacity day, deadline missed).
	SchedulingErrors []string `json:"scheduling_errors,omitempty"`
}
