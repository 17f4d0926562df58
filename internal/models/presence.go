package models

// ActivityUnit is the granularity of a relative "last active" label.
type ActivityUnit string

const (
	ActivityNow     ActivityUnit = "now"
	ActivitySeconds ActivityUnit = "seconds"
	ActivityMinutes ActivityUnit = "minutes"
	ActivityHours   ActivityUnit = "hours"
	ActivityDays    ActivityUnit = "days"
	ActivityWeeks   ActivityUnit = "weeks"
	ActivityMonths  ActivityUnit = "months"
	ActivityYears   ActivityUnit = "years"
)

// RelativeActivity is the time since a user's last activity, bucketed to
// the largest unit that fits.
type RelativeActivity struct {
	Unit  ActivityUnit `json:"unit"`
	Count int64        `json:"count"`
}
