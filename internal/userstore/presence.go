package userstore

import (
	"fmt"
	"time"

	"chatgogo/store/internal/config"
	"chatgogo/store/internal/models"
)

// Labeler turns a bucketed activity into display text.
type Labeler interface {
	ActivityLabel(a models.RelativeActivity) string
}

// IsRecentlyActive reports whether the user did something within the last
// five minutes. Unknown users are never active.
func (s *Store) IsRecentlyActive(userID string) bool {
	u, ok := s.GetByID(userID)
	if !ok {
		return false
	}
	return IsActiveAt(u.LastActiveAt, s.now())
}

// RelativeActivity buckets the time since the user's last activity.
func (s *Store) RelativeActivity(userID string) (models.RelativeActivity, bool) {
	u, ok := s.GetByID(userID)
	if !ok {
		return models.RelativeActivity{}, false
	}
	return Bucket(s.now().Sub(u.LastActiveAt)), true
}

// RelativeActivityLabel renders RelativeActivity, e.g. "3 minutes ago".
// It returns "" for unknown users.
func (s *Store) RelativeActivityLabel(userID string) string {
	a, ok := s.RelativeActivity(userID)
	if !ok {
		return ""
	}
	if s.labeler != nil {
		return s.labeler.ActivityLabel(a)
	}
	return DefaultLabel(a)
}

// IsActiveAt reports whether lastActive lies less than the active threshold before now.
func IsActiveAt(lastActive, now time.Time) bool {
	return now.Sub(lastActive) < config.ActiveThreshold
}

var buckets = []struct {
	limit time.Duration
	unit  time.Duration
	name  models.ActivityUnit
}{
	{config.Minute, config.Second, models.ActivitySeconds},
	{config.Hour, config.Minute, models.ActivityMinutes},
	{config.Day, config.Hour, models.ActivityHours},
	{config.Week, config.Day, models.ActivityDays},
	{config.Month, config.Week, models.ActivityWeeks},
	{config.Year, config.Month, models.ActivityMonths},
}

// Bucket picks the largest unit whose threshold elapsed has reached and
// counts whole units of it. Thresholds are strict, so exactly one minute is
// "1 minute", not "60 seconds".
func Bucket(elapsed time.Duration) models.RelativeActivity {
	if elapsed < config.Second {
		return models.RelativeActivity{Unit: models.ActivityNow}
	}
	for _, b := range buckets {
		if elapsed < b.limit {
			return models.RelativeActivity{Unit: b.name, Count: int64(elapsed / b.unit)}
		}
	}
	return models.RelativeActivity{Unit: models.ActivityYears, Count: int64(elapsed / config.Year)}
}

// DefaultLabel formats a in English.
func DefaultLabel(a models.RelativeActivity) string {
	if a.Unit == models.ActivityNow {
		return "active now"
	}
	return fmt.Sprintf("%d %s ago", a.Count, a.Unit)
}
