package models

import "time"

// Weekday is the closed weekday set used by interest rules.
type Weekday string

const (
	Monday    Weekday = "MONDAY"
	Tuesday   Weekday = "TUESDAY"
	Wednesday Weekday = "WEDNESDAY"
	Thursday  Weekday = "THURSDAY"
	Friday    Weekday = "FRIDAY"
	Saturday  Weekday = "SATURDAY"
	Sunday    Weekday = "SUNDAY"
)

// WeekdayOf maps a time to its Weekday value.
func WeekdayOf(t time.Time) Weekday {
	switch t.Weekday() {
	case time.Monday:
		return Monday
	case time.Tuesday:
		return Tuesday
	case time.Wednesday:
		return Wednesday
	case time.Thursday:
		return Thursday
	case time.Friday:
		return Friday
	case time.Saturday:
		return Saturday
	default:
		return Sunday
	}
}

// InterestRule subscribes a user to a category on specific weekdays.
type InterestRule struct {
	Category CategoryName `yaml:"category" json:"category"`
	Weekdays []Weekday    `yaml:"weekdays" json:"weekdays"`
}

// Matches reports whether the rule is live on the given weekday.
func (r InterestRule) Matches(day Weekday) bool {
	for _, wd := range r.Weekdays {
		if wd == day {
			return true
		}
	}
	return false
}

// User is the profile record the pipeline consumes. Profile management lives
// elsewhere; the pipeline only reads these fields.
type User struct {
	ID                  string              `yaml:"id" json:"id"`
	Timezone            string              `yaml:"timezone" json:"timezone"`
	DailyReadingMinutes int                 `yaml:"daily_reading_minutes" json:"daily_reading_minutes"`
	Channels            []string            `yaml:"channels" json:"channels"`
	Interested          []InterestRule      `yaml:"interested" json:"interested"`
	NotInterested       []string            `yaml:"not_interested" json:"not_interested"`
	ChannelOverrides    map[string][]string `yaml:"channel_overrides" json:"channel_overrides"`
}

// EffectiveNotInterested resolves the moderation rules for one channel:
// a per-channel override wins, otherwise the user-level list applies.
func (u User) EffectiveNotInterested(channelID string) []string {
	if rules, ok := u.ChannelOverrides[channelID]; ok {
		return rules
	}
	return u.NotInterested
}

// AllowedCategories returns the categories whose rules are live on the day.
func (u User) AllowedCategories(day Weekday) []CategoryName {
	var out []CategoryName
	for _, rule := range u.Interested {
		if rule.Matches(day) {
			out = append(out, rule.Category)
		}
	}
	return out
}
