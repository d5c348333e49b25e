package notification

import (
	"strconv"
	"time"
)

type Item struct {
	ID        int64     `json:"id"`
	Type      Type      `json:"type"`
	Message   string    `json:"message"`
	Icon      Icon      `json:"icon"`
	Timestamp time.Time `json:"timestamp"`
	TimeAgo   string    `json:"timeAgo"`
	Read      bool      `json:"read"`
	State     string    `json:"state"`
	ReportID  *int64    `json:"reportId"`
}

// View is what a client needs to draw the badge and the list.
type View struct {
	UnreadCount  int    `json:"unreadCount"`
	BadgeVisible bool   `json:"badgeVisible"`
	Items        []Item `json:"items"`
	Placeholder  string `json:"placeholder,omitempty"`
}

// Project maps a newest-first notification list to its view. It has no side
// effects.
func Project(items []Notification, now time.Time) View {
	v := View{Items: make([]Item, 0, len(items))}
	for _, n := range items {
		state := "read"
		if !n.Read {
			v.UnreadCount++
			state = "unread"
		}
		v.Items = append(v.Items, Item{
			ID:        n.ID,
			Type:      n.Type,
			Message:   n.Message,
			Icon:      IconFor(n.Type),
			Timestamp: n.Timestamp,
			TimeAgo:   FormatTimeAgo(n.Timestamp, now),
			Read:      n.Read,
			State:     state,
			ReportID:  n.ReportID,
		})
	}
	v.BadgeVisible = v.UnreadCount > 0
	if len(items) == 0 {
		v.Placeholder = Placeholder
	}
	return v
}

// FormatTimeAgo renders the coarsest unit that fits more than once.
func FormatTimeAgo(t, now time.Time) string {
	seconds := float64(int64(now.Sub(t) / time.Second))

	units := []struct {
		seconds float64
		label   string
	}{
		{31536000, "years"},
		{2592000, "months"},
		{86400, "days"},
		{3600, "hours"},
		{60, "minutes"},
	}
	for _, u := range units {
		if interval := seconds / u.seconds; interval > 1 {
			return strconv.Itoa(int(interval)) + " " + u.label + " ago"
		}
	}
	return "Just now"
}
