package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMessageTable(t *testing.T) {
	id := int64(3)
	p := Payload{ReportID: &id, Title: "Leak", Category: "Water", Status: "Resolved", Department: "Utilities", Name: "Jane"}

	assert.Equal(t, `New report submitted: "Leak" in the Water category.`, Message(TypeNewReport, p))
	assert.Equal(t, `The status of your report "Leak" has been updated to Resolved.`, Message(TypeStatusUpdate, p))
	assert.Equal(t, `Report "Leak" has been assigned to the Utilities department.`, Message(TypeReassignment, p))
	assert.Equal(t, "Welcome to CivicReport, Jane! Start by reporting an issue.", Message(TypeWelcome, p))
	assert.Equal(t, "You have a new notification.", Message(Type("SOMETHING_ELSE"), p))
}

func TestIconFallsBackToNewReport(t *testing.T) {
	assert.Equal(t, "#16A34A", IconFor(TypeStatusUpdate).Background)
	assert.Equal(t, "#F97316", IconFor(TypeReassignment).Background)
	assert.Equal(t, "#7C3AED", IconFor(TypeWelcome).Background)
	assert.Equal(t, IconFor(TypeNewReport), IconFor(Type("UNKNOWN")))
	assert.Equal(t, "#2563EB", IconFor(Type("UNKNOWN")).Background)
}

func TestProject(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	items := []Notification{
		{ID: 3, Type: TypeWelcome, Message: "c", Timestamp: now.Add(-30 * time.Second)},
		{ID: 2, Type: Type("OTHER"), Message: "b", Timestamp: now.Add(-3 * time.Hour), Read: true},
		{ID: 1, Type: TypeNewReport, Message: "a", Timestamp: now.Add(-49 * time.Hour)},
	}

	v := Project(items, now)

	assert.Equal(t, 2, v.UnreadCount)
	assert.True(t, v.BadgeVisible)
	assert.Empty(t, v.Placeholder)
	if assert.Len(t, v.Items, 3) {
		assert.Equal(t, []int64{3, 2, 1}, []int64{v.Items[0].ID, v.Items[1].ID, v.Items[2].ID})
		assert.Equal(t, "unread", v.Items[0].State)
		assert.Equal(t, "read", v.Items[1].State)
		assert.Equal(t, IconFor(TypeNewReport), v.Items[1].Icon)
		assert.Equal(t, "Just now", v.Items[0].TimeAgo)
		assert.Equal(t, "3 hours ago", v.Items[1].TimeAgo)
		assert.Equal(t, "2 days ago", v.Items[2].TimeAgo)
	}
}

func TestProjectEmpty(t *testing.T) {
	v := Project(nil, time.Now())
	assert.Equal(t, 0, v.UnreadCount)
	assert.False(t, v.BadgeVisible)
	assert.NotNil(t, v.Items)
	assert.Equal(t, "You have no new notifications.", v.Placeholder)
}

func TestFormatTimeAgo(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		ago  time.Duration
		want string
	}{
		{0, "Just now"},
		{59 * time.Second, "Just now"},
		{60 * time.Second, "Just now"},
		{61 * time.Second, "1 minutes ago"},
		{60 * time.Minute, "60 minutes ago"},
		{90 * time.Minute, "1 hours ago"},
		{25 * time.Hour, "1 days ago"},
		{31 * 24 * time.Hour, "1 months ago"},
		{400 * 24 * time.Hour, "1 years ago"},
		{-5 * time.Minute, "Just now"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTimeAgo(now.Add(-tt.ago), now), tt.ago.String())
	}
}
