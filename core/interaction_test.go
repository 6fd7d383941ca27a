package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInteractionType_BaseWeight(t *testing.T) {
	want := map[InteractionType]float64{
		InteractionImpression: 0.05,
		InteractionView:       0.10,
		InteractionClick:      0.30,
		InteractionBookmark:   0.50,
		InteractionShare:      0.60,
		InteractionStart:      0.70,
		InteractionComplete:   1.00,
		InteractionReview:     0.80,
	}
	for typ, w := range want {
		assert.True(t, typ.Valid(), typ)
		assert.Equal(t, w, typ.BaseWeight(), typ)
	}
	assert.True(t, InteractionRate.Valid())
	assert.False(t, InteractionType("like").Valid())
	assert.Len(t, InteractionTypes(), 9)
}

func TestInteraction_RateWeight(t *testing.T) {
	r := 4.0
	in := Interaction{Type: InteractionRate, Rating: &r}
	assert.InDelta(t, 0.8, in.BaseWeight(), 1e-12)

	in.Rating = nil
	assert.Equal(t, 0.0, in.BaseWeight())
}

func TestDaypart(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{5, DaypartNight},
		{6, DaypartMorning},
		{11, DaypartMorning},
		{12, DaypartAfternoon},
		{17, DaypartAfternoon},
		{18, DaypartEvening},
		{22, DaypartEvening},
		{23, DaypartNight},
		{0, DaypartNight},
	}
	for _, tt := range tests {
		ts := time.Date(2024, 3, 4, tt.hour, 30, 0, 0, time.UTC)
		assert.Equal(t, tt.want, Daypart(ts), "hour %d", tt.hour)
	}
}

func TestIsWeekend(t *testing.T) {
	// 2024-03-09 是周六
	assert.True(t, IsWeekend(time.Date(2024, 3, 9, 8, 0, 0, 0, time.UTC)))
	assert.True(t, IsWeekend(time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)))
	assert.False(t, IsWeekend(time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC)))
}

func TestInteractionQuery_Match(t *testing.T) {
	ts := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	in := &Interaction{UserID: "u1", ActivityID: "a1", Timestamp: ts}

	assert.True(t, InteractionQuery{UserID: "u1"}.Match(in))
	assert.True(t, InteractionQuery{UserID: "u1", ActivityID: "a1", Since: ts}.Match(in))
	assert.False(t, InteractionQuery{UserID: "u2"}.Match(in))
	assert.False(t, InteractionQuery{UserID: "u1", ActivityID: "a2"}.Match(in))
	assert.False(t, InteractionQuery{UserID: "u1", Since: ts.Add(time.Second)}.Match(in))
}
