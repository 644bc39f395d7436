package alerts

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phoa/internal/evaluator"
	"phoa/internal/types"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("alert-%d", n)
	}
}

var evalTime = time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)

func TestRank_OrdersBySeverityThenName(t *testing.T) {
	candidates := []evaluator.Candidate{
		{ConditionID: "Q2", ConditionName: "Cynophobia", Severity: types.SeverityMedium, Channels: []types.AlertChannel{types.ChannelText}},
		{ConditionID: "Q1", ConditionName: "Acrophobia", Severity: types.SeverityMedium, Channels: []types.AlertChannel{types.ChannelSensor}},
		{ConditionID: "Q3", ConditionName: "Nosocomephobia", Severity: types.SeverityHigh, Channels: []types.AlertChannel{types.ChannelSensor}},
	}
	notices := []Notice{{Key: "spring_pollen", Title: "Spring Season Alert", Severity: types.SeverityLow, Message: "pollen"}}

	got := NewRanker(WithIDGenerator(sequentialIDs())).Rank(candidates, notices, nil, evalTime)
	require.Len(t, got, 4)

	var order []string
	for _, a := range got {
		order = append(order, a.ConditionName)
	}
	assert.Equal(t, []string{"Nosocomephobia", "Acrophobia", "Cynophobia", "Spring Season Alert"}, order)
	assert.Equal(t, []types.AlertChannel{types.ChannelTime}, got[3].Channels)
	assert.Empty(t, got[3].ConditionID)
	assert.NotNil(t, got[0].Recommendations)
	assert.Equal(t, evalTime, got[0].CreatedAt)
}

func TestRank_MergesChannelsForOneCondition(t *testing.T) {
	candidates := []evaluator.Candidate{
		{ConditionID: "Q1", ConditionName: "Nosocomephobia", Severity: types.SeverityMedium,
			Channels: []types.AlertChannel{types.ChannelText}, Reasons: []string{"mentioned: hospital"}},
		{ConditionID: "Q1", ConditionName: "Nosocomephobia", Severity: types.SeverityHigh,
			Channels: []types.AlertChannel{types.ChannelSensor}, Reasons: []string{"location_type=hospital", "heart_rate=110"}},
	}

	got := NewRanker().Rank(candidates, nil, nil, evalTime)
	require.Len(t, got, 1)
	assert.Equal(t, types.SeverityHigh, got[0].Severity)
	assert.ElementsMatch(t, []types.AlertChannel{types.ChannelSensor, types.ChannelText}, got[0].Channels)
	assert.Equal(t, "Nosocomephobia trigger detected (mentioned: hospital; location_type=hospital; heart_rate=110)", got[0].Message)
	assert.NotEmpty(t, got[0].ID)
}

func TestRank_AttachesRecommendations(t *testing.T) {
	catalog, err := LoadCatalog()
	require.NoError(t, err)

	recs := NewRecommendations(map[string][]types.Treatment{
		"Q1": {{ConditionID: "Q1", Name: "Exposure therapy", Description: "Gradual and guided", URL: "https://example.org/et"}},
	}, catalog)
	candidates := []evaluator.Candidate{
		{ConditionID: "Q1", ConditionName: "Nosocomephobia", Severity: types.SeverityHigh},
		{ConditionID: "Q2", ConditionName: "Arachnophobia", Severity: types.SeverityMedium},
		{ConditionID: "Q3", ConditionName: "Xanthophobia", Severity: types.SeverityMedium},
	}

	got := NewRanker().Rank(candidates, nil, recs, evalTime)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"Exposure therapy: Gradual and guided [https://example.org/et]"}, got[0].Recommendations)
	assert.Equal(t, "Arachnophobia", got[1].ConditionName)
	assert.Contains(t, got[1].Recommendations, "Gradual exposure therapy with a therapist")
	assert.Equal(t, []string{"Practice deep breathing exercises", "Find a safe space"}, got[2].Recommendations)
}

func TestRank_EmptyInputIsEmptyList(t *testing.T) {
	got := NewRanker().Rank(nil, nil, nil, evalTime)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRank_Deterministic(t *testing.T) {
	candidates := []evaluator.Candidate{
		{ConditionID: "Q9", ConditionName: "Same", Severity: types.SeverityMedium},
		{ConditionID: "Q1", ConditionName: "Same", Severity: types.SeverityMedium},
	}
	a := NewRanker(WithIDGenerator(sequentialIDs())).Rank(candidates, nil, nil, evalTime)
	b := NewRanker(WithIDGenerator(sequentialIDs())).Rank(candidates, nil, nil, evalTime)
	assert.Equal(t, a, b)
	assert.Equal(t, "Q1", a[0].ConditionID, "ties on name fall back to condition ID")
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Arachnophobia trigger detected", Message("Arachnophobia", nil))
	assert.Equal(t, "Arachnophobia trigger detected (mentioned: spiders)", Message("Arachnophobia", []string{"mentioned: spiders"}))
}

func TestInformational(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want []string
	}{
		// Thursday 2 April 2026.
		{"spring afternoon", time.Date(2026, 4, 2, 14, 0, 0, 0, time.UTC), []string{"spring_pollen"}},
		{"workday morning", time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC), []string{"morning_reminder", "spring_pollen", "workday_morning"}},
		// Saturday 10 October 2026.
		{"fall weekend night", time.Date(2026, 10, 10, 21, 0, 0, 0, time.UTC), []string{"night", "evening_reminder", "fall_light", "weekend"}},
		// Sunday 5 July 2026.
		{"summer sunday morning", time.Date(2026, 7, 5, 7, 30, 0, 0, time.UTC), []string{"morning_reminder", "weekend"}},
		// Wednesday 14 January 2026.
		{"winter small hours", time.Date(2026, 1, 14, 3, 0, 0, 0, time.UTC), []string{"night"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var keys []string
			for _, n := range Informational(tt.at, nil) {
				keys = append(keys, n.Key)
			}
			assert.Equal(t, tt.want, keys)
		})
	}
}

func TestInformational_UsesLocation(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// 23:00 UTC Thursday is 08:00 Friday in Tokyo.
	at := time.Date(2026, 4, 2, 23, 0, 0, 0, time.UTC)
	var keys []string
	for _, n := range Informational(at, tokyo) {
		keys = append(keys, n.Key)
	}
	assert.Equal(t, []string{"morning_reminder", "spring_pollen", "weekend", "workday_morning"}, keys)
}

func TestSpringNoticeIsLowSeverity(t *testing.T) {
	for _, n := range Informational(time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC), nil) {
		if n.Key == "spring_pollen" {
			assert.Equal(t, types.SeverityLow, n.Severity)
			return
		}
	}
	t.Fatal("spring notice missing")
}

func TestCatalog(t *testing.T) {
	catalog, err := ParseCatalog([]byte(`
fallback: [Breathe]
conditions:
  Arachnophobia: [Leave calmly]
  Q42: [By id]
`))
	require.NoError(t, err)

	recs, ok := catalog.Lookup("", "arachnophobia")
	assert.True(t, ok)
	assert.Equal(t, []string{"Leave calmly"}, recs)

	recs, ok = catalog.Lookup("q42", "Arachnophobia")
	assert.True(t, ok)
	assert.Equal(t, []string{"By id"}, recs, "identifier wins over name")

	_, ok = catalog.Lookup("Q1", "Unknown")
	assert.False(t, ok)

	assert.Equal(t, []string{"Breathe"}, NewRecommendations(nil, catalog).Recommend("Q1", "Unknown"))
	assert.Equal(t, DefaultFallback, NewRecommendations(nil, nil).Recommend("Q1", "Unknown"))

	_, err = ParseCatalog([]byte("conditions: [not, a, map]"))
	assert.Error(t, err)
}

func TestFormatTreatment(t *testing.T) {
	assert.Equal(t, "CBT", FormatTreatment(types.Treatment{Name: "CBT"}))
	assert.Equal(t, "CBT [https://nhs.uk/cbt]", FormatTreatment(types.Treatment{Name: " CBT ", URL: "https://nhs.uk/cbt"}))
	assert.Empty(t, FormatTreatment(types.Treatment{Description: "nameless"}))
}
