// internal/lifecycle/status_test.go
package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusOrdering(t *testing.T) {
	all := All()
	assert.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		assert.True(t, all[i-1].Before(all[i]),
			"%s should come before %s", all[i-1], all[i])
	}
}

func TestLater_PicksHigherStage(t *testing.T) {
	assert.Equal(t, StatusActive, Later(StatusActive, StatusLead))
	assert.Equal(t, StatusActive, Later(StatusLead, StatusActive))
	assert.Equal(t, StatusFeedback, Later(StatusFeedback, StatusComplete))
	assert.Equal(t, StatusLead, Later(StatusLead, StatusLead))
}

func TestLater_UnknownLabelRanksLowest(t *testing.T) {
	assert.Equal(t, StatusLead, Later(Status("garbage"), StatusLead))
	assert.Equal(t, StatusAssessed, Later(StatusAssessed, Status("")))
}

func TestParse(t *testing.T) {
	s, ok := Parse("Active Client")
	assert.True(t, ok)
	assert.Equal(t, StatusActive, s)

	_, ok = Parse("Paused")
	assert.False(t, ok)
}

func TestRank_Unknown(t *testing.T) {
	assert.Equal(t, 0, Status("nope").Rank())
	assert.False(t, Status("nope").IsValid())
}
