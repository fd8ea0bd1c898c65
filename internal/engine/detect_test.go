package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shaharia-lab/stockbell/internal/engine"
	"github.com/shaharia-lab/stockbell/internal/shop"
)

func TestIsNew(t *testing.T) {
	snap := &shop.Snapshot{ReportedAt: 1000}

	assert.True(t, engine.IsNew(snap, engine.NoneID))
	assert.True(t, engine.IsNew(snap, "999"))
	assert.False(t, engine.IsNew(snap, "1000"))
}

func TestMatches(t *testing.T) {
	snap := &shop.Snapshot{
		ReportedAt: 1000,
		Seeds:      []shop.Item{{Name: "Mango"}, {Name: "Cactus"}, {Name: "Mango"}},
		Gear:       []shop.Item{{Name: "Water Bucket"}},
	}

	tests := []struct {
		name      string
		snap      *shop.Snapshot
		watchlist []string
		want      []string
	}{
		{"seed match", snap, []string{"Mango"}, []string{"Mango"}},
		{"gear match", snap, []string{"Water Bucket"}, []string{"Water Bucket"}},
		{"snapshot order", snap, []string{"Water Bucket", "Cactus", "Mango"}, []string{"Mango", "Cactus", "Water Bucket"}},
		{"no match", snap, []string{"King Limone"}, []string{}},
		{"empty watchlist", snap, nil, []string{}},
		{"empty snapshot", &shop.Snapshot{ReportedAt: 1}, []string{"Mango"}, []string{}},
		{"nil snapshot", nil, []string{"Mango"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, engine.Matches(tt.snap, tt.watchlist))
		})
	}
}
