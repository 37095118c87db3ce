package library

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ovaphlow/pitchfork/service-journal-go/internal/steam"
)

func TestMergeLibraries_PrimaryWins(t *testing.T) {
	primary := []Game{{AppID: 1, Name: "B"}, {AppID: 2, Name: "A"}}
	secondary := []Game{{AppID: 2, Name: "A-dup"}, {AppID: 3, Name: "C"}}

	got := MergeLibraries(primary, [][]Game{secondary})

	assert.Equal(t, []Game{
		{AppID: 2, Name: "A"},
		{AppID: 1, Name: "B"},
		{AppID: 3, Name: "C", Shared: true},
	}, got)
}

func TestMergeLibraries_FirstSecondaryWins(t *testing.T) {
	got := MergeLibraries(nil, [][]Game{
		{{AppID: 7, Name: "Portal", PlaytimeForever: 10}},
		{{AppID: 7, Name: "Portal", PlaytimeForever: 99}, {AppID: 8, Name: "portal 2"}},
	})

	assert.Equal(t, []Game{
		{AppID: 7, Name: "Portal", PlaytimeForever: 10, Shared: true},
		{AppID: 8, Name: "portal 2", Shared: true},
	}, got)
}

func TestMergeLibraries_CaseInsensitiveStableSort(t *testing.T) {
	primary := []Game{
		{AppID: 1, Name: "zelda"},
		{AppID: 2, Name: "Alpha"},
		{AppID: 3, Name: "alpha"},
		{AppID: 4, Name: "Beta"},
	}
	got := MergeLibraries(primary, [][]Game{{{AppID: 5, Name: "ALPHA"}}})

	ids := make([]int64, 0, len(got))
	for _, g := range got {
		ids = append(ids, g.AppID)
	}
	assert.Equal(t, []int64{2, 3, 5, 4, 1}, ids)
}

func TestMergeLibraries_ClearsSharedOnPrimary(t *testing.T) {
	got := MergeLibraries([]Game{{AppID: 1, Name: "A", Shared: true}}, nil)
	assert.False(t, got[0].Shared)
}

func TestMergeLibraries_Empty(t *testing.T) {
	got := MergeLibraries(nil, nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilterByName(t *testing.T) {
	games := []Game{{AppID: 1, Name: "Half-Life"}, {AppID: 2, Name: "Portal"}, {AppID: 3, Name: "Half-Life 2"}}

	assert.Len(t, FilterByName(games, "half"), 2)
	assert.Len(t, FilterByName(games, "  "), 3)
	assert.Empty(t, FilterByName(games, "doom"))
}

func TestFromOwnedGames(t *testing.T) {
	got := FromOwnedGames([]steam.OwnedGame{{AppID: 10, Name: "CS", PlaytimeForever: 3, ImgIconURL: "i"}})
	assert.Equal(t, []Game{{AppID: 10, Name: "CS", PlaytimeForever: 3, ImgIconURL: "i"}}, got)
}
