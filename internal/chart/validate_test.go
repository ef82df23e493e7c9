package chart

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValid(t *testing.T) {
	t.Parallel()

	base := Entry{Rank: 1, Title: "Time of Our Life", Artist: "DAY6"}

	tests := []struct {
		name   string
		mutate func(*Entry)
		want   bool
	}{
		{"rank one", func(*Entry) {}, true},
		{"rank two hundred", func(e *Entry) { e.Rank = 200 }, true},
		{"rank zero", func(e *Entry) { e.Rank = 0 }, false},
		{"rank negative", func(e *Entry) { e.Rank = -3 }, false},
		{"rank above max", func(e *Entry) { e.Rank = 201 }, false},
		{"empty title", func(e *Entry) { e.Title = "" }, false},
		{"whitespace title", func(e *Entry) { e.Title = "  \n\t" }, false},
		{"empty artist", func(e *Entry) { e.Artist = "" }, false},
		{"whitespace artist", func(e *Entry) { e.Artist = "   " }, false},
		{"optional fields absent", func(e *Entry) { e.Album = ""; e.ArtURL = "" }, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			e := base
			tc.mutate(&e)
			require.Equal(t, tc.want, Valid(e))
		})
	}
}

func TestCleanText(t *testing.T) {
	t.Parallel()

	require.Equal(t, "a b c", CleanText("  a \n b\t\tc  "))
	require.Equal(t, "", CleanText(" \n "))
	require.Equal(t, "아이유 Love wins all", CleanText("아이유\n Love   wins all"))
}

func TestSafeInt(t *testing.T) {
	t.Parallel()

	require.Equal(t, 3, SafeInt("3"))
	require.Equal(t, 42, SafeInt(" 4위 2 "))
	require.Equal(t, 0, SafeInt("no digits"))
	require.Equal(t, 0, SafeInt(""))
	require.Equal(t, 100, SafeInt("100"))
}
