package markup

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelectAllClassContains(t *testing.T) {
	t.Parallel()

	doc := Parse(`<table><tr><td class="rank">3</td></tr></table>`)
	matches := doc.SelectAll(".rank")
	require.Len(t, matches, 1)
	require.Equal(t, "3", matches[0].Text())
}

func TestClassContainsMatchesSubstring(t *testing.T) {
	t.Parallel()

	doc := Parse(`<div class="ellipsis rank01 over"><a href="#">Happy</a></div>`)
	el := doc.SelectOne(".ellipsis.rank01 a")
	require.NotNil(t, el)
	require.Equal(t, "Happy", el.Text())
}

func TestAttributeSelector(t *testing.T) {
	t.Parallel()

	html := `
<table>
  <tr data-song-no="101"><td class="rank">1</td></tr>
  <tr data-song-no="102"><td class="rank">2</td></tr>
  <tr><td class="rank">ad</td></tr>
</table>`
	doc := Parse(html)
	rows := doc.SelectAll("tr[data-song-no]")
	require.Len(t, rows, 2)
	require.Equal(t, "1", rows[0].SelectOne(".rank").Text())
	require.Equal(t, "2", rows[1].SelectOne(".rank").Text())
}

func TestAttributeValueContains(t *testing.T) {
	t.Parallel()

	doc := Parse(`<a href="https://example.com/album/42">album</a><a href="/song/7">song</a>`)
	matches := doc.SelectAll(`a[href="album"]`)
	require.Len(t, matches, 1)
	require.Equal(t, "album", matches[0].Text())
}

func TestScopedSubQuery(t *testing.T) {
	t.Parallel()

	html := `
<tr data-song-no="1">
  <td><div class="wrap"><img src="http://img/1.jpg"/></div></td>
  <td class="rank">1</td>
</tr>
<tr data-song-no="2">
  <td><img src="http://img/2.jpg"/></td>
  <td class="rank">2</td>
</tr>`
	rows := Parse(html).SelectAll("tr[data-song-no]")
	require.Len(t, rows, 2)
	require.Equal(t, "http://img/1.jpg", rows[0].SelectOne("img").Attr("src"))
	require.Equal(t, "http://img/2.jpg", rows[1].SelectOne("img").Attr("src"))
}

func TestAbsenceYieldsEmptyOrNil(t *testing.T) {
	t.Parallel()

	doc := Parse(`<p>nothing here</p>`)
	require.Nil(t, doc.SelectOne(".missing"))
	require.Empty(t, doc.SelectAll("tr[data-song-no]"))
	require.Empty(t, doc.SelectAll(""))

	var el *Element
	require.Equal(t, "", el.Text())
	require.Equal(t, "", el.Attr("src"))
}

func TestParseNeverPanics(t *testing.T) {
	t.Parallel()

	for _, html := range []string{"", "<tr><td>", "<<<>>>", "plain text"} {
		require.NotPanics(t, func() {
			Parse(html).SelectAll(".x")
		})
	}
}

func TestTranslate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{".rank", `[class*="rank"]`},
		{".ellipsis.rank01 a", `[class*="ellipsis"][class*="rank01"] a`},
		{"tr[data-song-no]", "tr[data-song-no]"},
		{`tr[class="list"]`, `tr[class*="list"]`},
		{"tr.list", `tr[class*="list"]`},
		{".info .title", `[class*="info"] [class*="title"]`},
		{"img", "img"},
		{"", "__no_match__"},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, Translate(tc.in), "selector %q", tc.in)
	}
}
