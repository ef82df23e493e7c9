package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dayone-labs/kchart-crawler/internal/chart"
)

const geniePage = `
<html><body><table><tbody>
<tr class="list">
  <td class="number">1</td>
  <td class="info">
    <a class="title ellipsis">  Genie   Hit </a>
    <a class="artist ellipsis">Genie Artist</a>
    <a class="albumtitle ellipsis">Genie Album</a>
  </td>
</tr>
<tr class="list">
  <td class="number">2</td>
  <td class="info">
    <a class="title ellipsis">Second Song</a>
    <a class="artist ellipsis">Second Artist</a>
    <a class="albumtitle ellipsis">Second Album</a>
  </td>
</tr>
<tr class="list">
  <td class="number">3</td>
  <td class="info">
    <a class="title ellipsis"></a>
    <a class="artist ellipsis">Missing Title</a>
  </td>
</tr>
</tbody></table></body></html>`

func TestGenieCrawlParsesChart(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, geniePage)
	}))
	defer srv.Close()

	adapter := NewGenie(newTestDeps(t), srv.URL)
	res := adapter.Crawl(context.Background())

	require.Equal(t, "genie", res.SourceID)
	require.Equal(t, chart.StatusSuccess, res.Status)
	require.Len(t, res.Entries, 2)

	first := res.Entries[0]
	require.Equal(t, 1, first.Rank)
	require.Equal(t, "Genie Hit", first.Title)
	require.Equal(t, "Genie Artist", first.Artist)
	require.Equal(t, "Genie Album", first.Album)
	require.Equal(t, "genie", first.SourceID)
	require.Empty(t, first.ChartType)
	require.Equal(t, "KST", first.CollectedAt.Location().String())
}

func TestGenieFetchFailureFailsAdapter(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	adapter := NewGenie(newTestDeps(t), srv.URL)
	res := adapter.Crawl(context.Background())

	require.Equal(t, chart.StatusFailed, res.Status)
	require.Equal(t, chart.ErrKindHTTPStatus, res.ErrorKind)
	require.Empty(t, res.Entries)
	require.Contains(t, res.ErrorMessage, "403")
}

func TestGenieEmptyPageYieldsSuccessWithNoEntries(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, "<html><body>maintenance</body></html>")
	}))
	defer srv.Close()

	adapter := NewGenie(newTestDeps(t), srv.URL)
	res := adapter.Crawl(context.Background())

	require.Equal(t, chart.StatusSuccess, res.Status)
	require.Empty(t, res.Entries)
}
