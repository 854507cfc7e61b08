package votetracker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/civiclens/council-scraper/internal/civic"
	"github.com/civiclens/council-scraper/internal/fetch"
)

func TestCSVExportURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "edit url",
			in:   "https://docs.google.com/spreadsheets/d/abc123XYZ/edit#gid=0",
			want: "https://docs.google.com/spreadsheets/d/abc123XYZ/export?format=csv",
		},
		{
			name: "bare id",
			in:   "https://docs.google.com/spreadsheets/d/abc123XYZ",
			want: "https://docs.google.com/spreadsheets/d/abc123XYZ/export?format=csv",
		},
		{
			name: "passthrough",
			in:   "https://docs.google.com/pub?output=csv",
			want: "https://docs.google.com/pub?output=csv",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, CSVExportURL(tc.in))
		})
	}
}

func TestNormalizeVote(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want civic.VoteValue
	}{
		{in: "Y", want: civic.VoteYea},
		{in: "y", want: civic.VoteYea},
		{in: "YEA", want: civic.VoteYea},
		{in: "N", want: civic.VoteNay},
		{in: "nay", want: civic.VoteNay},
		{in: "Absent", want: civic.VoteAbsent},
		{in: "ABSTAIN", want: civic.VoteAbstain},
		{in: "", want: civic.VoteAbstain},
		{in: "recused", want: civic.VoteAbstain},
	}

	for _, tc := range tests {
		require.Equal(t, tc.want, NormalizeVote(tc.in), "input %q", tc.in)
	}
}

func newTestTracker(t *testing.T, srv *httptest.Server) *Tracker {
	t.Helper()
	client, err := fetch.NewClient(fetch.Config{
		UserAgent: "test-agent",
		Timeout:   5 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	return NewTracker(client, Config{
		TrackerURL: srv.URL + "/vote-tracker",
		SourceName: "BRL Vote Tracker",
	}, zap.NewNop())
}

func TestRowsFromLinkedSheet(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/vote-tracker", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
<p>How did your council member vote?</p>
<iframe src="https://docs.google.com/spreadsheets/d/sheet1/pubhtml"></iframe>
</body></html>`))
	})
	mux.HandleFunc("/spreadsheets/d/sheet1/export", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "csv", r.URL.Query().Get("format"))
		_, _ = w.Write([]byte("councilmember,vote,date,agenda_item_desc_1,code\n" +
			"Aaron Brockett,Y,2023-04-04,Library district funding,ORD-8642\n" +
			"Nicole Speer,N,2023-04-04,,\n"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	tracker := newTestTracker(t, srv)
	// Serve the CSV export from the test server instead of Google.
	tracker.rewriteSheetURL = func(sheetURL string) string {
		require.Equal(t, "https://docs.google.com/spreadsheets/d/sheet1/pubhtml", sheetURL)
		return srv.URL + "/spreadsheets/d/sheet1/export?format=csv"
	}

	rows, err := tracker.Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, Row{
		Member: "Aaron Brockett", Vote: "Y", Date: "2023-04-04",
		Title: "Library district funding", Code: "ORD-8642",
	}, rows[0])
	require.Equal(t, Row{
		Member: "Nicole Speer", Vote: "N", Date: "2023-04-04",
		Title: defaultTitle, Code: defaultCode,
	}, rows[1])
}

func TestRowsFromPageTable(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/vote-tracker", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><table>
<tr><th>Councilmember</th><th>Vote</th><th>Date</th><th>Code</th></tr>
<tr><td>Aaron Brockett</td><td>Y</td><td>2023-04-04</td><td>ORD-8642</td></tr>
<tr><td>Mark Wallach</td><td>N</td><td>2023-04-04</td><td>ORD-8642</td></tr>
</table></body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	rows, err := newTestTracker(t, srv).Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, Row{
		Member: "Aaron Brockett", Vote: "Y", Date: "2023-04-04",
		Title: defaultTitle, Code: "ORD-8642",
	}, rows[0])
}

func TestRowsFromPageText(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/vote-tracker", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
<p>On the library question the council split: Brockett YEA while Wallach NAY on final reading.</p>
</body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	tracker := newTestTracker(t, srv)
	tracker.now = func() time.Time {
		return time.Date(2023, time.April, 10, 12, 0, 0, 0, time.UTC)
	}

	rows, err := tracker.Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, Row{
		Member: "Brockett", Vote: "YEA", Date: "2023-04-10",
		Title: "Extracted from page content", Code: defaultCode,
	}, rows[0])
	require.Equal(t, "Wallach", rows[1].Member)
	require.Equal(t, "NAY", rows[1].Vote)
}

func TestGroupByDate(t *testing.T) {
	t.Parallel()

	rows := []Row{
		{Member: "A", Date: "2023-04-04"},
		{Member: "B", Date: "2023-03-07"},
		{Member: "C", Date: "2023-04-04"},
	}

	groups := GroupByDate(rows)
	require.Len(t, groups, 2)
	require.Equal(t, "2023-03-07", groups[0].Date)
	require.Len(t, groups[0].Rows, 1)
	require.Equal(t, "2023-04-04", groups[1].Date)
	require.Len(t, groups[1].Rows, 2)
}
