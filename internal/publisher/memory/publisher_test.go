package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/civiclens/council-scraper/internal/publisher"
)

func TestPublishCollectsNotices(t *testing.T) {
	t.Parallel()

	pub := New()
	require.Empty(t, pub.Notices())

	notice := publisher.Notice{RunID: "run-1", Source: "members", Records: 9, Upserts: 9}
	require.NoError(t, pub.Publish(context.Background(), notice))

	notices := pub.Notices()
	require.Len(t, notices, 1)
	require.Equal(t, notice, notices[0])
}
