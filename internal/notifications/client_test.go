package notifications

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/sadd15/water-data-scraper/internal/fault"

	"github.com/stretchr/testify/require"
)

type received struct {
	path     string
	title    string
	priority string
	body     string
}

func newServer(t *testing.T, status int) (*httptest.Server, func() []received) {
	var mu sync.Mutex
	var got []received

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, rq *http.Request) {
		b, _ := io.ReadAll(rq.Body)
		mu.Lock()
		got = append(got, received{
			path:     rq.URL.Path,
			title:    rq.Header.Get("Title"),
			priority: rq.Header.Get("Priority"),
			body:     string(b),
		})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)

	return srv, func() []received {
		mu.Lock()
		defer mu.Unlock()
		return append([]received(nil), got...)
	}
}

func TestSendNotification(t *testing.T) {
	srv, got := newServer(t, http.StatusOK)
	c := NewClient(srv.URL+"/", "water", true, "high")

	require.NoError(t, c.SendNotification(context.Background(), "title", "hello"))

	msgs := got()
	require.Len(t, msgs, 1)
	require.Equal(t, "/water", msgs[0].path)
	require.Equal(t, "title", msgs[0].title)
	require.Equal(t, "high", msgs[0].priority)
	require.Equal(t, "hello", msgs[0].body)
}

func TestSendNotificationDisabled(t *testing.T) {
	srv, got := newServer(t, http.StatusOK)
	c := NewClient(srv.URL, "water", false, "")

	require.NoError(t, c.SendNotification(context.Background(), "", "hello"))
	require.Empty(t, got())
}

func TestSendNotificationHTTPError(t *testing.T) {
	tests := []struct {
		status   int
		expected string
	}{
		{http.StatusForbidden, "auth"},
		{http.StatusTooManyRequests, "rate_limit"},
		{http.StatusBadRequest, "client"},
		{http.StatusBadGateway, "server"},
	}

	for _, tt := range tests {
		srv, got := newServer(t, tt.status)
		c := NewClient(srv.URL, "water", true, "")

		err := c.SendNotification(context.Background(), "", "hello")
		var ne *NotificationError
		require.ErrorAs(t, err, &ne)
		require.Equal(t, tt.expected, ne.Type)
		require.Equal(t, tt.status, ne.StatusCode)
		require.Len(t, got(), 1, "no retry")
	}
}

func TestNotifyFailures(t *testing.T) {
	srv, got := newServer(t, http.StatusOK)
	c := NewClient(srv.URL, "water", true, "")

	results := []fault.Result{
		{Step: "extract", Err: fault.New(fault.ElementNotFound, "wait for row", errors.New("timeout"))},
		{Step: "write_latest"},
	}
	c.NotifyFailures(context.Background(), "235", results)

	msgs := got()
	require.Len(t, msgs, 1)
	require.Contains(t, msgs[0].body, "Row 235")
	require.Contains(t, msgs[0].body, "- extract (element_not_found)")
	require.NotContains(t, msgs[0].body, "write_latest")
}

func TestNotifyFailuresAllOK(t *testing.T) {
	srv, got := newServer(t, http.StatusOK)
	c := NewClient(srv.URL, "water", true, "")

	c.NotifyFailures(context.Background(), "235", []fault.Result{{Step: "extract"}})
	require.Empty(t, got())
	require.Equal(t, "", FormatFailures("235", nil))
}
