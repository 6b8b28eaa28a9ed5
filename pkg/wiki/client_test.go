package wiki

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRetryPolicy keeps retries fast in tests.
func testRetryPolicy(attempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: attempts,
		BaseBackoff: time.Millisecond,
		MaxBackoff:  5 * time.Millisecond,
		Statuses:    []int{429, 500, 502, 503, 504},
	}
}

func newTestClient(srv *httptest.Server, opts ...ClientOption) *Client {
	base := []ClientOption{
		WithBaseURLs(srv.URL+"/w/api.php", srv.URL+"/api/rest_v1"),
		WithMinInterval(0),
		WithRetryPolicy(testRetryPolicy(3)),
	}
	return NewClient("ja", append(base, opts...)...)
}

func TestCategoryMembersPagination(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.Equal(t, "query", r.URL.Query().Get("action"))
		require.Equal(t, "categorymembers", r.URL.Query().Get("list"))
		require.Equal(t, "Category:プログラミング言語", r.URL.Query().Get("cmtitle"))
		require.Equal(t, "500", r.URL.Query().Get("cmlimit"))

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("cmcontinue") == "" {
			fmt.Fprint(w, `{
				"query": {"categorymembers": [
					{"title": "Go (プログラミング言語)", "ns": 0},
					{"title": "Category:関数型言語", "ns": 14},
					{"title": "Rust (プログラミング言語)", "ns": 0}
				]},
				"continue": {"cmcontinue": "page|next|token"}
			}`)
			return
		}
		require.Equal(t, "page|next|token", r.URL.Query().Get("cmcontinue"))
		fmt.Fprint(w, `{"query": {"categorymembers": [{"title": "COBOL", "ns": 0}]}}`)
	}))
	defer srv.Close()

	c := newTestClient(srv)

	titles, cont, err := c.CategoryMembers(context.Background(), "プログラミング言語", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Go (プログラミング言語)", "Rust (プログラミング言語)"}, titles)
	require.Equal(t, "page|next|token", cont)

	titles, cont, err = c.CategoryMembers(context.Background(), "プログラミング言語", cont)
	require.NoError(t, err)
	assert.Equal(t, []string{"COBOL"}, titles)
	assert.Empty(t, cont)
	assert.Equal(t, 2, calls)
}

func TestCategoryMembersNonOKStatus(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, _, err := newTestClient(srv).CategoryMembers(context.Background(), "データベース", "")
	require.Error(t, err)
	// 403 is not in the retry set; it must not be retried.
	assert.Equal(t, 1, calls)
}

func TestSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/rest_v1/page/summary/Go (プログラミング言語)", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"title": "Go (プログラミング言語)",
			"type": "standard",
			"extract": "Goはプログラミング言語の一つである。",
			"content_urls": {"desktop": {"page": "https://ja.wikipedia.org/wiki/Go_(プログラミング言語)"}}
		}`)
	}))
	defer srv.Close()

	s, err := newTestClient(srv).Summary(context.Background(), "Go (プログラミング言語)")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "Go (プログラミング言語)", s.Title)
	assert.Equal(t, "standard", s.Type)
	assert.Equal(t, "Goはプログラミング言語の一つである。", s.Extract)
	assert.Equal(t, "https://ja.wikipedia.org/wiki/Go_(プログラミング言語)", s.PageURL)
}

func TestSummaryMissingPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s, err := newTestClient(srv).Summary(context.Background(), "存在しない記事")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestRetryRecoversFromServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"title": "カーネル", "type": "standard", "extract": "中核部分。"}`)
	}))
	defer srv.Close()

	s, err := newTestClient(srv).Summary(context.Background(), "カーネル")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, 3, calls)
}

func TestRetryExhaustionIsFatal(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(srv, WithRetryPolicy(testRetryPolicy(2)))
	_, err := c.Summary(context.Background(), "カーネル")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "giving up after 2 attempts")
	assert.Equal(t, 2, calls)
}

func TestUserAgentIsSent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Summary(context.Background(), "カーネル")
	require.NoError(t, err)
	assert.Equal(t, DefaultUserAgent, gotUA)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, time.Duration(0), parseRetryAfter(""))
	assert.Equal(t, 7*time.Second, parseRetryAfter("7"))
	assert.Equal(t, time.Duration(0), parseRetryAfter("-3"))
	assert.Equal(t, time.Duration(0), parseRetryAfter("garbage"))

	future := time.Now().Add(30 * time.Second).UTC().Format(http.TimeFormat)
	got := parseRetryAfter(future)
	assert.Greater(t, got, 20*time.Second)
	assert.LessOrEqual(t, got, 30*time.Second)
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	p := RetryPolicy{BaseBackoff: time.Second, MaxBackoff: 5 * time.Second}
	assert.Equal(t, time.Second, p.backoff(0))
	assert.Equal(t, 2*time.Second, p.backoff(1))
	assert.Equal(t, 4*time.Second, p.backoff(2))
	assert.Equal(t, 5*time.Second, p.backoff(3))
	assert.Equal(t, 5*time.Second, p.backoff(10))
}
