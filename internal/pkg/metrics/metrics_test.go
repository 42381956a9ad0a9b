package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManager(t *testing.T) {
	Convey("Given a fresh metrics manager", t, func() {
		m := NewManager(WithNamespace("test"))

		Convey("When AI calls and fallbacks are recorded", func() {
			m.RecordAICall("respond", OutcomeOK, 120*time.Millisecond)
			m.RecordAICall("respond", OutcomeError, 2*time.Second)
			m.RecordAIFallback("respond", "timeout")
			m.RecordAIFallback("respond", "timeout")

			Convey("Then the counters reflect each label set", func() {
				So(testutil.ToFloat64(m.aiCalls.WithLabelValues("respond", OutcomeOK)), ShouldEqual, 1)
				So(testutil.ToFloat64(m.aiCalls.WithLabelValues("respond", OutcomeError)), ShouldEqual, 1)
				So(testutil.ToFloat64(m.aiFallbacks.WithLabelValues("respond", "timeout")), ShouldEqual, 2)
			})
		})

		Convey("When practice sessions open and close", func() {
			m.PracticeSessionOpened()
			m.PracticeSessionOpened()
			m.PracticeSessionClosed()

			Convey("Then the gauge tracks the open count", func() {
				So(testutil.ToFloat64(m.practiceSessions), ShouldEqual, 1)
			})
		})

		Convey("When the handler is scraped", func() {
			m.RecordHTTPRequest("/api/v1/posts", http.MethodGet, http.StatusOK, 5*time.Millisecond)
			m.RecordReaction("like")

			rec := httptest.NewRecorder()
			m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

			Convey("Then it exposes the namespaced series", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				body := rec.Body.String()
				So(strings.Contains(body, `test_http_requests_total{method="GET",route="/api/v1/posts",status_code="200"} 1`), ShouldBeTrue)
				So(strings.Contains(body, `test_community_reaction_toggles_total{reaction="like"} 1`), ShouldBeTrue)
			})
		})
	})
}

func TestManagerCustomBuckets(t *testing.T) {
	Convey("Given a manager with long-tail latency buckets", t, func() {
		m := NewManager(WithNamespace("test"), WithHistogramBuckets([]float64{1, 30, 60}))

		Convey("When a slow AI call is recorded", func() {
			m.RecordAICall("evaluate", OutcomeOK, 25*time.Second)

			rec := httptest.NewRecorder()
			m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

			Convey("Then it lands in the 30s bucket", func() {
				body := rec.Body.String()
				So(strings.Contains(body, `test_ai_call_duration_seconds_bucket{operation="evaluate",le="1"} 0`), ShouldBeTrue)
				So(strings.Contains(body, `test_ai_call_duration_seconds_bucket{operation="evaluate",le="30"} 1`), ShouldBeTrue)
			})
		})
	})
}
