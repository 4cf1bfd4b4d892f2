package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware for metrics collection
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		// Route templates keep label cardinality bounded.
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// Timer measures one operation and reports it on Stop.
type Timer struct {
	start  time.Time
	report func(time.Duration)
}

// NewTimer starts a timer that hands its elapsed time to report.
func NewTimer(report func(time.Duration)) *Timer {
	return &Timer{start: time.Now(), report: report}
}

// Stop reports and returns the elapsed duration.
func (t *Timer) Stop() time.Duration {
	d := time.Since(t.start)
	if t.report != nil {
		t.report(d)
	}
	return d
}
