// Package client is the outbound HTTP client shared by the language-model
// providers and the document fetcher.
//
// Built on go-resty/resty over a go-retryablehttp transport:
//   - Automatic retries with exponential backoff on 5xx, 429 and connection errors
//   - The final response is handed back after retries so callers see status codes
//   - Circuit breaker around every call
//   - Rate limiting per client instance
//   - Context-based cancellation
//
// Example Usage:
//
//	c := client.New(client.DefaultConfig(), logger)
//	req, err := c.Request(ctx)
//	resp, err := c.ExecuteWithBreaker(func() (*resty.Response, error) { return req.Get(url) })
package client
