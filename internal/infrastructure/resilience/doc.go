/*
Package resilience provides the circuit breaker that guards calls to
language-model endpoints.

# Usage

	breaker := resilience.New("llm", resilience.Settings{
		MaxRequests: 3,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, llm.ErrInvalidCredential)
		},
	})

	text, err := resilience.Do(breaker, func() (string, error) {
		return provider.Complete(ctx, prompt, nil)
	})

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                       [failure]
	                                           v
	                                          Open

Errors classified as successful by IsSuccessful (for example a rejected
credential) never trip the breaker: retrying them cannot help.
*/
package resilience
