/*
Package browser drives a Chromium instance over the DevTools protocol and
implements page.Automation for the agent.

# Tabs

Every tab is a chromedp context bound to one CDP target; tab ids are the
target ids. Exactly one tab is active, and scripts, navigation and
screenshots always address it. Opening a tab activates it; closing the
active tab activates the most recently opened remaining one. The last tab
cannot be closed.

# Scripts

RunScript evaluates an expression with promise awaiting and decodes its
JSON value. Calls are serialized per browser so two scripts never run
against the same document at once. The in-page scripts themselves live in
the scripts subpackage and are compiled once at startup by the sandbox
subpackage to catch syntax errors before Chromium sees them.

# Fetching without a browser

Fetcher loads a page over the shared resilient HTTP client (retries,
circuit breaker, rate limit) with browser-like headers and decodes its
charset. The CLI uses it to inspect pages without launching Chromium.
*/
package browser
