/*
Package sandbox hosts the agent's in-page JavaScript in an embedded goja
runtime.

Chromium is the only place the scripts do real work, but two things can be
checked without it:

  - Verify compiles every embedded script, so a syntax error fails startup
    instead of the first command that needs the script.
  - Scorer loads score.js and exposes its functions, so the scoring math
    in the page can be compared with the Go scorer the resolver tests use.

Runtimes have no require, process or module globals, timers are no-ops,
console output is captured, and every execution is interrupted when its
timeout passes or its context ends.
*/
package sandbox
