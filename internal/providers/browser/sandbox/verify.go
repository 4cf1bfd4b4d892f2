package sandbox

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dop251/goja"

	"github.com/GriffinCanCode/AgentBrowser/internal/providers/browser/scripts"
)

// Verify compiles every embedded script and reports all syntax errors.
func Verify() error {
	all, err := scripts.All()
	if err != nil {
		return err
	}
	names := make([]string, 0, len(all))
	for n := range all {
		names = append(names, string(n))
	}
	sort.Strings(names)

	var errs []error
	for _, n := range names {
		if _, err := goja.Compile(n+".js", all[scripts.Name(n)], false); err != nil {
			errs = append(errs, fmt.Errorf("script %s: %w", n, err))
		}
	}
	return errors.Join(errs...)
}
