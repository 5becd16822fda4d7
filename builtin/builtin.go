// Package builtin provides the activities that ship with the binary.
//
// Each activity treats the target as read-only, writes artifacts only
// under the run's output directory, and produces the same summary when
// re-run against an unchanged target.
package builtin

import "github.com/optqo/optqo/activity"

// Register adds every built-in activity to r.
func Register(r *activity.Registry) error {
	for _, d := range []activity.Descriptor{
		Discover(),
		Structure(),
		Document(),
	} {
		if err := r.Register(d); err != nil {
			return err
		}
	}
	return nil
}
