//go:build nocgo

package audio

import "github.com/cockroachdb/errors"

// openOto always fails in builds without cgo.
func openOto(_ *Host, _ int) (Device, error) {
	return nil, errors.Wrap(ErrUnavailable, "built without cgo")
}
