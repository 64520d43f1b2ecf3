//go:build !linux

package enclave

import (
	"errors"
	"runtime"
)

// PAL is unavailable outside Linux; SGX enclaves require a Linux host.
type PAL struct {
	library string
}

func NewPAL(library string) *PAL {
	return &PAL{library: library}
}

func (p *PAL) Init(Attr) error {
	return errors.New("occlum pal is not supported on " + runtime.GOOS)
}

func (p *PAL) Destroy() error {
	return errors.New("occlum pal is not supported on " + runtime.GOOS)
}
