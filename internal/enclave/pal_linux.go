//go:build linux

package enclave

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

// palAttr matches occlum_pal_attr_t: two const char pointers.
type palAttr struct {
	instanceDir *byte
	logLevel    *byte
}

// PAL calls into libocclum-pal through dlopen.
type PAL struct {
	library string

	mu      sync.Mutex
	handle  uintptr
	init    func(attr unsafe.Pointer) int32
	destroy func() int32
}

// NewPAL prepares a runtime backed by the shared library at library. The
// library is opened lazily on Init so configuration errors surface before
// any native code runs.
func NewPAL(library string) *PAL {
	return &PAL{library: library}
}

func (p *PAL) load() error {
	if p.handle != 0 {
		return nil
	}
	if p.library == "" {
		return errors.New("pal library path is empty")
	}
	handle, err := purego.Dlopen(p.library, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return fmt.Errorf("open %s: %w", p.library, err)
	}
	initSym, err := purego.Dlsym(handle, "occlum_pal_init")
	if err != nil {
		_ = purego.Dlclose(handle)
		return fmt.Errorf("resolve occlum_pal_init: %w", err)
	}
	destroySym, err := purego.Dlsym(handle, "occlum_pal_destroy")
	if err != nil {
		_ = purego.Dlclose(handle)
		return fmt.Errorf("resolve occlum_pal_destroy: %w", err)
	}
	purego.RegisterFunc(&p.init, initSym)
	purego.RegisterFunc(&p.destroy, destroySym)
	p.handle = handle
	return nil
}

// Init loads the library and creates the enclave.
func (p *PAL) Init(attr Attr) error {
	instanceDir, logLevel, err := attr.cStrings()
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.load(); err != nil {
		return err
	}

	var pinner runtime.Pinner
	defer pinner.Unpin()
	raw := &palAttr{instanceDir: &instanceDir[0], logLevel: &logLevel[0]}
	pinner.Pin(raw)
	pinner.Pin(raw.instanceDir)
	pinner.Pin(raw.logLevel)

	if code := p.init(unsafe.Pointer(raw)); code != 0 {
		return &CodeError{Op: "occlum_pal_init", Code: code}
	}
	return nil
}

// Destroy tears the enclave down. The library stays mapped; the process is
// about to exit.
func (p *PAL) Destroy() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.handle == 0 {
		return errors.New("pal library not loaded")
	}
	if code := p.destroy(); code != 0 {
		return &CodeError{Op: "occlum_pal_destroy", Code: code}
	}
	return nil
}
