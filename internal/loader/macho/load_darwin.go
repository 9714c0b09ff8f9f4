//go:build darwin

package macho

/*
#cgo LDFLAGS: -framework CoreFoundation

#include <stdint.h>
#include <stdlib.h>
#include <string.h>

// NSObjectFileImage et al. are declared locally: the legacy bundle-loading
// API they belong to was dropped from <mach-o/dyld.h> in recent SDKs even
// though the runtime entry points still exist in libSystem.
typedef void *NSObjectFileImage;
typedef void *NSModule;
typedef void *NSSymbol;

extern int NSCreateObjectFileImageFromMemory(const void *addr, uintptr_t size, NSObjectFileImage *image);
extern NSModule NSLinkModule(NSObjectFileImage image, const char *moduleName, uint32_t options);
extern NSSymbol NSLookupSymbolInModule(NSModule module, const char *symbolName);
extern void *NSAddressOfSymbol(NSSymbol symbol);

static int xsfx_macho_link(const void *addr, uintptr_t size, void **out_main) {
	NSObjectFileImage image = 0;
	if (NSCreateObjectFileImageFromMemory(addr, size, &image) != 1) {
		return -1;
	}
	NSModule module = NSLinkModule(image, "payload", 0x2);
	if (module == 0) {
		return -2;
	}
	NSSymbol symbol = NSLookupSymbolInModule(module, "_main");
	if (symbol == 0) {
		return -3;
	}
	void *addr_of_main = NSAddressOfSymbol(symbol);
	if (addr_of_main == 0) {
		return -4;
	}
	*out_main = addr_of_main;
	return 0;
}

typedef int (*xsfx_macho_main_fn)(int argc, const char **argv);

static int xsfx_macho_invoke(void *main_fn, int argc, const char **argv) {
	xsfx_macho_main_fn fn = (xsfx_macho_main_fn)main_fn;
	return fn(argc, argv);
}
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/xsfx/xsfx/internal/loader"
)

// Loader is the macOS Mach-O bundle patcher and legacy-dyld linker.
type Loader struct{}

var _ loader.Loader = Loader{}

// Load patches the guest to MH_BUNDLE, links it through the legacy
// NSCreateObjectFileImageFromMemory/NSLinkModule dyld API, and invokes
// its _main symbol with a C-style argv.
func (Loader) Load(guest []byte, argv []string, exePath string) (int, error) {
	patched, err := PatchToBundle(guest)
	if err != nil {
		return 1, err
	}

	var mainFn unsafe.Pointer
	rc := C.xsfx_macho_link(unsafe.Pointer(&patched[0]), C.uintptr_t(len(patched)), (*unsafe.Pointer)(unsafe.Pointer(&mainFn)))
	switch rc {
	case 0:
	case -1:
		return 1, fmt.Errorf("%w: NSCreateObjectFileImageFromMemory", loader.ErrLinkFailed)
	case -2:
		return 1, fmt.Errorf("%w: NSLinkModule", loader.ErrLinkFailed)
	case -3, -4:
		return 1, fmt.Errorf("%w: _main", loader.ErrSymbolNotFound)
	default:
		return 1, fmt.Errorf("%w: unknown dyld failure %d", loader.ErrLinkFailed, rc)
	}

	// Matches the legacy dyld loader's own argv convention: argv holds the
	// guest's real arguments only, with no program-name element prepended
	// (unlike the Linux execveat path, which replaces the process image and
	// so must supply argv[0] itself).
	cArgv := make([]*C.char, len(argv))
	for i, a := range argv {
		cArgv[i] = C.CString(a)
		defer C.free(unsafe.Pointer(cArgv[i]))
	}

	var argvPtr **C.char
	if len(cArgv) > 0 {
		argvPtr = (**C.char)(unsafe.Pointer(&cArgv[0]))
	}
	exitCode := C.xsfx_macho_invoke(mainFn, C.int(len(cArgv)), argvPtr)
	return int(exitCode), nil
}
