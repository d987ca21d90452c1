package hostinterface

/*
#cgo windows LDFLAGS: -lpsapi
#cgo linux LDFLAGS: -ldl

#ifdef _WIN32
#define WIN32_LEAN_AND_MEAN
#include <windows.h>
#include <stdlib.h>

static char* manifest_module_path() {
    HMODULE mod = NULL;
    DWORD flags = GET_MODULE_HANDLE_EX_FLAG_FROM_ADDRESS | GET_MODULE_HANDLE_EX_FLAG_UNCHANGED_REFCOUNT;
    if (!GetModuleHandleExA(flags, (LPCSTR)manifest_module_path, &mod)) {
        return NULL;
    }
    DWORD size = MAX_PATH;
    char* buf = NULL;
    for (;;) {
        char* grown = (char*)realloc(buf, size);
        if (!grown) {
            free(buf);
            return NULL;
        }
        buf = grown;
        DWORD n = GetModuleFileNameA(mod, buf, size);
        if (n == 0) {
            free(buf);
            return NULL;
        }
        if (n < size) {
            return buf;
        }
        size *= 2;
    }
}

#else

#define _GNU_SOURCE
#include <dlfcn.h>
#include <stdlib.h>
#include <string.h>

static char* manifest_module_path() {
    Dl_info info;
    if (dladdr((void*)manifest_module_path, &info) == 0 || info.dli_fname == NULL) {
        return NULL;
    }
    return strdup(info.dli_fname);
}

#endif
*/
import "C"

import (
	"path/filepath"
	"unsafe"
)

// ModulePath returns the absolute path of the shared library the host loaded,
// or "" when it cannot be determined.
func ModulePath() string {
	p := C.manifest_module_path()
	if p == nil {
		return ""
	}
	defer C.free(unsafe.Pointer(p))
	return C.GoString(p)
}

// ModuleDir returns the folder holding the shared library, falling back to
// the working directory.
func ModuleDir() string {
	if p := ModulePath(); p != "" {
		return filepath.Dir(p)
	}
	return "."
}
