package hostinterface

/*
#include <stdlib.h>
#include <stdio.h>
#include <string.h>
*/
import "C"
import (
	"unsafe"
)

// called by the host to get the version of the extension
//
//export ManifestVersion
func ManifestVersion(output *C.char, outputsize C.size_t) {
	reply(Version(), output, outputsize)
}

// called by the host with a single string: "COMMAND" or "COMMAND|arg|arg"
//
//export ManifestCall
func ManifestCall(output *C.char, outputsize C.size_t, input *C.char) {
	command, args := splitCommand(C.GoString(input))
	reply(call(command, args), output, outputsize)
}

// called by the host with a command and an argument array
//
//export ManifestCallArgs
func ManifestCallArgs(output *C.char, outputsize C.size_t, input *C.char, argv **C.char, argc C.int) {
	reply(call(C.GoString(input), parseArgsFromC(argv, argc)), output, outputsize)
}

// parseArgsFromC converts C argv array to Go string slice
func parseArgsFromC(argv **C.char, argc C.int) []string {
	if argc <= 0 {
		return nil
	}
	args := unsafe.Slice(argv, int(argc))
	data := make([]string, len(args))
	for i, a := range args {
		data[i] = C.GoString(a)
	}
	return data
}

// reply copies response into the host's output buffer, truncating to outputsize.
func reply(response string, output *C.char, outputsize C.size_t) {
	if outputsize == 0 {
		return
	}
	result := C.CString(response)
	defer C.free(unsafe.Pointer(result))
	size := C.strlen(result) + 1
	if size > outputsize {
		size = outputsize
	}
	C.memmove(unsafe.Pointer(output), unsafe.Pointer(result), size)
	// keep truncated replies terminated
	*(*C.char)(unsafe.Pointer(uintptr(unsafe.Pointer(output)) + uintptr(size-1))) = 0
}
