package xmlproc

/*
#cgo pkg-config: libxml-2.0
#include <stdarg.h>
#include <stdio.h>
#include <libxml/xmlerror.h>

#define DOCMESH_DIAG_CAP 4096

static __thread char docmesh_diag[DOCMESH_DIAG_CAP];
static __thread size_t docmesh_diag_len;

static void docmesh_diag_collect(void *ctx, const char *msg, ...) {
	va_list ap;
	size_t room;
	int n;

	room = DOCMESH_DIAG_CAP - docmesh_diag_len;
	if (room <= 1) {
		return;
	}
	va_start(ap, msg);
	n = vsnprintf(docmesh_diag + docmesh_diag_len, room, msg, ap);
	va_end(ap);
	if (n < 0) {
		return;
	}
	if ((size_t)n >= room) {
		n = (int)(room - 1);
	}
	docmesh_diag_len += (size_t)n;
}

static void docmesh_diag_begin(void) {
	docmesh_diag_len = 0;
	docmesh_diag[0] = '\0';
	xmlResetLastError();
	xmlSetGenericErrorFunc(NULL, docmesh_diag_collect);
}

static const char *docmesh_diag_end(void) {
	xmlSetGenericErrorFunc(NULL, NULL);
	xmlResetLastError();
	return docmesh_diag;
}
*/
import "C"

import (
	"runtime"
	"strings"
)

// captureDiagnostics runs fn pinned to the calling OS thread with libxml2's
// generic error channel redirected into a buffer. libxml2 keeps both the
// handler and the last error per thread, so the pin must cover the whole call.
// The last error is cleared before and after fn; go-xslt refuses to compile a
// stylesheet while one is pending.
func captureDiagnostics(fn func() error) (string, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	C.docmesh_diag_begin()
	err := fn()
	diag := C.GoString(C.docmesh_diag_end())
	return strings.TrimSpace(diag), err
}
