//go:build cgo

package xzcodec

/*
#cgo pkg-config: liblzma
#include <stdlib.h>
#include <lzma.h>

// xsfx_encode does not use the easy API: it calls lzma_stream_buffer_encode
// with a single LZMA2 filter built from lzma_lzma_preset(9 | EXTREME) so it
// can request BT4 / nice_len 273 / a specific dictionary size, matching the
// packer driver's spec exactly.
static lzma_ret xsfx_encode(const uint8_t *in, size_t in_size,
                             uint32_t dict_size,
                             uint8_t *out, size_t out_size, size_t *out_pos) {
    lzma_options_lzma opt;
    if (lzma_lzma_preset(&opt, LZMA_PRESET_EXTREME | 9u)) {
        return LZMA_OPTIONS_ERROR;
    }
    opt.dict_size = dict_size;
    opt.mf = LZMA_MF_BT4;
    opt.mode = LZMA_MODE_NORMAL;
    opt.nice_len = 273;

    lzma_filter filters[2];
    filters[0].id = LZMA_FILTER_LZMA2;
    filters[0].options = &opt;
    filters[1].id = LZMA_VLI_UNKNOWN;

    *out_pos = 0;
    return lzma_stream_buffer_encode(filters, LZMA_CHECK_CRC64, NULL,
                                      in, in_size, out, out_pos, out_size);
}
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// nativeAvailable is true when this file was compiled in (cgo enabled and
// liblzma found by pkg-config at build time).
const nativeAvailable = true

func compressNative(data []byte) ([]byte, error) {
	dict := nextPow2Dict(len(data))

	var inPtr *C.uint8_t
	if len(data) > 0 {
		inPtr = (*C.uint8_t)(unsafe.Pointer(&data[0]))
	}

	// liblzma's buffer bound for worst-case expansion.
	outCap := C.lzma_stream_buffer_bound(C.size_t(len(data)))
	out := make([]byte, int(outCap))
	var outPos C.size_t

	var outPtr *C.uint8_t
	if len(out) > 0 {
		outPtr = (*C.uint8_t)(unsafe.Pointer(&out[0]))
	}

	ret := C.xsfx_encode(inPtr, C.size_t(len(data)), C.uint32_t(dict), outPtr, outCap, &outPos)
	if ret != C.LZMA_OK {
		return nil, fmt.Errorf("liblzma: encode failed, code %d", int(ret))
	}
	return out[:int(outPos)], nil
}
