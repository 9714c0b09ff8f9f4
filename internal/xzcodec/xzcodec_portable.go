//go:build !cgo

package xzcodec

// nativeAvailable is false in non-cgo builds; Compress always takes the
// portable github.com/ulikunitz/xz path.
const nativeAvailable = false

func compressNative(data []byte) ([]byte, error) {
	// Unreachable: Compress only calls this when nativeAvailable is true.
	return compressPortable(data)
}
