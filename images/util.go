package images

import (
	"crypto/md5"
	"fmt"
)

// Checksum generates a deterministic checksum for a buffer, used to compare
// the outputs of different execution modes.
//
// Arguments:
// - b: The buffer to compute checksum for.
//
// Returns:
// - A hex-encoded MD5 checksum string.
//
// Example:
//
// ```go
//
//	checksum := Checksum(out)
//	fmt.Printf("Output checksum: %s\n", checksum)
//
// ```
func Checksum(b *Buffer) string {
	if b == nil || len(b.Pix) == 0 {
		return "empty"
	}

	hash := md5.New()
	fmt.Fprintf(hash, "%dx%d:", b.Width, b.Height)
	hash.Write(b.Pix)
	return fmt.Sprintf("%x", hash.Sum(nil))
}
