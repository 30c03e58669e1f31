package steg
import (
	"io"
	"fmt"
	"errors"
	"strings"
)

/*
 * Format-aware LSB steganography engine. A message (plus one zero
 * terminator byte) is spread over the least significant bits of the
 * bytes that are safe to perturb for a given image format; everything
 * structural passes through unchanged.
 */

var (
	ErrFile = errors.New("file I/O operation failed")
	ErrInvalidFormat = errors.New("invalid image format")
	ErrInsufficientCapacity = errors.New("image too small to hold the message")
	ErrMemory = errors.New("memory allocation failed")
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

type Format interface {
	Name() string
	// comma-separated list of recognized file extensions, dot included
	Extensions() string
	Validate( src io.ReadSeeker ) error
	// capacity in message bytes, terminator included
	Capacity( src io.ReadSeeker ) (int64, error)
	Embed( src io.ReadSeeker, dst io.Writer, message []byte ) error
	Extract( src io.ReadSeeker, maxLen int ) ([]byte, error)
}

// registration order matters: the first matching format wins.
var formats = []Format{
	&bmpFormat{},
	&pngFormat{},
	&jpegFormat{},
}

// ByFilename picks a format by the extension after the last dot,
// case-insensitively.
func ByFilename( filename string ) (Format, error) {
	idx := strings.LastIndex( filename, "." )
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q has no extension", ErrUnsupportedFormat, filename)
	}
	ext := filename[idx:]
	for _, f := range formats {
		for _, known := range strings.Split( f.Extensions(), "," ) {
			known = strings.TrimLeft( known, " " )
			if strings.EqualFold( ext, known ) {
				return f, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

func IsSupported( filename string ) bool {
	_, err := ByFilename( filename )
	return err == nil
}

// SupportedFormats returns the format names in registration order.
func SupportedFormats() string {
	names := make( []string, 0, len(formats) )
	for _, f := range formats {
		names = append( names, f.Name() )
	}
	return strings.Join( names, ", " )
}

// streamSize measures the stream without disturbing its position.
func streamSize( src io.ReadSeeker ) (int64, error) {
	pos, err := src.Seek( 0, io.SeekCurrent )
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrFile, err)
	}
	size, err := src.Seek( 0, io.SeekEnd )
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrFile, err)
	}
	if _, err = src.Seek( pos, io.SeekStart ); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrFile, err)
	}
	return size, nil
}
