package steg
import (
	"io"
	"fmt"
	"encoding/binary"
)

// 14-byte file header plus 40-byte info header
const bmpHeaderSize = 54

/*
 * 24-bit uncompressed bitmap. The simplest carrier: everything after
 * the 54-byte header is raw pixel data and every byte of it can take
 * one message bit.
 */
type bmpFormat struct{}

func( f *bmpFormat ) Name() string { return "BMP" }

func( f *bmpFormat ) Extensions() string { return ".bmp,.BMP" }

// Validate checks for a 24-bit uncompressed bitmap and rewinds the
// stream so the caller can reuse it.
func( f *bmpFormat ) Validate( src io.ReadSeeker ) error {
	err := f.readHeader( src )
	if _, serr := src.Seek( 0, io.SeekStart ); serr != nil && err == nil {
		err = fmt.Errorf("%w: %v", ErrFile, serr)
	}
	return err
}

func( f *bmpFormat ) readHeader( src io.ReadSeeker ) error {
	if _, err := src.Seek( 0, io.SeekStart ); err != nil {
		return fmt.Errorf("%w: %v", ErrFile, err)
	}
	header := make( []byte, bmpHeaderSize )
	if _, err := io.ReadFull( src, header ); err != nil {
		return fmt.Errorf("%w: %v", ErrFile, err)
	}
	if header[0] != 'B' || header[1] != 'M' {
		return fmt.Errorf("%w: missing BM signature", ErrInvalidFormat)
	}
	// width, height and the rest of the info header do not matter here,
	// only that the pixel data is plain 24-bit.
	bpp := binary.LittleEndian.Uint16( header[28:30] )
	if bpp != 24 {
		return fmt.Errorf("%w: %d bits per pixel, want 24", ErrInvalidFormat, bpp)
	}
	compression := binary.LittleEndian.Uint32( header[30:34] )
	if compression != 0 {
		return fmt.Errorf("%w: compressed bitmaps are not supported", ErrInvalidFormat)
	}
	return nil
}

// Capacity: 8 pixel bytes hold one message byte.
func( f *bmpFormat ) Capacity( src io.ReadSeeker ) (int64, error) {
	size, err := streamSize( src )
	if err != nil {
		return 0, err
	}
	if size < bmpHeaderSize {
		return 0, fmt.Errorf("%w: file shorter than the bitmap header", ErrInvalidFormat)
	}
	return (size - bmpHeaderSize) / 8, nil
}

func( f *bmpFormat ) Embed( src io.ReadSeeker, dst io.Writer, message []byte ) error {
	if err := f.readHeader( src ); err != nil {
		return err
	}
	capacity, err := f.Capacity( src )
	if err != nil {
		return err
	}
	if int64(len(message))+1 > capacity {
		return fmt.Errorf("%w: need %d characters, image holds %d",
			ErrInsufficientCapacity, len(message)+1, capacity)
	}

	// the header passes through verbatim
	if _, err = src.Seek( 0, io.SeekStart ); err != nil {
		return fmt.Errorf("%w: %v", ErrFile, err)
	}
	if _, err = io.CopyN( dst, src, bmpHeaderSize ); err != nil {
		return fmt.Errorf("%w: %v", ErrFile, err)
	}

	buf := make( []byte, 1 )
	for _, bit := range messageBits( message ) {
		if _, err = io.ReadFull( src, buf ); err != nil {
			return fmt.Errorf("%w: %v", ErrFile, err)
		}
		buf[0] = (buf[0] & 0xfe) | bit
		if _, err = dst.Write( buf ); err != nil {
			return fmt.Errorf("%w: %v", ErrFile, err)
		}
	}

	// pixel data past the terminator stays untouched
	if _, err = io.Copy( dst, src ); err != nil {
		return fmt.Errorf("%w: %v", ErrFile, err)
	}
	return nil
}

func( f *bmpFormat ) Extract( src io.ReadSeeker, maxLen int ) ([]byte, error) {
	if err := f.readHeader( src ); err != nil {
		return nil, err
	}
	if _, err := src.Seek( bmpHeaderSize, io.SeekStart ); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFile, err)
	}

	message := []byte{}
	group := make( []byte, 8 )
	var acc bitAccumulator
	for len(message) < maxLen {
		if _, err := io.ReadFull( src, group ); err != nil {
			// pixel data ran out before a terminator showed up
			return nil, fmt.Errorf("%w: %v", ErrFile, err)
		}
		var b byte
		for _, pixel := range group {
			b, _ = acc.push( pixel & 1 )
		}
		if b == 0 {
			break
		}
		message = append( message, b )
	}
	return message, nil
}
