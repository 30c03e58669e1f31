package steg
import (
	"io"
	"fmt"
	"bufio"
	"encoding/binary"
)

const (
	markerPrefix = 0xff
	markerSOI = 0xd8	// start of image
	markerEOI = 0xd9	// end of image
	markerSOS = 0xda	// start of scan
)

/*
 * Marker-segmented lossy image. Every segment before the scan passes
 * through verbatim; message bits live in the LSBs of the entropy-coded
 * scan bytes that follow the SOS header. The scan has no length field,
 * its end is the next 0xff byte followed by anything but 0x00.
 *
 * Scan bytes 0xff (with its stuffed 0x00) and 0xfe never carry bits:
 * rewriting a 0xfe could fabricate a marker and cut the extractor short.
 * That skip set is closed under LSB rewriting, so embed and extract
 * always agree on which bytes hold the message.
 */
type jpegFormat struct{}

func( f *jpegFormat ) Name() string { return "JPEG" }

func( f *jpegFormat ) Extensions() string { return ".jpg,.jpeg,.JPG,.JPEG" }

func( f *jpegFormat ) Validate( src io.ReadSeeker ) error {
	if _, err := src.Seek( 0, io.SeekStart ); err != nil {
		return fmt.Errorf("%w: %v", ErrFile, err)
	}
	sig := make( []byte, 2 )
	_, err := io.ReadFull( src, sig )
	if _, serr := src.Seek( 0, io.SeekStart ); serr != nil {
		return fmt.Errorf("%w: %v", ErrFile, serr)
	}
	if err != nil || sig[0] != markerPrefix || sig[1] != markerSOI {
		return fmt.Errorf("%w: missing SOI marker", ErrInvalidFormat)
	}
	return nil
}

// Capacity is a coarse heuristic: compressed scan data dominates a JPEG
// file, and roughly every tenth byte ends up usable.
func( f *jpegFormat ) Capacity( src io.ReadSeeker ) (int64, error) {
	size, err := streamSize( src )
	if err != nil {
		return 0, err
	}
	return size / 10, nil
}

func( f *jpegFormat ) Embed( src io.ReadSeeker, dst io.Writer, message []byte ) error {
	if err := f.Validate( src ); err != nil {
		return err
	}
	capacity, err := f.Capacity( src )
	if err != nil {
		return err
	}
	if int64(len(message))+1 > capacity {
		return fmt.Errorf("%w: need %d characters, image holds about %d",
			ErrInsufficientCapacity, len(message)+1, capacity)
	}

	if _, err = src.Seek( 0, io.SeekStart ); err != nil {
		return fmt.Errorf("%w: %v", ErrFile, err)
	}
	r := bufio.NewReader( src )
	w := bufio.NewWriter( dst )

	// SOI passes through
	if _, err = io.CopyN( w, r, 2 ); err != nil {
		return fmt.Errorf("%w: %v", ErrFile, err)
	}

	bits := messageBits( message )
	pos := 0

walk:
	for {
		b, err := r.ReadByte()
		if err == io.EOF {
			break
		} else if err != nil {
			return fmt.Errorf("%w: %v", ErrFile, err)
		}
		if werr := w.WriteByte( b ); werr != nil {
			return fmt.Errorf("%w: %v", ErrFile, werr)
		}
		if b != markerPrefix {
			// stray byte between segments, pass through
			continue
		}
		kind, err := r.ReadByte()
		if err == io.EOF {
			break
		} else if err != nil {
			return fmt.Errorf("%w: %v", ErrFile, err)
		}
		if werr := w.WriteByte( kind ); werr != nil {
			return fmt.Errorf("%w: %v", ErrFile, werr)
		}

		switch kind {
		case markerSOI:
			continue
		case markerEOI:
			break walk
		case markerSOS:
			// the SOS header segment is structural too
			if err := copySegment( r, w ); err != nil {
				return err
			}
			if err := embedScan( r, w, bits, &pos ); err != nil {
				return err
			}
		default:
			if err := copySegment( r, w ); err != nil {
				return err
			}
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrFile, err)
	}
	if pos < len(bits) {
		return fmt.Errorf("%w: scan data ran out after %d of %d bits",
			ErrInsufficientCapacity, pos, len(bits))
	}
	return nil
}

func( f *jpegFormat ) Extract( src io.ReadSeeker, maxLen int ) ([]byte, error) {
	if err := f.Validate( src ); err != nil {
		return nil, err
	}
	if _, err := src.Seek( 2, io.SeekStart ); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFile, err)
	}
	r := bufio.NewReader( src )

	message := []byte{}
	var acc bitAccumulator

walk:
	for {
		b, err := r.ReadByte()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFile, err)
		}
		if b != markerPrefix {
			continue
		}
		kind, err := r.ReadByte()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFile, err)
		}

		switch kind {
		case markerSOI:
			continue
		case markerEOI:
			break walk
		case markerSOS:
			if err := skipSegment( r ); err != nil {
				return nil, err
			}
			done, err := extractScan( r, &acc, &message, maxLen )
			if err != nil {
				return nil, err
			}
			if done {
				return message, nil
			}
		default:
			if err := skipSegment( r ); err != nil {
				return nil, err
			}
		}
	}
	return message, nil
}

// copySegment moves one length-prefixed marker segment through verbatim.
func copySegment( r *bufio.Reader, w *bufio.Writer ) error {
	lenBytes := make( []byte, 2 )
	if _, err := io.ReadFull( r, lenBytes ); err != nil {
		return fmt.Errorf("%w: %v", ErrFile, err)
	}
	if _, err := w.Write( lenBytes ); err != nil {
		return fmt.Errorf("%w: %v", ErrFile, err)
	}
	length := int64( binary.BigEndian.Uint16( lenBytes ) )
	if length < 2 {
		return fmt.Errorf("%w: segment length %d", ErrInvalidFormat, length)
	}
	if _, err := io.CopyN( w, r, length-2 ); err != nil {
		return fmt.Errorf("%w: %v", ErrFile, err)
	}
	return nil
}

func skipSegment( r *bufio.Reader ) error {
	lenBytes := make( []byte, 2 )
	if _, err := io.ReadFull( r, lenBytes ); err != nil {
		return fmt.Errorf("%w: %v", ErrFile, err)
	}
	length := int64( binary.BigEndian.Uint16( lenBytes ) )
	if length < 2 {
		return fmt.Errorf("%w: segment length %d", ErrInvalidFormat, length)
	}
	if _, err := io.CopyN( io.Discard, r, length-2 ); err != nil {
		return fmt.Errorf("%w: %v", ErrFile, err)
	}
	return nil
}

// embedScan rewrites scan byte LSBs until the message (terminator
// included) is exhausted, then keeps copying until the next real marker.
// Each byte is classified with two bytes of lookahead before anything is
// consumed, so the terminating marker stays in the reader for the
// segment walk and cannot be lost between reads.
func embedScan( r *bufio.Reader, w *bufio.Writer, bits []uint8, pos *int ) error {
	for {
		pair, perr := r.Peek( 2 )
		if perr != nil && perr != io.EOF {
			return fmt.Errorf("%w: %v", ErrFile, perr)
		}
		if len(pair) == 0 {
			return nil
		}
		b := pair[0]
		if b == markerPrefix && len(pair) == 2 && pair[1] != 0x00 {
			// a real marker: leave it for the segment walk
			return nil
		}
		if _, err := r.ReadByte(); err != nil {
			return fmt.Errorf("%w: %v", ErrFile, err)
		}

		if b == markerPrefix {
			// stuffed 0xff 0x00 pair belongs to the scan data
			if werr := w.WriteByte( b ); werr != nil {
				return fmt.Errorf("%w: %v", ErrFile, werr)
			}
			if len(pair) == 2 {
				if _, err := r.ReadByte(); err != nil {
					return fmt.Errorf("%w: %v", ErrFile, err)
				}
				if werr := w.WriteByte( 0x00 ); werr != nil {
					return fmt.Errorf("%w: %v", ErrFile, werr)
				}
			}
			continue
		}

		if b != 0xfe && *pos < len(bits) {
			b = (b & 0xfe) | bits[*pos]
			*pos++
		}
		if werr := w.WriteByte( b ); werr != nil {
			return fmt.Errorf("%w: %v", ErrFile, werr)
		}
	}
}

// extractScan mirrors embedScan byte for byte, with the same two-byte
// lookahead. It reports done once the terminator shows up or maxLen
// message bytes are out.
func extractScan( r *bufio.Reader, acc *bitAccumulator, message *[]byte, maxLen int ) (bool, error) {
	for {
		pair, perr := r.Peek( 2 )
		if perr != nil && perr != io.EOF {
			return false, fmt.Errorf("%w: %v", ErrFile, perr)
		}
		if len(pair) == 0 {
			return false, nil
		}
		b := pair[0]
		if b == markerPrefix && len(pair) == 2 && pair[1] != 0x00 {
			// a real marker: leave it for the segment walk
			return false, nil
		}
		if _, err := r.ReadByte(); err != nil {
			return false, fmt.Errorf("%w: %v", ErrFile, err)
		}

		if b == markerPrefix {
			if len(pair) == 2 {
				// consume the stuffing byte with its 0xff
				if _, err := r.ReadByte(); err != nil {
					return false, fmt.Errorf("%w: %v", ErrFile, err)
				}
			}
			continue
		}
		if b == 0xfe {
			continue
		}

		out, done := acc.push( b & 1 )
		if done == false {
			continue
		}
		if out == 0 {
			return true, nil
		}
		*message = append( *message, out )
		if len(*message) >= maxLen {
			return true, nil
		}
	}
}
