package steg
import (
	"io"
	"fmt"
	"bytes"
	"hash/crc32"
	"encoding/binary"
)

var pngSignature = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}

const (
	pngChunkHeaderSize = 8	// 4-byte length + 4-byte type
	pngCapacityMin = 10
	pngCapacityMax = 1000000

	// refuse to buffer absurd chunks; the PNG spec caps lengths at 2^31-1
	// anyway and nothing legitimate comes close
	pngMaxChunkSize = 1 << 30
)

/*
 * Chunked lossless image. Message bits go into the LSBs of IDAT payload
 * bytes; every other chunk passes through byte for byte. The checksum of
 * a rewritten IDAT chunk is recomputed so strict readers stay happy.
 */
type pngFormat struct{}

func( f *pngFormat ) Name() string { return "PNG" }

func( f *pngFormat ) Extensions() string { return ".png,.PNG" }

func( f *pngFormat ) Validate( src io.ReadSeeker ) error {
	if _, err := src.Seek( 0, io.SeekStart ); err != nil {
		return fmt.Errorf("%w: %v", ErrFile, err)
	}
	sig := make( []byte, len(pngSignature) )
	_, err := io.ReadFull( src, sig )
	if _, serr := src.Seek( 0, io.SeekStart ); serr != nil {
		return fmt.Errorf("%w: %v", ErrFile, serr)
	}
	if err != nil || bytes.Equal( sig, pngSignature ) == false {
		return fmt.Errorf("%w: missing PNG signature", ErrInvalidFormat)
	}
	return nil
}

// Capacity estimates from the IHDR dimensions and color type. It is not
// a byte-exact count of IDAT payload; Embed re-checks while walking.
func( f *pngFormat ) Capacity( src io.ReadSeeker ) (int64, error) {
	if _, err := src.Seek( int64(len(pngSignature)), io.SeekStart ); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrFile, err)
	}
	// IHDR is always the first chunk: header, 13 data bytes, checksum
	hdr := make( []byte, 25 )
	if _, err := io.ReadFull( src, hdr ); err != nil {
		return 0, fmt.Errorf("%w: truncated IHDR chunk", ErrInvalidFormat)
	}
	width := int64( binary.BigEndian.Uint32( hdr[8:12] ) )
	height := int64( binary.BigEndian.Uint32( hdr[12:16] ) )
	bitDepth := int64( hdr[16] )
	colorType := hdr[17]

	var capacity int64
	switch colorType {
	case 0: // grayscale
		capacity = width * height * bitDepth / 8
	case 2: // rgb
		capacity = width * height * 3 * bitDepth / 8
	case 3: // palette
		capacity = width*height/8 + 256
	case 4: // grayscale + alpha
		capacity = width * height * 2 * bitDepth / 8
	case 6: // rgba
		capacity = width * height * 4 * bitDepth / 8
	default:
		capacity = width * height * 3 / 8
	}
	if capacity < pngCapacityMin {
		capacity = pngCapacityMin
	}
	if capacity > pngCapacityMax {
		capacity = pngCapacityMax
	}
	if _, err := src.Seek( 0, io.SeekStart ); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrFile, err)
	}
	return capacity, nil
}

func( f *pngFormat ) Embed( src io.ReadSeeker, dst io.Writer, message []byte ) error {
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
	if _, err = io.CopyN( dst, src, int64(len(pngSignature)) ); err != nil {
		return fmt.Errorf("%w: %v", ErrFile, err)
	}

	bits := messageBits( message )
	pos := 0
	header := make( []byte, pngChunkHeaderSize )
	crcBuf := make( []byte, 4 )
	for {
		if _, err := io.ReadFull( src, header ); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("%w: %v", ErrFile, err)
		}
		length := int64( binary.BigEndian.Uint32( header[0:4] ) )
		chunkType := string( header[4:8] )
		if _, err := dst.Write( header ); err != nil {
			return fmt.Errorf("%w: %v", ErrFile, err)
		}

		if chunkType == "IDAT" {
			if length > pngMaxChunkSize {
				return fmt.Errorf("%w: IDAT chunk of %d bytes", ErrMemory, length)
			}
			// buffer the payload so its checksum can be recomputed
			data := make( []byte, length )
			if _, err := io.ReadFull( src, data ); err != nil {
				return fmt.Errorf("%w: %v", ErrFile, err)
			}
			for i := 0; i < len(data) && pos < len(bits); i++ {
				data[i] = (data[i] & 0xfe) | bits[pos]
				pos++
			}
			if _, err := dst.Write( data ); err != nil {
				return fmt.Errorf("%w: %v", ErrFile, err)
			}
			// drop the stale checksum, store a fresh one
			if _, err := src.Seek( 4, io.SeekCurrent ); err != nil {
				return fmt.Errorf("%w: %v", ErrFile, err)
			}
			crc := crc32.NewIEEE()
			crc.Write( header[4:8] )
			crc.Write( data )
			binary.BigEndian.PutUint32( crcBuf, crc.Sum32() )
			if _, err := dst.Write( crcBuf ); err != nil {
				return fmt.Errorf("%w: %v", ErrFile, err)
			}
		} else {
			// payload and checksum pass through verbatim
			if _, err := io.CopyN( dst, src, length+4 ); err != nil {
				return fmt.Errorf("%w: %v", ErrFile, err)
			}
		}

		if chunkType == "IEND" {
			break
		}
	}

	if pos < len(bits) {
		return fmt.Errorf("%w: IDAT data ran out after %d of %d bits",
			ErrInsufficientCapacity, pos, len(bits))
	}
	return nil
}

func( f *pngFormat ) Extract( src io.ReadSeeker, maxLen int ) ([]byte, error) {
	if err := f.Validate( src ); err != nil {
		return nil, err
	}
	if _, err := src.Seek( int64(len(pngSignature)), io.SeekStart ); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFile, err)
	}

	message := []byte{}
	var acc bitAccumulator
	header := make( []byte, pngChunkHeaderSize )
	buf := make( []byte, 4096 )
	for {
		if _, err := io.ReadFull( src, header ); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("%w: %v", ErrFile, err)
		}
		length := int64( binary.BigEndian.Uint32( header[0:4] ) )
		chunkType := string( header[4:8] )

		if chunkType == "IDAT" {
			remaining := length
			for remaining > 0 {
				n := int64( len(buf) )
				if remaining < n {
					n = remaining
				}
				if _, err := io.ReadFull( src, buf[:n] ); err != nil {
					return nil, fmt.Errorf("%w: %v", ErrFile, err)
				}
				remaining -= n
				for _, payload := range buf[:n] {
					b, done := acc.push( payload & 1 )
					if done == false {
						continue
					}
					if b == 0 {
						return message, nil
					}
					message = append( message, b )
					if len(message) >= maxLen {
						return message, nil
					}
				}
			}
			if _, err := src.Seek( 4, io.SeekCurrent ); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrFile, err)
			}
		} else {
			// skip payload and checksum of everything else
			if _, err := src.Seek( length+4, io.SeekCurrent ); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrFile, err)
			}
		}

		if chunkType == "IEND" {
			break
		}
	}
	return message, nil
}
