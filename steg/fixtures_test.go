package steg
import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
	"encoding/binary"

	xbmp "golang.org/x/image/bmp"
)

/*
 * in-memory image fixtures. hand-crafted ones give exact control over
 * sizes and header fields, encoder-produced ones prove the codecs cope
 * with real files.
 */

// makeBMP hand-crafts a 24-bit uncompressed bitmap with the given
// amount of pixel data.
func makeBMP( pixelBytes int ) []byte {
	buf := make( []byte, bmpHeaderSize+pixelBytes )
	buf[0] = 'B'
	buf[1] = 'M'
	binary.LittleEndian.PutUint32( buf[2:6], uint32(len(buf)) )
	binary.LittleEndian.PutUint32( buf[10:14], bmpHeaderSize )
	binary.LittleEndian.PutUint32( buf[14:18], 40 )
	binary.LittleEndian.PutUint32( buf[18:22], 4 )
	binary.LittleEndian.PutUint32( buf[22:26], uint32(pixelBytes/12) )
	binary.LittleEndian.PutUint16( buf[26:28], 1 )
	binary.LittleEndian.PutUint16( buf[28:30], 24 )
	// compression field stays zero
	for i := 0; i < pixelBytes; i++ {
		buf[bmpHeaderSize+i] = byte( i*7 + 3 )
	}
	return buf
}

// noisyImage compresses badly on purpose, which keeps PNG and JPEG
// payloads large enough for the test messages.
func noisyImage( w, h int ) *image.RGBA {
	img := image.NewRGBA( image.Rect(0, 0, w, h) )
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set( x, y, color.RGBA{
				uint8( x*31 + y*17 ),
				uint8( x*x + y*y*7 ),
				uint8( x*y + 101 ),
				255,
			} )
		}
	}
	return img
}

// encodeBMP goes through the x/image encoder; opaque images come out as
// 24-bit uncompressed bitmaps.
func encodeBMP( t *testing.T, w, h int ) []byte {
	t.Helper()
	buf := new( bytes.Buffer )
	if err := xbmp.Encode( buf, noisyImage(w, h) ); err != nil {
		t.Fatalf("Failed to encode bmp fixture: %v", err)
	}
	return buf.Bytes()
}

func encodePNG( t *testing.T, w, h int ) []byte {
	t.Helper()
	buf := new( bytes.Buffer )
	if err := png.Encode( buf, noisyImage(w, h) ); err != nil {
		t.Fatalf("Failed to encode png fixture: %v", err)
	}
	return buf.Bytes()
}

func encodeJPEG( t *testing.T, w, h int ) []byte {
	t.Helper()
	buf := new( bytes.Buffer )
	if err := jpeg.Encode( buf, noisyImage(w, h), &jpeg.Options{Quality: 95} ); err != nil {
		t.Fatalf("Failed to encode jpeg fixture: %v", err)
	}
	return buf.Bytes()
}
