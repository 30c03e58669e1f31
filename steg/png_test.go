package steg
import (
	"bytes"
	"errors"
	"testing"
	"hash/crc32"
	"encoding/binary"
)

type rawChunk struct {
	typ	string
	raw	[]byte
}

// pngChunks splits a PNG byte stream into its raw chunks, header and
// checksum included.
func pngChunks( t *testing.T, b []byte ) []rawChunk {
	t.Helper()
	chunks := []rawChunk{}
	off := len(pngSignature)
	for off < len(b) {
		length := int( binary.BigEndian.Uint32( b[off : off+4] ) )
		end := off + pngChunkHeaderSize + length + 4
		if end > len(b) {
			t.Fatalf("Truncated chunk at offset %d", off)
		}
		chunks = append( chunks, rawChunk{ string(b[off+4 : off+8]), b[off:end] } )
		if string(b[off+4:off+8]) == "IEND" {
			break
		}
		off = end
	}
	return chunks
}

// ihdrOnly builds a signature plus a single IHDR chunk, enough for
// capacity estimation.
func ihdrOnly( w, h uint32, depth, colorType byte ) []byte {
	b := append( []byte{}, pngSignature... )
	hdr := make( []byte, 25 )
	binary.BigEndian.PutUint32( hdr[0:4], 13 )
	copy( hdr[4:8], "IHDR" )
	binary.BigEndian.PutUint32( hdr[8:12], w )
	binary.BigEndian.PutUint32( hdr[12:16], h )
	hdr[16] = depth
	hdr[17] = colorType
	return append( b, hdr... )
}

func chunk( typ string, data []byte ) []byte {
	b := make( []byte, 0, pngChunkHeaderSize+len(data)+4 )
	b = binary.BigEndian.AppendUint32( b, uint32(len(data)) )
	b = append( b, typ... )
	b = append( b, data... )
	crc := crc32.NewIEEE()
	crc.Write( []byte(typ) )
	crc.Write( data )
	return binary.BigEndian.AppendUint32( b, crc.Sum32() )
}

func TestPNGRoundTrip( t *testing.T ) {
	f := &pngFormat{}
	img := encodePNG( t, 64, 64 )
	tests := [][]byte{
		{},
		[]byte("Hello world!"),
		bytes.Repeat([]byte("a"), 100),
	}

	for _, data := range tests {
		dst := new( bytes.Buffer )
		if err := f.Embed( bytes.NewReader(img), dst, data ); err != nil {
			t.Errorf("Failed to embed data: %v", err)
			continue
		}
		out, err := f.Extract( bytes.NewReader( dst.Bytes() ), 4096 )
		if err != nil {
			t.Errorf("Failed to extract data: %v", err)
		} else if bytes.Equal( data, out ) == false {
			t.Errorf("Steganography spoiled the data. %v != %v", data, out)
		}
	}
}

func TestPNGValidate( t *testing.T ) {
	f := &pngFormat{}

	if err := f.Validate( bytes.NewReader( encodePNG(t, 8, 8) ) ); err != nil {
		t.Errorf("Failed to validate a correct image: %v", err)
	}

	bad := encodePNG( t, 8, 8 )
	bad[0] = 0x00
	if err := f.Validate( bytes.NewReader(bad) ); errors.Is( err, ErrInvalidFormat ) == false {
		t.Errorf("Expected invalid format, got %v", err)
	}
	// shorter than the signature itself
	if err := f.Validate( bytes.NewReader( pngSignature[:4] ) ); errors.Is( err, ErrInvalidFormat ) == false {
		t.Errorf("Expected invalid format for a truncated signature, got %v", err)
	}
}

func TestPNGCapacity( t *testing.T ) {
	f := &pngFormat{}
	tests := []struct {
		w, h		uint32
		depth, color	byte
		want		int64
	}{
		{100, 100, 8, 0, 10000},	// grayscale
		{100, 100, 8, 2, 30000},	// rgb
		{100, 100, 8, 3, 1506},		// palette
		{100, 100, 8, 4, 20000},	// grayscale + alpha
		{100, 100, 8, 6, 40000},	// rgba
		{100, 100, 8, 7, 3750},		// unknown falls back to rgb
		{1, 1, 1, 0, 10},		// clamped up
		{2000, 2000, 8, 6, 1000000},	// clamped down
	}

	for _, tc := range tests {
		got, err := f.Capacity( bytes.NewReader( ihdrOnly(tc.w, tc.h, tc.depth, tc.color) ) )
		if err != nil {
			t.Errorf("Failed to compute capacity: %v", err)
		} else if got != tc.want {
			t.Errorf("Capacity for color type %d: %d != %d", tc.color, got, tc.want)
		}
	}
}

func TestPNGStructuralPassthrough( t *testing.T ) {
	f := &pngFormat{}
	img := encodePNG( t, 48, 48 )
	dst := new( bytes.Buffer )
	if err := f.Embed( bytes.NewReader(img), dst, []byte("secret") ); err != nil {
		t.Fatalf("Failed to embed: %v", err)
	}

	srcChunks := pngChunks( t, img )
	outChunks := pngChunks( t, dst.Bytes() )
	if len(srcChunks) != len(outChunks) {
		t.Fatalf("Chunk count changed: %d != %d", len(srcChunks), len(outChunks))
	}

	for i := range srcChunks {
		if srcChunks[i].typ != outChunks[i].typ {
			t.Fatalf("Chunk %d changed type: %s != %s", i, srcChunks[i].typ, outChunks[i].typ)
		}
		if srcChunks[i].typ != "IDAT" {
			if bytes.Equal( srcChunks[i].raw, outChunks[i].raw ) == false {
				t.Errorf("Embedding modified a %s chunk", srcChunks[i].typ)
			}
			continue
		}
		// a rewritten IDAT chunk still has to carry a valid checksum
		raw := outChunks[i].raw
		crc := crc32.NewIEEE()
		crc.Write( raw[4 : len(raw)-4] )
		stored := binary.BigEndian.Uint32( raw[len(raw)-4:] )
		if crc.Sum32() != stored {
			t.Errorf("IDAT checksum was not recomputed: %08x != %08x", stored, crc.Sum32())
		}
	}
}

func TestPNGInsufficientCapacity( t *testing.T ) {
	f := &pngFormat{}

	// the 1x1 grayscale estimate clamps to 10 characters
	tiny := ihdrOnly( 1, 1, 1, 0 )
	dst := new( bytes.Buffer )
	err := f.Embed( bytes.NewReader(tiny), dst, bytes.Repeat([]byte("x"), 50) )
	if errors.Is( err, ErrInsufficientCapacity ) == false {
		t.Errorf("Expected insufficient capacity, got %v", err)
	}
	if dst.Len() != 0 {
		t.Errorf("Nothing should be written on a failed capacity check, got %d bytes", dst.Len())
	}

	// the estimate can be optimistic: a generous IHDR with almost no
	// IDAT payload has to fail after the walk instead of embedding a
	// truncated message
	img := append( []byte{}, ihdrOnly(100, 100, 8, 2)... )
	img = append( img, chunk("IDAT", []byte{1, 2, 3, 4, 5, 6, 7, 8})... )
	img = append( img, chunk("IEND", nil)... )
	dst.Reset()
	err = f.Embed( bytes.NewReader(img), dst, []byte("hello") )
	if errors.Is( err, ErrInsufficientCapacity ) == false {
		t.Errorf("Expected insufficient capacity after the walk, got %v", err)
	}
}
