package steg
import (
	"testing"
)

func TestMessageBits( t *testing.T ) {
	bits := messageBits( []byte{0xa5} )
	want := []uint8{
		1, 0, 1, 0, 0, 1, 0, 1,	// 0xa5, most significant bit first
		0, 0, 0, 0, 0, 0, 0, 0,	// terminator
	}
	if len(bits) != len(want) {
		t.Fatalf("Expected %d bits, got %d", len(want), len(bits))
	}
	for i := range want {
		if bits[i] != want[i] {
			t.Errorf("Bit %d should be %d, got %d", i, want[i], bits[i])
		}
	}
}

func TestBitAccumulator( t *testing.T ) {
	var acc bitAccumulator
	for _, bit := range []byte{0, 1, 0, 0, 0, 0, 0} {
		if _, done := acc.push( bit ); done {
			t.Fatalf("Byte completed too early")
		}
	}
	b, done := acc.push( 1 )
	if done == false {
		t.Fatalf("Eighth bit should complete the byte")
	}
	if b != 'A' {
		t.Errorf("Reassembled byte should be 'A', got %q", b)
	}
}
