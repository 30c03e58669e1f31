package steg

/*
 * bit packing shared by all formats. one carrier byte holds one message
 * bit, most significant bit of each message byte first, and a single
 * zero byte terminates the message.
 */

func messageBits( msg []byte ) []uint8 {
	bits := make( []uint8, 0, (len(msg)+1)*8 )
	for i := 0; i <= len(msg); i++ {
		b := byte(0)
		if i < len(msg) {
			b = msg[i]
		}
		for pos := 7; pos >= 0; pos-- {
			bits = append( bits, uint8((b>>uint(pos))&1) )
		}
	}
	return bits
}

// bitAccumulator rebuilds message bytes from extracted bits in the same
// most-significant-first order.
type bitAccumulator struct {
	cur	byte
	n	int
}

// push adds one bit and reports the completed byte after every 8th bit.
func( a *bitAccumulator ) push( bit byte ) (byte, bool) {
	a.cur = (a.cur << 1) | (bit & 1)
	a.n++
	if a.n == 8 {
		b := a.cur
		a.cur = 0
		a.n = 0
		return b, true
	}
	return 0, false
}
