package steg
import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByFilename( t *testing.T ) {
	cases := []struct {
		filename	string
		format		string
	}{
		{"photo.bmp", "BMP"},
		{"photo.BMP", "BMP"},
		{"photo.png", "PNG"},
		{"photo.PNG", "PNG"},
		{"shot.jpg", "JPEG"},
		{"shot.JpEg", "JPEG"},
		{"dir.with.dots/shot.jpeg", "JPEG"},
	}
	for _, c := range cases {
		f, err := ByFilename( c.filename )
		require.NoError( t, err, "resolving %s", c.filename )
		assert.Equal( t, c.format, f.Name(), "resolving %s", c.filename )
	}

	_, err := ByFilename( "photo.xyz" )
	assert.ErrorIs( t, err, ErrUnsupportedFormat )
	_, err = ByFilename( "noextension" )
	assert.ErrorIs( t, err, ErrUnsupportedFormat )
}

func TestIsSupported( t *testing.T ) {
	assert.True( t, IsSupported("a.png") )
	assert.False( t, IsSupported("a.tiff") )
}

func TestSupportedFormats( t *testing.T ) {
	// registration order: first match wins, names join in that order
	assert.Equal( t, "BMP, PNG, JPEG", SupportedFormats() )
}
