package main
import (
	"os"
	"fmt"
	"flag"
	"errors"

	"github.com/Kostek02/LSB-Steganography-Tool/config"
	"github.com/Kostek02/LSB-Steganography-Tool/steg"
	"github.com/Kostek02/LSB-Steganography-Tool/util"
)

func main() {
	os.Exit( run( os.Args[1:] ) )
}

func run( args []string ) int {

	var (
		embedMode	bool
		extractMode	bool
		capacityMode	bool
		verbose		bool
		inputFile	string
		outputFile	string
		message		string
		messageFile	string
		configFile	string
	)

	fs := flag.NewFlagSet( "steg", flag.ContinueOnError )
	fs.BoolVar( &embedMode, "e", false, "embed a message into an image" )
	fs.BoolVar( &embedMode, "embed", false, "embed a message into an image" )
	fs.BoolVar( &extractMode, "x", false, "extract a message from an image" )
	fs.BoolVar( &extractMode, "extract", false, "extract a message from an image" )
	fs.BoolVar( &capacityMode, "c", false, "show image capacity without processing" )
	fs.BoolVar( &capacityMode, "capacity", false, "show image capacity without processing" )
	fs.StringVar( &inputFile, "i", "", "input image file" )
	fs.StringVar( &inputFile, "input", "", "input image file" )
	fs.StringVar( &outputFile, "o", "", "output image file" )
	fs.StringVar( &outputFile, "output", "", "output image file" )
	fs.StringVar( &message, "m", "", "message to embed" )
	fs.StringVar( &message, "message", "", "message to embed" )
	fs.StringVar( &messageFile, "f", "", "read message from file" )
	fs.StringVar( &messageFile, "file", "", "read message from file" )
	fs.StringVar( &configFile, "config", "", "optional YAML defaults file" )
	fs.BoolVar( &verbose, "v", false, "verbose output" )
	fs.BoolVar( &verbose, "verbose", false, "verbose output" )
	fs.Usage = func() { printUsage() }
	if err := fs.Parse( args ); err != nil {
		if errors.Is( err, flag.ErrHelp ) {
			return 0
		}
		return 1
	}

	conf := config.Default()
	if configFile != "" {
		c, err := config.Load( configFile )
		if err != nil {
			fmt.Fprintln( os.Stderr, "Error: Could not load config file:", err )
			return 1
		}
		conf = c
	}
	if inputFile == "" {
		inputFile = conf.Input
	}
	if outputFile == "" {
		outputFile = conf.Output
	}
	verbose = verbose || conf.Verbose

	logInfo := conf.Logger
	if verbose {
		logInfo.Mode |= util.Info
	}
	var logger *util.Logger
	if logInfo.Filename == "" {
		logger = util.NewConsoleLogger( logInfo.Mode )
	} else {
		logger = util.NewLogger( &logInfo )
	}

	modeCount := 0
	for _, m := range []bool{embedMode, extractMode, capacityMode} {
		if m {
			modeCount++
		}
	}
	if modeCount == 0 {
		fmt.Fprintln( os.Stderr, "Error: No mode specified. Use -e, -x, or -c" )
		printUsage()
		return 1
	}
	if modeCount > 1 {
		fmt.Fprintln( os.Stderr, "Error: Multiple modes specified. Use only one of -e, -x, or -c" )
		printUsage()
		return 1
	}

	format, err := steg.ByFilename( inputFile )
	if err != nil {
		logger.LogError( err )
		fmt.Fprintln( os.Stderr, "Supported formats:", steg.SupportedFormats() )
		return 1
	}

	input, err := os.Open( inputFile )
	if err != nil {
		fmt.Fprintf( os.Stderr, "Error: Could not open input file '%s'\n", inputFile )
		return 1
	}
	defer input.Close()

	logger.LogInfo( "Validating input image..." )
	if err = format.Validate( input ); err != nil {
		logger.LogError( err )
		return 1
	}

	capacity, err := format.Capacity( input )
	if err != nil {
		logger.LogError( err )
		return 1
	}
	logger.LogInfo( fmt.Sprintf("Image capacity: %d characters", capacity) )

	if capacityMode {
		info, err := input.Stat()
		if err != nil {
			logger.LogError( err )
			return 1
		}
		fmt.Printf( "Image: %s\n", inputFile )
		fmt.Printf( "Format: %s\n", format.Name() )
		fmt.Printf( "Capacity: %d characters\n", capacity )
		fmt.Printf( "File size: %d bytes\n", info.Size() )
		return 0
	}

	if extractMode {
		msg, err := format.Extract( input, conf.MaxMessageLength )
		if err != nil {
			logger.LogError( err )
			return 1
		}
		fmt.Println( string(msg) )
		return 0
	}

	// embed mode
	if message != "" && messageFile != "" {
		fmt.Fprintln( os.Stderr, "Error: Use either -m or -f, not both" )
		return 1
	}
	var msg []byte
	if messageFile != "" {
		msg, err = util.ReadMessageFile( messageFile, conf.MaxMessageLength )
		if err != nil {
			fmt.Fprintf( os.Stderr, "Error: Could not open message file '%s'\n", messageFile )
			return 1
		}
	} else if message != "" {
		msg = []byte( util.FixUnicode( message ) )
	} else {
		fmt.Fprintln( os.Stderr, "Error: No message specified. Use -m or -f" )
		return 1
	}

	if other, err := steg.ByFilename( outputFile ); err != nil || other.Name() != format.Name() {
		logger.LogWarning( fmt.Sprintf("output file %q does not look like a %s file", outputFile, format.Name()) )
	}

	output, err := os.Create( outputFile )
	if err != nil {
		fmt.Fprintf( os.Stderr, "Error: Could not create output file '%s'\n", outputFile )
		return 1
	}
	defer output.Close()

	if err = format.Embed( input, output, msg ); err != nil {
		// the output may be truncated or partially written at this
		// point; it is reported as failed and must not be trusted
		logger.LogError( err )
		return 1
	}

	logger.LogInfo( "Message embedded successfully" )
	logger.LogInfo( fmt.Sprintf("Output saved as '%s'", outputFile) )
	return 0
}

func printUsage() {
	fmt.Println("LSB Steganography Tool")
	fmt.Println("======================")
	fmt.Println()
	fmt.Println("Usage: steg [OPTIONS]")
	fmt.Println()
	fmt.Println("Modes:")
	fmt.Println("  -e, --embed              Embed a message into an image")
	fmt.Println("  -x, --extract            Extract a message from an image")
	fmt.Println("  -c, --capacity           Show image capacity without processing")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -i, --input <file>       Input image file (default: image.bmp)")
	fmt.Println("  -o, --output <file>      Output image file (default: output.bmp)")
	fmt.Println("  -m, --message <text>     Message to embed (for embed mode)")
	fmt.Println("  -f, --file <file>        Read message from file (for embed mode)")
	fmt.Println("  --config <file>          Optional YAML defaults file")
	fmt.Println("  -v, --verbose            Verbose output")
	fmt.Println("  -h, --help               Show this help message")
	fmt.Println()
	fmt.Println("Supported formats:", steg.SupportedFormats())
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  steg -e -m \"Hello World\" -i photo.bmp -o secret.bmp")
	fmt.Println("  steg -x -i secret.png")
	fmt.Println("  steg -c -i photo.jpg")
	fmt.Println("  steg -e -f message.txt -i photo.bmp")
}
