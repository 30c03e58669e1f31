package util
import (
	"os"
	"fmt"
	"sync"
	"time"
	"golang.org/x/term"
)

/*
 * a small leveled logger. writes to stderr by default or appends to a
 * file when one is configured.
 */
const (
	Error = 1
	Warning = 2
	Info = 4

	RedColor = "\033[31m"
	YellowColor = "\033[33m"
	CyanColor = "\033[36m"
	ResetColor = "\033[0m"
)

type LoggerInfo struct {
	Filename	string	`yaml:"filename"`
	IsColored	bool	`yaml:"is_colored"`
	SaveTime	bool	`yaml:"save_time"`
	Mode		uint8	`yaml:"mode"`
}

type Logger struct {
	li	*LoggerInfo
	mtx	sync.Mutex
}

func NewLogger( li *LoggerInfo ) *Logger {
	return &Logger{
		li,
		sync.Mutex{},
	}
}

// NewConsoleLogger builds a stderr logger. colors are enabled only when
// stderr is an actual terminal.
func NewConsoleLogger( mode uint8 ) *Logger {
	return NewLogger( &LoggerInfo{
		IsColored: term.IsTerminal( int(os.Stderr.Fd()) ),
		Mode: mode,
	} )
}

func(l *Logger) colorize( line string, color string ) string {
	if l.li.IsColored {
		return color + line + ResetColor
	}
	return line
}

func(l *Logger) prepareString( str string, clr string ) string {
	toWrite := l.colorize( str, clr ) + " "
	if l.li.SaveTime {
		toWrite += time.Now().String() + " "
	}
	return toWrite
}

func(l *Logger) LogString( s string ) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if l.li.Filename == "" {
		fmt.Fprintln( os.Stderr, s )
		return
	}
	f, err := os.OpenFile( l.li.Filename, os.O_APPEND | os.O_CREATE | os.O_WRONLY, 0600 )
	if err == nil {
		defer f.Close()
		f.WriteString( s + "\n" )
	}
}

func(l *Logger) LogError(err error) {
	if l.li.Mode & Error == Error {
		toWrite := l.prepareString("[ERROR]", RedColor) + err.Error()
		l.LogString( toWrite )
	}
}

func(l *Logger) LogWarning( warning string ) {
	if l.li.Mode & Warning == Warning {
		toWrite := l.prepareString("[WARNING]", YellowColor) + warning
		l.LogString( toWrite )
	}
}

func(l *Logger) LogInfo( info string ) {
	if l.li.Mode & Info == Info {
		toWrite := l.prepareString( "[INFO]", CyanColor ) + info
		l.LogString( toWrite )
	}
}
