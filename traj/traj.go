//Package traj reads and writes compressed annealing frame logs. A frame is
//the flattened configuration of one particle at one schedule value, together
//with that value and the particle's accumulated work. The format is plain
//text under a general-purpose compressor, chosen from the file name: zstd by
//default (and for names ending in 'f' or 's'), gzip for 'z', flate for 'r'
//and lzw for 'l'. Coordinates are stored as integers at a fixed decimal
//precision, which compresses far better than floating point text.
package traj

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"compress/lzw"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
)

const lzwLitwidth int = 8

const defaultPrec = 6

//Write!
type Writer struct {
	f         *os.File
	h         io.WriteCloser
	width     int
	filename  string
	writeable bool
	prec      int
}

// NewWriter opens a frame log for writing. width is the number of
// coordinates per frame. The first map in header, if any, is written as
// key=value metadata lines before the frames; a "prec" key there overrides
// the default decimal precision of 6.
func NewWriter(name string, width int, header map[string]string, compressionLevel ...int) (*Writer, error) {
	level := 9
	if len(compressionLevel) > 0 {
		level = compressionLevel[0]
	}
	W := new(Writer)
	var err error
	W.f, err = os.Create(name)
	if err != nil {
		return nil, Error{"can't create the file: " + err.Error(), name, []string{"NewWriter"}, true}
	}
	W.h, err = newCodecWriter(name, W.f, level)
	if err != nil {
		return nil, Error{"can't set up the compressor: " + err.Error(), name, []string{"NewWriter"}, true}
	}
	W.width = width
	W.filename = name
	W.writeable = true
	W.prec = defaultPrec
	if header != nil {
		if p, ok := header["prec"]; ok {
			prec, err := strconv.Atoi(p)
			if err == nil {
				W.prec = prec
			} else {
				log.Printf("Invalid precision for frame log %s. Will use the default", W.filename)
			}
		}
		headerstr := ""
		for k, v := range header {
			headerstr += fmt.Sprintf("%s=%v\n", k, v)
		}
		W.h.Write([]byte(headerstr))
	}
	W.h.Write([]byte(fmt.Sprintf("** %d\n", W.width)))
	return W, nil
}

func newCodecWriter(name string, a io.Writer, level int) (io.WriteCloser, error) {
	switch strings.ToLower(name)[len(name)-1] {
	case 'l':
		return lzw.NewWriter(a, lzw.MSB, lzwLitwidth), nil
	case 'z':
		return gzip.NewWriterLevel(a, level)
	case 'r':
		return flate.NewWriter(a, level)
	default: //'f', 's' and anything else
		return zstd.NewWriter(a, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	}
}

// WNext writes one frame: the coordinates, then a terminator line carrying
// the schedule value and the accumulated work.
func (W *Writer) WNext(lambda, work float64, coords []float64) error {
	if !W.writeable {
		return Error{TrajUnIniWrite, W.filename, []string{"WNext"}, true}
	}
	if coords == nil {
		return Error{NilCoordinates, W.filename, []string{"WNext"}, true}
	}
	if len(coords) != W.width {
		return Error{fmt.Sprintf("%d coordinates given, but %d expected", len(coords), W.width), W.filename, []string{"WNext"}, true}
	}
	p := math.Pow(10.0, float64(W.prec))
	var b strings.Builder
	for i, v := range coords {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%d", int64(math.RoundToEven(v*p)))
	}
	b.WriteByte('\n')
	fmt.Fprintf(&b, "* %7.5f %12.6f\n", lambda, work)
	_, err := W.h.Write([]byte(b.String()))
	if err != nil {
		return Error{err.Error(), W.filename, []string{"WNext"}, true}
	}
	return nil
}

//Len returns the number of coordinates in each frame.
func (W *Writer) Len() int {
	return W.width
}

func (W *Writer) Close() {
	if W == nil {
		return
	}
	if W.writeable {
		W.h.Close()
		W.f.Close()
	}
	W.writeable = false
}

//Read!
type Reader struct {
	f        *os.File
	codec    io.ReadCloser
	h        *bufio.Reader
	width    int
	filename string
	prec     int
	readable bool
}

//*zstd.Decoder has a Close that returns nothing, so it doesn't fit
//io.ReadCloser on its own.
type zstdql struct {
	closeql func()
	*zstd.Decoder
}

func (z zstdql) Close() error {
	z.closeql()
	return nil
}

func newCodecReader(name string, a io.Reader) (io.ReadCloser, error) {
	switch strings.ToLower(name)[len(name)-1] {
	case 'l':
		return lzw.NewReader(a, lzw.MSB, lzwLitwidth), nil
	case 'z':
		return gzip.NewReader(a)
	case 'r':
		return flate.NewReader(a), nil
	default:
		r, err := zstd.NewReader(a)
		if err != nil {
			return nil, err
		}
		return zstdql{r.Close, r}, nil
	}
}

// New opens a frame log for reading and returns the handle and the metadata
// map, or nil if the file carries no metadata.
func New(name string) (*Reader, map[string]string, error) {
	R := new(Reader)
	R.width = -1
	R.filename = name
	R.prec = defaultPrec
	var m map[string]string
	var err error
	R.f, err = os.Open(name)
	if err != nil {
		return nil, nil, Error{"can't open the file: " + err.Error(), name, []string{"New"}, true}
	}
	R.codec, err = newCodecReader(name, bufio.NewReader(R.f))
	if err != nil {
		return nil, nil, Error{"can't set up the decompressor: " + err.Error(), name, []string{"New"}, true}
	}
	R.h = bufio.NewReader(R.codec)
	for {
		str, err := R.h.ReadString('\n')
		if err != nil {
			return nil, nil, Error{"can't read the header: " + err.Error(), name, []string{"New"}, true}
		}
		str = strings.TrimSuffix(str, "\n")
		if strings.HasPrefix(str, "**") {
			fields := strings.Fields(str)
			if len(fields) < 2 {
				return nil, nil, Error{fmt.Sprintf("can't read the frame width from %q", str), name, []string{"New"}, true}
			}
			R.width, err = strconv.Atoi(fields[1])
			if err != nil {
				return nil, nil, Error{"can't read the frame width: " + err.Error(), name, []string{"New"}, true}
			}
			break
		}
		kv := strings.SplitN(str, "=", 2)
		if len(kv) != 2 {
			return nil, nil, Error{fmt.Sprintf("malformed metadata line %q", str), name, []string{"New"}, true}
		}
		if m == nil {
			m = make(map[string]string)
		}
		m[kv[0]] = kv[1]
	}
	if p, ok := m["prec"]; ok {
		prec, err := strconv.Atoi(p)
		if err == nil {
			R.prec = prec
		} else {
			log.Printf("Invalid precision for frame log %s. Will assume the default", R.filename)
		}
	}
	R.readable = true
	return R, m, nil
}

//Readable returns true if it is possible to call Next on the handle.
func (R *Reader) Readable() bool {
	return R.readable
}

//Len returns the number of coordinates in each frame.
func (R *Reader) Len() int {
	return R.width
}

// Next reads one frame into c, which must hold Len() values, and returns the
// frame's schedule value and accumulated work. A nil c skips the frame,
// still checking it for correctness. At the end of the log Next returns a
// non-critical error for which IsLastFrame is true.
func (R *Reader) Next(c []float64) (float64, float64, error) {
	if !R.readable {
		return 0, 0, Error{TrajUnIniRead, R.filename, []string{"Next"}, true}
	}
	if c != nil && len(c) != R.width {
		return 0, 0, Error{fmt.Sprintf("%d coordinates wanted, but frames hold %d", len(c), R.width), R.filename, []string{"Next"}, true}
	}
	line, err := R.h.ReadString('\n')
	if err != nil {
		if err == io.EOF && line == "" {
			//nothing bad happened, the log just ended
			R.Close()
			return 0, 0, newLastFrameError(R.filename, "Next")
		}
		return 0, 0, Error{err.Error(), R.filename, []string{"Next"}, true}
	}
	fields := strings.Fields(line)
	if len(fields) != R.width {
		return 0, 0, Error{fmt.Sprintf("frame holds %d coordinates, %d expected", len(fields), R.width), R.filename, []string{"Next"}, true}
	}
	p := math.Pow(10.0, float64(R.prec))
	for i, v := range fields {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, 0, Error{fmt.Sprintf("can't parse coordinate %d (%s): %s", i, v, err.Error()), R.filename, []string{"Next"}, true}
		}
		if c != nil {
			c[i] = float64(n) / p
		}
	}
	term, err := R.h.ReadString('\n')
	if err != nil {
		return 0, 0, Error{"can't read the frame termination mark: " + err.Error(), R.filename, []string{"Next"}, true}
	}
	tf := strings.Fields(term)
	if len(tf) != 3 || tf[0] != "*" {
		return 0, 0, Error{fmt.Sprintf("malformed frame termination mark %q", strings.TrimSpace(term)), R.filename, []string{"Next"}, true}
	}
	lambda, err := strconv.ParseFloat(tf[1], 64)
	if err != nil {
		return 0, 0, Error{"can't parse the frame's schedule value: " + err.Error(), R.filename, []string{"Next"}, true}
	}
	work, err := strconv.ParseFloat(tf[2], 64)
	if err != nil {
		return 0, 0, Error{"can't parse the frame's work: " + err.Error(), R.filename, []string{"Next"}, true}
	}
	return lambda, work, nil
}

//Close closes the handle and marks it as unreadable.
func (R *Reader) Close() {
	if !R.readable {
		return
	}
	R.codec.Close()
	R.readable = false
}

//Errors

// Error is the general structure for frame-log errors.
type Error struct {
	message  string
	filename string //the offending file, or an empty string
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return fmt.Sprintf("frame log %s error: %s", err.filename, err.message)
}

//Decorate adds new information to the error
func (E Error) Decorate(deco string) []string {
	//E.deco is a slice, so appending through a value receiver still
	//reaches the shared backing array.
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

//FileName returns the file to which the failing log was associated
func (err Error) FileName() string { return err.filename }

//Critical returns true if the error is critical, false otherwise
func (err Error) Critical() bool { return err.critical }

const (
	TrajUnIniRead  = "Frame log uninitialized to read"
	TrajUnIniWrite = "Frame log uninitialized to write"
	NilCoordinates = "Given nil coordinates"
)

//lastFrameError marks a normal end of the log.
type lastFrameError struct {
	deco     []string
	fileName string
}

func (E *lastFrameError) NormalLastFrameTermination() {}

func (E *lastFrameError) FileName() string { return E.fileName }

func (E *lastFrameError) Error() string { return "EOF" }

func (E *lastFrameError) Critical() bool { return false }

func (E *lastFrameError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

func newLastFrameError(filename string, caller string) *lastFrameError {
	e := new(lastFrameError)
	e.fileName = filename
	e.deco = []string{caller}
	return e
}

// IsLastFrame returns true if err just marks the normal end of a frame log.
func IsLastFrame(err error) bool {
	_, ok := err.(interface{ NormalLastFrameTermination() })
	return ok
}
