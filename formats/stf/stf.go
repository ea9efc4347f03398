//Package stf implements the simple trajectory format: a compressed
//text stream opening with "key=value" metadata lines and a "** natoms"
//mark, followed, per frame, by one line of integer-encoded coordinates
//per atom and a "*" terminator carrying the box vectors when there is
//a box. The stream is zstd unless the caller picks another method.
package stf

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/ynaimi/chemfiles"
	"github.com/ynaimi/chemfiles/zfile"
)

func init() {
	chemfiles.MustRegister(chemfiles.FormatInfo{
		Name:        "STF",
		Extension:   ".stf",
		Description: "simple trajectory format, compressed",
	}, newFile, nil)
}

//STFObj reads or writes one STF stream. It satisfies chemfiles.Format.
type STFObj struct {
	zf     *zfile.File
	in     *bufio.Reader
	path   string
	mode   chemfiles.Mode
	natoms int
	prec   int //coordinates are stored as integers at 10^prec
	header map[string]string
	step   int
	opened bool //the header is already on the stream
}

func newFile(path string, mode chemfiles.Mode, compression chemfiles.Compression) (chemfiles.Format, error) {
	method := zfile.FromCompression(compression)
	if compression == chemfiles.NoCompression {
		//the format is compressed by definition
		method = zfile.Zstd
	}
	S := &STFObj{path: path, mode: mode, prec: 2}
	switch mode {
	case chemfiles.Read:
		zf, err := zfile.Open(path, method)
		if err != nil {
			return nil, err
		}
		S.zf = zf
		S.in = bufio.NewReader(zf)
		if err := S.readHeader(); err != nil {
			zf.Close()
			return nil, err
		}
	case chemfiles.Write:
		zf, err := zfile.Create(path, method)
		if err != nil {
			return nil, err
		}
		S.zf = zf
	case chemfiles.Append:
		return nil, chemfiles.FileErrorf("the file at %s holds a compressed stream, which can not be appended to", path)
	default:
		return nil, chemfiles.FileErrorf("invalid mode '%c' for the file at %s", mode, path)
	}
	return S, nil
}

//Header returns the metadata lines of the stream, available once the
//file is opened for reading.
func (S *STFObj) Header() map[string]string {
	return S.header
}

func (S *STFObj) readHeader() error {
	S.header = make(map[string]string)
	for {
		line, err := S.in.ReadString('\n')
		if err != nil {
			return chemfiles.FormatErrorf("could not read the header of the STF file at %s: %v", S.path, err)
		}
		line = strings.TrimSuffix(line, "\n")
		if strings.HasPrefix(line, "**") {
			fields := strings.Fields(line)
			if len(fields) < 2 {
				return chemfiles.FormatErrorf("can not read the atom count of the STF file at %s from %q", S.path, line)
			}
			S.natoms, err = strconv.Atoi(fields[1])
			if err != nil || S.natoms < 0 {
				return chemfiles.FormatErrorf("can not read the atom count of the STF file at %s from %q", S.path, line)
			}
			break
		}
		kv := strings.SplitN(line, "=", 2)
		if len(kv) != 2 {
			return chemfiles.FormatErrorf("malformed header line %q in the STF file at %s", line, S.path)
		}
		S.header[kv[0]] = kv[1]
	}
	if p, ok := S.header["prec"]; ok {
		prec, err := strconv.Atoi(p)
		if err != nil || prec < 0 {
			log.Printf("invalid precision %q in the trajectory %s, using the default", p, S.path)
		} else {
			S.prec = prec
		}
	}
	return nil
}

//Read fills frame with the next step of the stream. It returns io.EOF
//past the last one.
func (S *STFObj) Read(frame *chemfiles.Frame) error {
	if S.mode != chemfiles.Read {
		return chemfiles.FileErrorf("the file at %s was not opened in read mode", S.path)
	}
	if err := frame.Resize(S.natoms); err != nil {
		return err
	}
	p := math.Pow(10, float64(S.prec))
	pos := frame.Positions()
	for i := 0; i < S.natoms; i++ {
		line, err := S.in.ReadString('\n')
		if err != nil {
			//the stream may only end on a frame boundary
			if err == io.EOF && i == 0 && strings.TrimSpace(line) == "" {
				return io.EOF
			}
			return chemfiles.FileErrorf("error while reading the file at %s: %v", S.path, err)
		}
		var c [3]float64
		if err := decodeCoords(line, &c, p); err != nil {
			return chemfiles.FormatErrorf("frame %d of the STF file at %s: %v", S.step, S.path, err)
		}
		pos.SetRow(i, c[:])
	}
	line, err := S.in.ReadString('\n')
	if strings.TrimSpace(line) == "" && err == io.EOF && S.natoms == 0 {
		return io.EOF
	}
	if err != nil && err != io.EOF {
		return chemfiles.FileErrorf("error while reading the file at %s: %v", S.path, err)
	}
	if !strings.HasPrefix(line, "*") {
		return chemfiles.FormatErrorf("frame %d of the STF file at %s is not closed by a terminator mark", S.step, S.path)
	}
	frame.Cell = S.decodeBox(strings.Fields(strings.TrimSpace(line)))
	frame.Step = S.step
	S.step++
	return nil
}

//decodeBox turns the 9 values after the terminator mark into a cell.
//A bare terminator, or one with unreadable values, is the infinite
//cell; bad values are logged, not returned, so one mangled box does
//not cut a long trajectory short.
func (S *STFObj) decodeBox(fields []string) chemfiles.UnitCell {
	if len(fields) < 10 {
		return chemfiles.UnitCell{}
	}
	var box [9]float64
	zero := true
	for j, v := range fields[1:10] {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			log.Printf("failed to read the box of a frame from %s", S.path)
			return chemfiles.UnitCell{}
		}
		box[j] = f
		if f != 0 {
			zero = false
		}
	}
	if zero {
		return chemfiles.UnitCell{}
	}
	cell, err := chemfiles.NewCellFromMatrix(mat.NewDense(3, 3, box[:]))
	if err != nil {
		log.Printf("failed to read the box of a frame from %s", S.path)
		return chemfiles.UnitCell{}
	}
	return cell
}

func decodeCoords(line string, c *[3]float64, p float64) error {
	s := strings.Fields(line)
	if len(s) != 3 {
		return fmt.Errorf("expected 3 coordinates, got %d in %q", len(s), strings.TrimSpace(line))
	}
	for i, v := range s {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("can not parse coordinate %d from %q: %v", i, v, err)
		}
		c[i] = float64(n) / p
	}
	return nil
}

//Write appends one frame to the stream. The header goes out in front of
//the first one.
func (S *STFObj) Write(frame *chemfiles.Frame) error {
	if S.mode != chemfiles.Write {
		return chemfiles.FileErrorf("the file at %s was not opened in write mode", S.path)
	}
	if !S.opened {
		S.natoms = frame.Len()
		if _, err := fmt.Fprintf(S.zf, "prec=%d\n** %d\n", S.prec, S.natoms); err != nil {
			return chemfiles.FileErrorf("error while writing to the file at %s: %v", S.path, err)
		}
		S.opened = true
	}
	if frame.Len() != S.natoms {
		return chemfiles.FormatErrorf("can not write a frame of %d atoms, the file at %s holds frames of %d atoms", frame.Len(), S.path, S.natoms)
	}
	p := math.Pow(10, float64(S.prec))
	pos := frame.Positions()
	for i := 0; i < S.natoms; i++ {
		_, err := fmt.Fprintf(S.zf, "%d %d %d\n",
			int(math.RoundToEven(pos.At(i, 0)*p)),
			int(math.RoundToEven(pos.At(i, 1)*p)),
			int(math.RoundToEven(pos.At(i, 2)*p)))
		if err != nil {
			return chemfiles.FileErrorf("error while writing to the file at %s: %v", S.path, err)
		}
	}
	if err := S.writeBox(frame.Cell); err != nil {
		return err
	}
	return nil
}

func (S *STFObj) writeBox(cell chemfiles.UnitCell) error {
	var err error
	if cell.Shape() == chemfiles.Infinite {
		_, err = fmt.Fprint(S.zf, "*\n")
	} else {
		m := cell.Matrix()
		_, err = fmt.Fprintf(S.zf, "* %4.2f %4.2f %4.2f %4.2f %4.2f %4.2f %4.2f %4.2f %4.2f\n",
			m.At(0, 0), m.At(0, 1), m.At(0, 2),
			m.At(1, 0), m.At(1, 1), m.At(1, 2),
			m.At(2, 0), m.At(2, 1), m.At(2, 2))
	}
	if err != nil {
		return chemfiles.FileErrorf("error while writing to the file at %s: %v", S.path, err)
	}
	return nil
}

//Close flushes the compressed stream and releases the file.
func (S *STFObj) Close() error {
	if S.zf == nil {
		return nil
	}
	zf := S.zf
	S.zf = nil
	S.in = nil
	return zf.Close()
}
