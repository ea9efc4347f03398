/*
 * xyz.go, part of chemfiles.
 *
 * Copyright 2023 Y. Naimi <ynaimi{at}protonDOTme>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

//Package xyz implements the XYZ text format. Each frame is an atom
//count, a comment line, and one "Symbol x y z" line per atom. XYZ works
//on files, on compressed files and on in-memory documents.
package xyz

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ynaimi/chemfiles"
	"github.com/ynaimi/chemfiles/zfile"
)

func init() {
	chemfiles.MustRegister(chemfiles.FormatInfo{
		Name:        "XYZ",
		Extension:   ".xyz",
		Description: "XYZ text format",
	}, newFile, newMemory)
}

//XYZObj reads or writes one XYZ document. It satisfies
//chemfiles.Format.
type XYZObj struct {
	path   string
	mode   chemfiles.Mode
	in     *bufio.Reader
	out    io.Writer
	closer io.Closer
	step   int
}

func newFile(path string, mode chemfiles.Mode, compression chemfiles.Compression) (chemfiles.Format, error) {
	method := zfile.FromCompression(compression)
	X := &XYZObj{path: path, mode: mode}
	switch mode {
	case chemfiles.Read:
		zf, err := zfile.Open(path, method)
		if err != nil {
			return nil, err
		}
		X.in = bufio.NewReader(zf)
		X.closer = zf
	case chemfiles.Write:
		zf, err := zfile.Create(path, method)
		if err != nil {
			return nil, err
		}
		X.out = zf
		X.closer = zf
	case chemfiles.Append:
		//compressed streams can not be reopened mid-stream
		if method != zfile.None {
			return nil, chemfiles.FileErrorf("can not append to the compressed file at %s", path)
		}
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return nil, chemfiles.FileErrorf("could not open the file at %s: %v", path, err)
		}
		X.out = f
		X.closer = f
	default:
		return nil, chemfiles.FileErrorf("invalid mode '%c' for the file at %s", mode, path)
	}
	return X, nil
}

func newMemory(buf *bytes.Buffer, mode chemfiles.Mode, compression chemfiles.Compression) (chemfiles.Format, error) {
	if compression != chemfiles.NoCompression {
		return nil, chemfiles.FormatErrorf("compression is not supported for in-memory IO")
	}
	X := &XYZObj{path: "<memory>", mode: mode}
	switch mode {
	case chemfiles.Read:
		X.in = bufio.NewReader(buf)
	case chemfiles.Write:
		X.out = buf
	default:
		return nil, chemfiles.FileErrorf("invalid mode '%c' for in-memory IO", mode)
	}
	return X, nil
}

//Read fills frame with the next step of the document. It returns io.EOF
//past the last one.
func (X *XYZObj) Read(frame *chemfiles.Frame) error {
	if X.in == nil {
		return chemfiles.FileErrorf("the file at %s is not opened for reading", X.path)
	}
	line, err := X.in.ReadString('\n')
	if strings.TrimSpace(line) == "" && err == io.EOF {
		return io.EOF
	}
	if err != nil && err != io.EOF {
		return chemfiles.FileErrorf("error while reading the file at %s: %v", X.path, err)
	}
	natoms, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || natoms < 0 {
		return chemfiles.FormatErrorf("can not read the number of atoms in the XYZ file at %s from %q", X.path, strings.TrimSpace(line))
	}
	//the comment line is not parsed
	if _, err := X.in.ReadString('\n'); err != nil && err != io.EOF {
		return chemfiles.FileErrorf("error while reading the file at %s: %v", X.path, err)
	}
	if err := frame.Resize(natoms); err != nil {
		return err
	}
	frame.Cell = chemfiles.UnitCell{} //XYZ carries no cell
	pos := frame.Positions()
	top := frame.Topology()
	for i := 0; i < natoms; i++ {
		line, err := X.in.ReadString('\n')
		if err != nil && err != io.EOF {
			return chemfiles.FileErrorf("error while reading the file at %s: %v", X.path, err)
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			return chemfiles.FormatErrorf("atom line %d of the XYZ file at %s is ill formed", i, X.path)
		}
		at := chemfiles.Atom{Name: fields[0], Symbol: fields[0]}
		at.Mass, _ = chemfiles.SymbolMass(at.Symbol)
		top.SetAtom(i, at)
		var c [3]float64
		for j := 0; j < 3; j++ {
			c[j], err = strconv.ParseFloat(fields[j+1], 64)
			if err != nil {
				return chemfiles.FormatErrorf("bad coordinate on atom line %d of the XYZ file at %s: %v", i, X.path, err)
			}
		}
		pos.SetRow(i, c[:])
	}
	frame.Step = X.step
	X.step++
	return nil
}

//Write appends one frame to the document.
func (X *XYZObj) Write(frame *chemfiles.Frame) error {
	if X.out == nil {
		return chemfiles.FileErrorf("the file at %s is not opened for writing", X.path)
	}
	n := frame.Len()
	if _, err := fmt.Fprintf(X.out, "%-4d\n", n); err != nil {
		return chemfiles.FileErrorf("error while writing to the file at %s: %v", X.path, err)
	}
	fmt.Fprint(X.out, "Written by the chemfiles library\n")
	pos := frame.Positions()
	top := frame.Topology()
	for i := 0; i < n; i++ {
		sym := top.Atom(i).Symbol
		if sym == "" {
			sym = top.Atom(i).Name
		}
		if sym == "" {
			sym = "X"
		}
		_, err := fmt.Fprintf(X.out, "%-2s  %8.3f%8.3f%8.3f \n", sym, pos.At(i, 0), pos.At(i, 1), pos.At(i, 2))
		if err != nil {
			return chemfiles.FileErrorf("error while writing to the file at %s: %v", X.path, err)
		}
	}
	return nil
}

//Close flushes and releases the underlying file or buffer.
func (X *XYZObj) Close() error {
	X.in = nil
	X.out = nil
	if X.closer == nil {
		return nil
	}
	c := X.closer
	X.closer = nil
	return c.Close()
}
