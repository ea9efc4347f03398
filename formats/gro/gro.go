/*
 * gro.go, part of chemfiles.
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

//Package gro implements the GROMACS GRO coordinate format: fixed-column
//atom lines with optional velocities, and a periodic box on the last
//line of each frame. GRO files are in nm, frames in Angstroms, so
//coordinates are scaled by 10 on the way in and out.
package gro

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/ynaimi/chemfiles"
	"github.com/ynaimi/chemfiles/zfile"
)

func init() {
	chemfiles.MustRegister(chemfiles.FormatInfo{
		Name:        "GRO",
		Extension:   ".gro",
		Description: "GROMACS GRO text format",
	}, newFile, nil)
}

//GROObj reads or writes one GRO document. It satisfies chemfiles.Format.
type GROObj struct {
	path   string
	mode   chemfiles.Mode
	in     *bufio.Reader
	out    io.Writer
	closer io.Closer
	step   int
}

func newFile(path string, mode chemfiles.Mode, compression chemfiles.Compression) (chemfiles.Format, error) {
	method := zfile.FromCompression(compression)
	G := &GROObj{path: path, mode: mode}
	switch mode {
	case chemfiles.Read:
		zf, err := zfile.Open(path, method)
		if err != nil {
			return nil, err
		}
		G.in = bufio.NewReader(zf)
		G.closer = zf
	case chemfiles.Write:
		zf, err := zfile.Create(path, method)
		if err != nil {
			return nil, err
		}
		G.out = zf
		G.closer = zf
	case chemfiles.Append:
		//compressed streams can not be reopened mid-stream
		if method != zfile.None {
			return nil, chemfiles.FileErrorf("can not append to the compressed file at %s", path)
		}
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return nil, chemfiles.FileErrorf("could not open the file at %s: %v", path, err)
		}
		G.out = f
		G.closer = f
	default:
		return nil, chemfiles.FileErrorf("invalid mode '%c' for the file at %s", mode, path)
	}
	return G, nil
}

//Read fills frame with the next step of the document. It returns io.EOF
//past the last one.
func (G *GROObj) Read(frame *chemfiles.Frame) error {
	if G.in == nil {
		return chemfiles.FileErrorf("the file at %s is not opened for reading", G.path)
	}
	//the title line, not parsed
	line, err := G.in.ReadString('\n')
	if strings.TrimSpace(line) == "" && err == io.EOF {
		return io.EOF
	}
	if err != nil && err != io.EOF {
		return chemfiles.FileErrorf("error while reading the file at %s: %v", G.path, err)
	}
	line, err = G.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return chemfiles.FileErrorf("error while reading the file at %s: %v", G.path, err)
	}
	natoms, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || natoms < 0 {
		return chemfiles.FormatErrorf("can not read the number of atoms in the GRO file at %s from %q", G.path, strings.TrimSpace(line))
	}
	if err := frame.Resize(natoms); err != nil {
		return err
	}
	pos := frame.Positions()
	top := frame.Topology()
	for i := 0; i < natoms; i++ {
		line, err := G.in.ReadString('\n')
		if err != nil && err != io.EOF {
			return chemfiles.FileErrorf("error while reading the file at %s: %v", G.path, err)
		}
		line = strings.TrimRight(line, "\r\n")
		if len(line) < 44 {
			return chemfiles.FormatErrorf("atom line %d of the GRO file at %s is too short", i, G.path)
		}
		at, c, v, err := readGroLine(line)
		if err != nil {
			return chemfiles.FormatErrorf("atom line %d of the GRO file at %s is ill formed: %v", i, G.path, err)
		}
		top.SetAtom(i, at)
		pos.SetRow(i, c[:])
		if v != nil {
			if !frame.HasVelocities() {
				frame.AddVelocities()
			}
			frame.Velocities().SetRow(i, v[:])
		}
	}
	line, err = G.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return chemfiles.FileErrorf("error while reading the file at %s: %v", G.path, err)
	}
	cell, err := readGroBox(strings.Fields(line))
	if err != nil {
		return chemfiles.FormatErrorf("bad box line in the GRO file at %s: %v", G.path, err)
	}
	frame.Cell = cell
	frame.Step = G.step
	G.step++
	return nil
}

//readGroLine parses the fixed columns of one atom line, scaling nm to
//Angstroms. The velocity return is nil when the line has no velocity
//columns.
func readGroLine(line string) (chemfiles.Atom, [3]float64, *[3]float64, error) {
	var at chemfiles.Atom
	var c [3]float64
	errs := make([]error, 5, 8)
	at.Molid, errs[0] = strconv.Atoi(strings.TrimSpace(line[0:5]))
	at.Molname = strings.TrimSpace(line[5:10])
	at.Name = strings.TrimSpace(line[10:15])
	//column 15:20 holds the atom serial, which is redundant here
	c[0], errs[1] = strconv.ParseFloat(strings.TrimSpace(line[20:28]), 64)
	c[1], errs[2] = strconv.ParseFloat(strings.TrimSpace(line[28:36]), 64)
	c[2], errs[3] = strconv.ParseFloat(strings.TrimSpace(line[36:44]), 64)
	at.Symbol = guessSymbol(at.Name)
	at.Mass, _ = chemfiles.SymbolMass(at.Symbol)
	var v *[3]float64
	if len(line) >= 68 {
		v = new([3]float64)
		v[0], errs[4] = strconv.ParseFloat(strings.TrimSpace(line[44:52]), 64)
		var e1, e2 error
		v[1], e1 = strconv.ParseFloat(strings.TrimSpace(line[52:60]), 64)
		v[2], e2 = strconv.ParseFloat(strings.TrimSpace(line[60:68]), 64)
		errs = append(errs, e1, e2)
	}
	for _, e := range errs {
		if e != nil {
			return at, c, nil, e
		}
	}
	for i := range c {
		c[i] *= 10
	}
	if v != nil {
		for i := range v {
			v[i] *= 10
		}
	}
	return at, c, v, nil
}

//readGroBox turns the 3 or 9 floats of a GRO box line into a cell. An
//all-zero box is the infinite cell.
func readGroBox(fields []string) (chemfiles.UnitCell, error) {
	if len(fields) != 3 && len(fields) != 9 {
		return chemfiles.UnitCell{}, fmt.Errorf("expected 3 or 9 values, got %d", len(fields))
	}
	v := make([]float64, len(fields))
	zero := true
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return chemfiles.UnitCell{}, err
		}
		v[i] = x * 10
		if x != 0 {
			zero = false
		}
	}
	if zero {
		return chemfiles.UnitCell{}, nil
	}
	if len(v) == 3 {
		return chemfiles.NewOrthorhombicCell(v[0], v[1], v[2]), nil
	}
	//the long order is v1x v2y v3z v1y v1z v2x v2z v3x v3y
	m := mat.NewDense(3, 3, []float64{
		v[0], v[3], v[4],
		v[5], v[1], v[6],
		v[7], v[8], v[2],
	})
	return chemfiles.NewCellFromMatrix(m)
}

//Write appends one frame to the document.
func (G *GROObj) Write(frame *chemfiles.Frame) error {
	if G.out == nil {
		return chemfiles.FileErrorf("the file at %s is not opened for writing", G.path)
	}
	n := frame.Len()
	_, err := fmt.Fprintf(G.out, "Written by the chemfiles library\n%5d\n", n)
	if err != nil {
		return chemfiles.FileErrorf("error while writing to the file at %s: %v", G.path, err)
	}
	pos := frame.Positions()
	vel := frame.Velocities()
	top := frame.Topology()
	for i := 0; i < n; i++ {
		at := top.Atom(i)
		if at.Molid == 0 {
			at.Molid = 1
		}
		if at.Molname == "" {
			at.Molname = "UNK"
		}
		name := at.Name
		if name == "" {
			name = at.Symbol
		}
		_, err := fmt.Fprintf(G.out, "%5d%-5s%5s%5d%8.3f%8.3f%8.3f",
			at.Molid%100000, at.Molname, name, (i+1)%100000,
			pos.At(i, 0)/10, pos.At(i, 1)/10, pos.At(i, 2)/10)
		if err != nil {
			return chemfiles.FileErrorf("error while writing to the file at %s: %v", G.path, err)
		}
		if vel != nil {
			fmt.Fprintf(G.out, "%8.4f%8.4f%8.4f", vel.At(i, 0)/10, vel.At(i, 1)/10, vel.At(i, 2)/10)
		}
		fmt.Fprint(G.out, "\n")
	}
	if err := G.writeBox(frame.Cell); err != nil {
		return err
	}
	return nil
}

func (G *GROObj) writeBox(cell chemfiles.UnitCell) error {
	var err error
	switch cell.Shape() {
	case chemfiles.Infinite:
		_, err = fmt.Fprintf(G.out, "%10.5f%10.5f%10.5f\n", 0.0, 0.0, 0.0)
	case chemfiles.Orthorhombic:
		a, b, c := cell.Lengths()
		_, err = fmt.Fprintf(G.out, "%10.5f%10.5f%10.5f\n", a/10, b/10, c/10)
	case chemfiles.Triclinic:
		m := cell.Matrix()
		_, err = fmt.Fprintf(G.out, "%10.5f%10.5f%10.5f%10.5f%10.5f%10.5f%10.5f%10.5f%10.5f\n",
			m.At(0, 0)/10, m.At(1, 1)/10, m.At(2, 2)/10,
			m.At(0, 1)/10, m.At(0, 2)/10, m.At(1, 0)/10,
			m.At(1, 2)/10, m.At(2, 0)/10, m.At(2, 1)/10)
	}
	if err != nil {
		return chemfiles.FileErrorf("error while writing to the file at %s: %v", G.path, err)
	}
	return nil
}

//Close flushes and releases the underlying file.
func (G *GROObj) Close() error {
	G.in = nil
	G.out = nil
	if G.closer == nil {
		return nil
	}
	c := G.closer
	G.closer = nil
	return c.Close()
}

//guessSymbol extracts a chemical element from a GRO atom name: the
//leading letters, matched against the known elements as two letters
//first, then one.
func guessSymbol(name string) string {
	letters := ""
	for _, r := range name {
		if r >= '0' && r <= '9' {
			break
		}
		letters += string(r)
	}
	if len(letters) >= 2 {
		two := strings.ToUpper(letters[:1]) + strings.ToLower(letters[1:2])
		if _, ok := chemfiles.SymbolMass(two); ok {
			return two
		}
	}
	if len(letters) >= 1 {
		one := strings.ToUpper(letters[:1])
		if _, ok := chemfiles.SymbolMass(one); ok {
			return one
		}
	}
	return letters
}
