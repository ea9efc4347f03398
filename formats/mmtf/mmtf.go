/*
 * mmtf.go, part of chemfiles.
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

//Package mmtf implements the MMTF structure format: one msgpack map per
//file holding coordinate lists, atom names, a bond list and a unit cell.
//A file holds a single structure, so a trajectory in this format has
//exactly one frame. MMTF files are commonly gzipped, which the
//compression layer handles from the file name.
package mmtf

import (
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/ynaimi/chemfiles"
	"github.com/ynaimi/chemfiles/zfile"
)

func init() {
	chemfiles.MustRegister(chemfiles.FormatInfo{
		Name:        "MMTF",
		Extension:   ".mmtf",
		Description: "MMTF (RCSB Protein Data Bank) binary format",
	}, newFile, nil)
}

//document is the msgpack map of an MMTF file, restricted to the fields
//this package consumes. Unknown fields are skipped on decode.
type document struct {
	Producer     string    `msgpack:"mmtfProducer"`
	NumAtoms     int32     `msgpack:"numAtoms"`
	NumBonds     int32     `msgpack:"numBonds"`
	XCoordList   []float32 `msgpack:"xCoordList"`
	YCoordList   []float32 `msgpack:"yCoordList"`
	ZCoordList   []float32 `msgpack:"zCoordList"`
	AtomNameList []string  `msgpack:"atomNameList"`
	BondAtomList []int32   `msgpack:"bondAtomList"`
	UnitCell     []float32 `msgpack:"unitCell"`
}

//MMTFObj reads or writes one MMTF file. It satisfies chemfiles.Format.
type MMTFObj struct {
	zf   *zfile.File
	path string
	mode chemfiles.Mode
	done bool //the single structure was already read or written
}

func newFile(path string, mode chemfiles.Mode, compression chemfiles.Compression) (chemfiles.Format, error) {
	M := &MMTFObj{path: path, mode: mode}
	var err error
	switch mode {
	case chemfiles.Read:
		M.zf, err = zfile.Open(path, zfile.FromCompression(compression))
	case chemfiles.Write:
		M.zf, err = zfile.Create(path, zfile.FromCompression(compression))
	case chemfiles.Append:
		return nil, chemfiles.FileErrorf("the MMTF format holds a single structure, the file at %s can not be appended to", path)
	default:
		return nil, chemfiles.FileErrorf("invalid mode '%c' for the file at %s", mode, path)
	}
	if err != nil {
		return nil, err
	}
	return M, nil
}

//Read fills frame with the structure of the file. A second call returns
//io.EOF, the format holds one frame per file.
func (M *MMTFObj) Read(frame *chemfiles.Frame) error {
	if M.mode != chemfiles.Read {
		return chemfiles.FileErrorf("the file at %s was not opened in read mode", M.path)
	}
	if M.done {
		return io.EOF
	}
	var doc document
	if err := msgpack.NewDecoder(M.zf).Decode(&doc); err != nil {
		return chemfiles.FormatErrorf("can not read the MMTF document in the file at %s: %v", M.path, err)
	}
	natoms := int(doc.NumAtoms)
	if natoms < 0 || len(doc.XCoordList) != natoms || len(doc.YCoordList) != natoms || len(doc.ZCoordList) != natoms {
		return chemfiles.FormatErrorf("the MMTF document at %s declares %d atoms but holds %d/%d/%d coordinates",
			M.path, doc.NumAtoms, len(doc.XCoordList), len(doc.YCoordList), len(doc.ZCoordList))
	}
	if err := frame.Resize(natoms); err != nil {
		return err
	}
	pos := frame.Positions()
	for i := 0; i < natoms; i++ {
		pos.Set(i, 0, float64(doc.XCoordList[i]))
		pos.Set(i, 1, float64(doc.YCoordList[i]))
		pos.Set(i, 2, float64(doc.ZCoordList[i]))
	}
	top := frame.Topology()
	if len(doc.AtomNameList) == natoms {
		for i, name := range doc.AtomNameList {
			at := chemfiles.Atom{Name: name}
			if m, ok := chemfiles.SymbolMass(name); ok {
				at.Symbol = name
				at.Mass = m
			}
			top.SetAtom(i, at)
		}
	}
	if len(doc.BondAtomList)%2 != 0 {
		return chemfiles.FormatErrorf("the MMTF document at %s holds an odd number of bond indexes", M.path)
	}
	for i := 0; i+1 < len(doc.BondAtomList); i += 2 {
		if err := top.AddBond(int(doc.BondAtomList[i]), int(doc.BondAtomList[i+1])); err != nil {
			return chemfiles.FormatErrorf("bad bond in the MMTF document at %s: %v", M.path, err)
		}
	}
	cell, err := decodeCell(doc.UnitCell)
	if err != nil {
		return chemfiles.FormatErrorf("bad unit cell in the MMTF document at %s: %v", M.path, err)
	}
	frame.Cell = cell
	frame.Step = 0
	M.done = true
	return nil
}

func decodeCell(raw []float32) (chemfiles.UnitCell, error) {
	if len(raw) == 0 {
		return chemfiles.UnitCell{}, nil
	}
	if len(raw) != 6 {
		return chemfiles.UnitCell{}, chemfiles.Errorf("expected 6 values, got %d", len(raw))
	}
	if raw[0] == 0 && raw[1] == 0 && raw[2] == 0 {
		return chemfiles.UnitCell{}, nil
	}
	return chemfiles.NewTriclinicCell(
		float64(raw[0]), float64(raw[1]), float64(raw[2]),
		float64(raw[3]), float64(raw[4]), float64(raw[5]),
	), nil
}

//Write stores frame as the structure of the file. A file holds exactly
//one, a second call is an error.
func (M *MMTFObj) Write(frame *chemfiles.Frame) error {
	if M.mode != chemfiles.Write {
		return chemfiles.FileErrorf("the file at %s was not opened in write mode", M.path)
	}
	if M.done {
		return chemfiles.FormatErrorf("the file at %s already holds a structure, the MMTF format can only hold one", M.path)
	}
	natoms := frame.Len()
	doc := document{
		Producer:     "Written by the chemfiles library",
		NumAtoms:     int32(natoms),
		XCoordList:   make([]float32, natoms),
		YCoordList:   make([]float32, natoms),
		ZCoordList:   make([]float32, natoms),
		AtomNameList: make([]string, natoms),
	}
	pos := frame.Positions()
	top := frame.Topology()
	for i := 0; i < natoms; i++ {
		doc.XCoordList[i] = float32(pos.At(i, 0))
		doc.YCoordList[i] = float32(pos.At(i, 1))
		doc.ZCoordList[i] = float32(pos.At(i, 2))
		at := top.Atom(i)
		name := at.Name
		if name == "" {
			name = at.Symbol
		}
		doc.AtomNameList[i] = name
	}
	bonds := top.Bonds()
	doc.NumBonds = int32(len(bonds))
	doc.BondAtomList = make([]int32, 0, 2*len(bonds))
	for _, b := range bonds {
		doc.BondAtomList = append(doc.BondAtomList, int32(b[0]), int32(b[1]))
	}
	if frame.Cell.Shape() != chemfiles.Infinite {
		a, b, c := frame.Cell.Lengths()
		alpha, beta, gamma := frame.Cell.Angles()
		doc.UnitCell = []float32{
			float32(a), float32(b), float32(c),
			float32(alpha), float32(beta), float32(gamma),
		}
	}
	if err := msgpack.NewEncoder(M.zf).Encode(&doc); err != nil {
		return chemfiles.FileErrorf("error while writing to the file at %s: %v", M.path, err)
	}
	M.done = true
	return nil
}

//Close flushes and releases the file.
func (M *MMTFObj) Close() error {
	if M.zf == nil {
		return nil
	}
	zf := M.zf
	M.zf = nil
	return zf.Close()
}
