/*
 * dcd.go, part of chemfiles.
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

//Package dcd implements the CHARMM/NAMD DCD binary trajectory format.
//DCD files carry a frame offset table, so any step can be decoded
//without reading the ones before it. Both endiannesses are read,
//little endian is written.
package dcd

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/ynaimi/chemfiles"
	"github.com/ynaimi/chemfiles/trajfile"
)

func init() {
	chemfiles.MustRegister(chemfiles.FormatInfo{
		Name:        "DCD",
		Extension:   ".dcd",
		Description: "DCD binary format",
	}, newFile, nil)
}

const maxTitle = 80

//header fields that matter past the initial scan
type dcdHeader struct {
	endian  binary.ByteOrder
	hasCell bool
	fourdim bool
	end     int64 //offset of the first frame
}

//DCDObj reads or writes one DCD file. It satisfies chemfiles.Format and
//chemfiles.StepReader.
type DCDObj struct {
	tf     *trajfile.File
	hdr    dcdHeader
	path   string
	mode   chemfiles.Mode
	step   int //next sequential step
	opened bool
	fields [3][]float32 //reusable per-coordinate buffers
}

func newFile(path string, mode chemfiles.Mode, compression chemfiles.Compression) (chemfiles.Format, error) {
	//frame counting needs to seek back into the header, which rules
	//out a compression layer
	if compression != chemfiles.NoCompression {
		return nil, chemfiles.FileErrorf("the DCD format does not support compression")
	}
	D := &DCDObj{path: path, mode: mode}
	D.hdr.endian = binary.LittleEndian
	tf, err := trajfile.Open(path, mode, func(r io.ReadSeeker) (int, []int64, error) {
		return scanDCD(r, &D.hdr)
	})
	if err != nil {
		return nil, err
	}
	D.tf = tf
	//a scanned file already has its header on disk
	D.opened = tf.NAtoms() > 0 || tf.NFrames() > 0
	return D, nil
}

//scanDCD decodes the header and hops over the frames without decoding
//them, collecting the offset of each one.
func scanDCD(r io.ReadSeeker, hdr *dcdHeader) (int, []int64, error) {
	natoms, err := readHeader(r, hdr)
	if err != nil {
		return 0, nil, err
	}
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, nil, err
	}
	if _, err := r.Seek(hdr.end, io.SeekStart); err != nil {
		return 0, nil, err
	}
	var offsets []int64
	pos := hdr.end
	for pos < size {
		offsets = append(offsets, pos)
		if err := hopFrame(r, hdr, natoms); err != nil {
			return 0, nil, err
		}
		pos, err = r.Seek(0, io.SeekCurrent)
		if err != nil {
			return 0, nil, err
		}
	}
	return natoms, offsets, nil
}

//readHeader parses everything up to the first frame and leaves the
//reader there. The layout is the CHARMM one: an 84 opens the file, then
//the "CORD" magic number, the 80-byte icntrl block, a title block and
//the atom count, each int bracketed or checked the way CHARMM likes it.
func readHeader(r io.ReadSeeker, hdr *dcdHeader) (int, error) {
	head := make([]byte, 8)
	if _, err := io.ReadFull(r, head); err != nil {
		return 0, err
	}
	hdr.endian = binary.LittleEndian
	if hdr.endian.Uint32(head[0:4]) != 84 {
		hdr.endian = binary.BigEndian
		if hdr.endian.Uint32(head[0:4]) != 84 {
			return 0, chemfiles.FormatErrorf("this is not a DCD file, it does not start with an 84")
		}
	}
	if string(head[4:8]) != "CORD" {
		return 0, chemfiles.FormatErrorf("this is not a DCD file, the magic number is not CORD")
	}
	icntrl := make([]byte, 80)
	if _, err := io.ReadFull(r, icntrl); err != nil {
		return 0, err
	}
	//X-plor leaves the version slot at zero
	if int32(hdr.endian.Uint32(icntrl[76:80])) == 0 {
		return 0, chemfiles.FormatErrorf("X-plor DCD files are not supported")
	}
	if fixed := int32(hdr.endian.Uint32(icntrl[32:36])); fixed != 0 {
		return 0, chemfiles.FormatErrorf("DCD files with %d fixed atoms are not supported", fixed)
	}
	hdr.hasCell = hdr.endian.Uint32(icntrl[40:44]) != 0
	hdr.fourdim = hdr.endian.Uint32(icntrl[44:48]) == 1
	var check int32
	if err := binary.Read(r, hdr.endian, &check); err != nil {
		return 0, err
	}
	if check != 84 {
		return 0, chemfiles.FormatErrorf("the icntrl block of the DCD file is not closed by an 84")
	}
	//the title block: a size, the number of 80-byte title lines, the
	//lines themselves and the size again
	if err := binary.Read(r, hdr.endian, &check); err != nil {
		return 0, err
	}
	var ntitle int32
	if err := binary.Read(r, hdr.endian, &ntitle); err != nil {
		return 0, err
	}
	if ntitle < 0 || ntitle > 1024 {
		return 0, chemfiles.FormatErrorf("the DCD title block claims %d lines", ntitle)
	}
	if _, err := r.Seek(int64(ntitle)*maxTitle, io.SeekCurrent); err != nil {
		return 0, err
	}
	if err := binary.Read(r, hdr.endian, &check); err != nil {
		return 0, err
	}
	//a 4 brackets the atom count on both sides
	if err := binary.Read(r, hdr.endian, &check); err != nil {
		return 0, err
	}
	if check != 4 {
		return 0, chemfiles.FormatErrorf("the atom count of the DCD file is not preceded by a 4")
	}
	var natoms int32
	if err := binary.Read(r, hdr.endian, &natoms); err != nil {
		return 0, err
	}
	if err := binary.Read(r, hdr.endian, &check); err != nil {
		return 0, err
	}
	if check != 4 || natoms < 0 {
		return 0, chemfiles.FormatErrorf("the atom count of the DCD file is not followed by a 4")
	}
	end, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	hdr.end = end
	return int(natoms), nil
}

//hopFrame skips one frame using its block sizes. Even with the unit
//cell flag on, some trajectories drop the cell block from individual
//frames, so the first size decides what the block is.
func hopFrame(r io.ReadSeeker, hdr *dcdHeader, natoms int) error {
	coords := 3
	var bs int32
	if err := binary.Read(r, hdr.endian, &bs); err != nil {
		return err
	}
	if hdr.hasCell && bs != int32(natoms)*4 {
		if err := skipBlock(r, hdr, bs); err != nil {
			return err
		}
		if err := binary.Read(r, hdr.endian, &bs); err != nil {
			return err
		}
	}
	for {
		if bs != int32(natoms)*4 {
			return chemfiles.FormatErrorf("a coordinate block of the DCD file holds %d bytes, want %d", bs, natoms*4)
		}
		if err := skipBlock(r, hdr, bs); err != nil {
			return err
		}
		coords--
		if coords == 0 {
			break
		}
		if err := binary.Read(r, hdr.endian, &bs); err != nil {
			return err
		}
	}
	if hdr.fourdim {
		//the 4D block is absent from the last frame of some files
		err := binary.Read(r, hdr.endian, &bs)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		return skipBlock(r, hdr, bs)
	}
	return nil
}

//skipBlock jumps over bs payload bytes and checks the closing size.
func skipBlock(r io.ReadSeeker, hdr *dcdHeader, bs int32) error {
	if bs < 0 {
		return chemfiles.FormatErrorf("a block of the DCD file claims a negative size")
	}
	if _, err := r.Seek(int64(bs), io.SeekCurrent); err != nil {
		return err
	}
	var check int32
	if err := binary.Read(r, hdr.endian, &check); err != nil {
		return err
	}
	if check != bs {
		return chemfiles.FormatErrorf("a block of the DCD file opens with %d bytes and closes with %d", bs, check)
	}
	return nil
}

//Nsteps returns the number of frames of the file.
func (D *DCDObj) Nsteps() int {
	return D.tf.NFrames()
}

//Read fills frame with the next step. It returns io.EOF past the last
//one.
func (D *DCDObj) Read(frame *chemfiles.Frame) error {
	if D.mode != chemfiles.Read {
		return chemfiles.FileErrorf("the file at %s was not opened in read mode", D.path)
	}
	if D.step >= D.tf.NFrames() {
		return io.EOF
	}
	if err := D.ReadStep(D.step, frame); err != nil {
		return err
	}
	D.step++
	return nil
}

//ReadStep fills frame with the given step, decoding only that one.
func (D *DCDObj) ReadStep(step int, frame *chemfiles.Frame) error {
	if D.mode != chemfiles.Read {
		return chemfiles.FileErrorf("the file at %s was not opened in read mode", D.path)
	}
	if step < 0 || step >= D.tf.NFrames() {
		return chemfiles.FileErrorf("can not read step %d, the file at %s has %d steps", step, D.path, D.tf.NFrames())
	}
	if _, err := D.tf.Seek(D.tf.Offset(step), io.SeekStart); err != nil {
		return chemfiles.FileErrorf("could not seek to step %d of the file at %s: %v", step, D.path, err)
	}
	if err := D.decodeFrame(frame); err != nil {
		return err
	}
	frame.Step = step
	return nil
}

func (D *DCDObj) decodeFrame(frame *chemfiles.Frame) error {
	natoms := D.tf.NAtoms()
	if D.fields[0] == nil {
		for i := range D.fields {
			D.fields[i] = make([]float32, natoms)
		}
	}
	frame.Cell = chemfiles.UnitCell{} //replaced below when the frame has a cell block
	var bs int32
	if err := binary.Read(D.tf, D.hdr.endian, &bs); err != nil {
		return D.readErr(err)
	}
	if D.hdr.hasCell && bs != int32(natoms)*4 {
		if err := D.decodeCell(frame, bs); err != nil {
			return err
		}
		if err := binary.Read(D.tf, D.hdr.endian, &bs); err != nil {
			return D.readErr(err)
		}
	}
	for i := 0; i < 3; i++ {
		if i > 0 {
			if err := binary.Read(D.tf, D.hdr.endian, &bs); err != nil {
				return D.readErr(err)
			}
		}
		if bs != int32(natoms)*4 {
			return chemfiles.FormatErrorf("a coordinate block of the DCD file at %s holds %d bytes, want %d", D.path, bs, natoms*4)
		}
		if err := binary.Read(D.tf, D.hdr.endian, D.fields[i]); err != nil {
			return D.readErr(err)
		}
		var check int32
		if err := binary.Read(D.tf, D.hdr.endian, &check); err != nil {
			return D.readErr(err)
		}
		if check != bs {
			return chemfiles.FormatErrorf("a coordinate block of the DCD file at %s opens with %d bytes and closes with %d", D.path, bs, check)
		}
	}
	if err := frame.Resize(natoms); err != nil {
		return err
	}
	pos := frame.Positions()
	for i := 0; i < natoms; i++ {
		pos.Set(i, 0, float64(D.fields[0][i]))
		pos.Set(i, 1, float64(D.fields[1][i]))
		pos.Set(i, 2, float64(D.fields[2][i]))
	}
	return nil
}

//decodeCell reads the 48-byte crystal block: a, gamma, b, beta, alpha,
//c, with the angles in degrees or, in older files, as cosines.
func (D *DCDObj) decodeCell(frame *chemfiles.Frame, bs int32) error {
	if bs != 48 {
		return chemfiles.FormatErrorf("the unit cell block of the DCD file at %s holds %d bytes, want 48", D.path, bs)
	}
	var xtl [6]float64
	if err := binary.Read(D.tf, D.hdr.endian, xtl[:]); err != nil {
		return D.readErr(err)
	}
	var check int32
	if err := binary.Read(D.tf, D.hdr.endian, &check); err != nil {
		return D.readErr(err)
	}
	if check != 48 {
		return chemfiles.FormatErrorf("the unit cell block of the DCD file at %s is not closed by a 48", D.path)
	}
	a, b, c := xtl[0], xtl[2], xtl[5]
	if a == 0 && b == 0 && c == 0 {
		frame.Cell = chemfiles.UnitCell{}
		return nil
	}
	gamma := cellAngle(xtl[1])
	beta := cellAngle(xtl[3])
	alpha := cellAngle(xtl[4])
	frame.Cell = chemfiles.NewTriclinicCell(a, b, c, alpha, beta, gamma)
	return nil
}

//cellAngle turns a crystal block value into degrees. CHARMM stores the
//cosine of the angle, NAMD the angle itself; values in [-1, 1] can only
//be cosines.
func cellAngle(v float64) float64 {
	if v >= -1 && v <= 1 {
		return math.Acos(v) * 180 / math.Pi
	}
	return v
}

//Write appends one frame. The header goes out in front of the first
//one, and its frame count is patched after every frame, so the file on
//disk is always consistent.
func (D *DCDObj) Write(frame *chemfiles.Frame) error {
	if D.mode == chemfiles.Read {
		return chemfiles.FileErrorf("the file at %s was opened in read mode and can not be written", D.path)
	}
	//frames written here never carry a 4D block, which would desync the
	//frame index of a file whose header promises one
	if D.hdr.fourdim {
		return chemfiles.FormatErrorf("can not write to the DCD file at %s, it has a fourth dimension", D.path)
	}
	if !D.opened {
		D.tf.SetNAtoms(frame.Len())
		if err := D.writeHeader(); err != nil {
			return err
		}
		D.opened = true
	}
	natoms := D.tf.NAtoms()
	if frame.Len() != natoms {
		return chemfiles.FormatErrorf("can not write a frame of %d atoms, the file at %s holds frames of %d atoms", frame.Len(), D.path, natoms)
	}
	start, err := D.tf.Seek(0, io.SeekEnd)
	if err != nil {
		return D.writeErr(err)
	}
	//appends follow the cell flag of the existing header
	if D.hdr.hasCell {
		if err := D.writeCell(frame.Cell); err != nil {
			return err
		}
	}
	if D.fields[0] == nil {
		for i := range D.fields {
			D.fields[i] = make([]float32, natoms)
		}
	}
	pos := frame.Positions()
	for i := 0; i < natoms; i++ {
		D.fields[0][i] = float32(pos.At(i, 0))
		D.fields[1][i] = float32(pos.At(i, 1))
		D.fields[2][i] = float32(pos.At(i, 2))
	}
	bs := int32(natoms) * 4
	for i := 0; i < 3; i++ {
		if err := binary.Write(D.tf, D.hdr.endian, bs); err != nil {
			return D.writeErr(err)
		}
		if err := binary.Write(D.tf, D.hdr.endian, D.fields[i]); err != nil {
			return D.writeErr(err)
		}
		if err := binary.Write(D.tf, D.hdr.endian, bs); err != nil {
			return D.writeErr(err)
		}
	}
	D.tf.RecordOffset(start)
	return D.patchFrameCount()
}

//writeHeader lays out the CHARMM header for an empty file: version 24,
//unit cell flag on, no fixed atoms, a single title line.
func (D *DCDObj) writeHeader() error {
	e := D.hdr.endian
	icntrl := make([]byte, 80)
	e.PutUint32(icntrl[0:4], 0)   //frame count, patched per frame
	e.PutUint32(icntrl[8:12], 1)  //steps between frames
	e.PutUint32(icntrl[40:44], 1) //unit cell flag
	e.PutUint32(icntrl[36:40], math.Float32bits(1.0))
	e.PutUint32(icntrl[76:80], 24) //CHARMM version
	D.hdr.hasCell = true

	title := make([]byte, maxTitle)
	copy(title, "Written by the chemfiles library")

	for _, v := range []interface{}{
		int32(84), []byte("CORD"), icntrl, int32(84),
		int32(4 + maxTitle), int32(1), title, int32(4 + maxTitle),
		int32(4), int32(D.tf.NAtoms()), int32(4),
	} {
		if err := binary.Write(D.tf, e, v); err != nil {
			return D.writeErr(err)
		}
	}
	end, err := D.tf.Seek(0, io.SeekCurrent)
	if err != nil {
		return D.writeErr(err)
	}
	D.hdr.end = end
	return nil
}

func (D *DCDObj) writeCell(cell chemfiles.UnitCell) error {
	a, b, c := cell.Lengths()
	alpha, beta, gamma := cell.Angles()
	if cell.Shape() == chemfiles.Infinite {
		a, b, c = 0, 0, 0
	}
	xtl := [6]float64{a, gamma, b, beta, alpha, c}
	if err := binary.Write(D.tf, D.hdr.endian, int32(48)); err != nil {
		return D.writeErr(err)
	}
	if err := binary.Write(D.tf, D.hdr.endian, xtl[:]); err != nil {
		return D.writeErr(err)
	}
	if err := binary.Write(D.tf, D.hdr.endian, int32(48)); err != nil {
		return D.writeErr(err)
	}
	return nil
}

//patchFrameCount seeks back into the icntrl block to refresh the frame
//count, then returns to the end of the file.
func (D *DCDObj) patchFrameCount() error {
	if _, err := D.tf.Seek(8, io.SeekStart); err != nil {
		return D.writeErr(err)
	}
	if err := binary.Write(D.tf, D.hdr.endian, int32(D.tf.NFrames())); err != nil {
		return D.writeErr(err)
	}
	if _, err := D.tf.Seek(0, io.SeekEnd); err != nil {
		return D.writeErr(err)
	}
	return nil
}

//Close releases the file.
func (D *DCDObj) Close() error {
	return D.tf.Close()
}

func (D *DCDObj) readErr(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return chemfiles.FileErrorf("the DCD file at %s ends in the middle of a frame", D.path)
	}
	return chemfiles.FileErrorf("error while reading the file at %s: %v", D.path, err)
}

func (D *DCDObj) writeErr(err error) error {
	return chemfiles.FileErrorf("error while writing to the file at %s: %v", D.path, err)
}
