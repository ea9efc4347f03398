/*
 * trajfile.go, part of chemfiles.
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

//Package trajfile turns a binary trajectory file into an array of
//frames addressable by step. The format-specific header scanner runs
//once when the file is opened and produces the atom count and a byte
//offset for every frame; decoding a step is then one seek away.
package trajfile

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/ynaimi/chemfiles"
)

//ScanFunc parses a trajectory header from the start of the stream and
//returns the atom count and the byte offset every frame starts at,
//typically by hopping frame-size fields without decoding payloads.
type ScanFunc func(r io.ReadSeeker) (natoms int, offsets []int64, err error)

//File is an open binary trajectory together with its offset table. The
//embedded handle is used directly by format codecs to decode frames.
type File struct {
	*os.File
	path    string
	mode    chemfiles.Mode
	natoms  int
	offsets []int64
}

//Open opens the trajectory at path.
//
//In Read mode the header scanner runs immediately and any failure is a
//FileError. In Write mode the file is created or truncated and the
//offset table starts empty. In Append mode a missing or empty file
//starts empty exactly like Write, while an existing one is scanned
//like Read: appending after an undecodable header would corrupt the
//frame index, so that failure is fatal too.
func Open(path string, mode chemfiles.Mode, scan ScanFunc) (*File, error) {
	switch mode {
	case chemfiles.Read:
		f, err := os.Open(path)
		if err != nil {
			return nil, chemfiles.FileErrorf("could not open the file at %s", path)
		}
		tf := &File{File: f, path: path, mode: mode}
		if err := tf.scanHeader(scan); err != nil {
			f.Close()
			return nil, err
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			f.Close()
			return nil, chemfiles.FileErrorf("could not rewind the file at %s: %v", path, err)
		}
		return finalized(tf), nil
	case chemfiles.Write:
		f, err := os.Create(path)
		if err != nil {
			return nil, chemfiles.FileErrorf("could not open the file at %s", path)
		}
		return finalized(&File{File: f, path: path, mode: mode}), nil
	case chemfiles.Append:
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0666)
		if err != nil {
			return nil, chemfiles.FileErrorf("could not open the file at %s", path)
		}
		tf := &File{File: f, path: path, mode: mode}
		st, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, chemfiles.FileErrorf("could not stat the file at %s: %v", path, err)
		}
		if st.Size() > 0 {
			if err := tf.scanHeader(scan); err != nil {
				f.Close()
				return nil, err
			}
		}
		if _, err := f.Seek(0, io.SeekEnd); err != nil {
			f.Close()
			return nil, chemfiles.FileErrorf("could not seek the file at %s: %v", path, err)
		}
		return finalized(tf), nil
	}
	return nil, chemfiles.FileErrorf("invalid mode '%c' for the file at %s", byte(mode), path)
}

//the file handle is released even if the caller forgets to Close
func finalized(tf *File) *File {
	runtime.SetFinalizer(tf, func(tf *File) {
		tf.File.Close()
	})
	return tf
}

func (tf *File) scanHeader(scan ScanFunc) error {
	natoms, offsets, err := scan(tf.File)
	if err != nil {
		return chemfiles.FileErrorf("error while reading the header of the file at %s: %v", tf.path, err)
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			return chemfiles.FileErrorf("corrupt offset table in the file at %s: frame %d starts before frame %d", tf.path, i, i-1)
		}
	}
	tf.natoms = natoms
	tf.offsets = offsets
	return nil
}

//Path returns the path the file was opened with.
func (tf *File) Path() string {
	return tf.path
}

//Mode returns the mode the file was opened in.
func (tf *File) Mode() chemfiles.Mode {
	return tf.mode
}

//NFrames returns the number of frames in the offset table.
func (tf *File) NFrames() int {
	return len(tf.offsets)
}

//Offset returns the byte offset frame step starts at. It panics if
//step is out of range.
func (tf *File) Offset(step int) int64 {
	if step < 0 || step >= len(tf.offsets) {
		panic(fmt.Sprintf("chemfiles: frame %d out of range (%d frames)", step, len(tf.offsets)))
	}
	return tf.offsets[step]
}

//NAtoms returns the number of atoms per frame.
func (tf *File) NAtoms() int {
	return tf.natoms
}

//SetNAtoms declares the system size for a file opened in Write mode,
//before the first frame is written.
func (tf *File) SetNAtoms(n int) {
	tf.natoms = n
}

//RecordOffset appends one entry to the offset table. Writers call it
//with the byte offset each frame was written at.
func (tf *File) RecordOffset(off int64) {
	tf.offsets = append(tf.offsets, off)
}

//Close releases the file handle.
func (tf *File) Close() error {
	runtime.SetFinalizer(tf, nil)
	return tf.File.Close()
}
