/*
 * trajfile_test.go, part of chemfiles.
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

package trajfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ynaimi/chemfiles"
)

//The test files use a toy layout: a "TBIN" magic number, one byte for
//the atom count, then one byte per atom per frame.
func scanTest(r io.ReadSeeker) (int, []int64, error) {
	header := make([]byte, 5)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, err
	}
	if string(header[:4]) != "TBIN" {
		return 0, nil, errors.New("wrong magic number")
	}
	natoms := int(header[4])
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, nil, err
	}
	if (size-5)%int64(natoms) != 0 {
		return 0, nil, fmt.Errorf("the last frame is truncated: %d bytes left over", (size-5)%int64(natoms))
	}
	var offsets []int64
	for off := int64(5); off < size; off += int64(natoms) {
		offsets = append(offsets, off)
	}
	return natoms, offsets, nil
}

func writeTestFile(Te *testing.T, dir string, frames int) string {
	Te.Helper()
	path := filepath.Join(dir, "traj.tbin")
	data := append([]byte("TBIN"), 3)
	for i := 0; i < frames*3; i++ {
		data = append(data, byte(i))
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		Te.Fatal(err)
	}
	return path
}

func TestReadValid(Te *testing.T) {
	path := writeTestFile(Te, Te.TempDir(), 4)
	tf, err := Open(path, chemfiles.Read, scanTest)
	if err != nil {
		Te.Fatal(err)
	}
	defer tf.Close()
	if tf.NAtoms() != 3 {
		Te.Errorf("got %d atoms, want 3", tf.NAtoms())
	}
	if tf.NFrames() != 4 {
		Te.Fatalf("got %d frames, want 4", tf.NFrames())
	}
	last := int64(-1)
	for step := 0; step < tf.NFrames(); step++ {
		off := tf.Offset(step)
		if off < last {
			Te.Errorf("offset of frame %d goes backwards", step)
		}
		last = off
	}
	if tf.Offset(0) != 5 || tf.Offset(1) != 8 {
		Te.Errorf("wrong offsets: %d, %d", tf.Offset(0), tf.Offset(1))
	}
	//the handle is left at the start for the codec
	pos, err := tf.Seek(0, io.SeekCurrent)
	if err != nil || pos != 0 {
		Te.Errorf("handle at %d after opening for reading, want 0", pos)
	}
}

func TestReadCorrupt(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), "garbage.tbin")
	if err := os.WriteFile(path, []byte("not a trajectory"), 0644); err != nil {
		Te.Fatal(err)
	}
	_, err := Open(path, chemfiles.Read, scanTest)
	if err == nil {
		Te.Fatal("opening a corrupt header in read mode did not fail")
	}
	if !errors.Is(err, chemfiles.ErrFile) {
		Te.Errorf("got %v, want a FileError", err)
	}
}

func TestReadMissing(Te *testing.T) {
	_, err := Open(filepath.Join(Te.TempDir(), "nope.tbin"), chemfiles.Read, scanTest)
	if err == nil || !errors.Is(err, chemfiles.ErrFile) {
		Te.Errorf("got %v, want a FileError", err)
	}
}

func TestAppendMissingFile(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), "new.tbin")
	tf, err := Open(path, chemfiles.Append, scanTest)
	if err != nil {
		Te.Fatal(err)
	}
	defer tf.Close()
	if tf.NFrames() != 0 {
		Te.Errorf("got %d frames appending to a missing file, want 0", tf.NFrames())
	}
	if _, err := os.Stat(path); err != nil {
		Te.Error("append mode did not create the file")
	}
}

func TestAppendEmptyFile(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), "empty.tbin")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		Te.Fatal(err)
	}
	tf, err := Open(path, chemfiles.Append, scanTest)
	if err != nil {
		Te.Fatal(err)
	}
	defer tf.Close()
	if tf.NFrames() != 0 || tf.NAtoms() != 0 {
		Te.Error("an empty file should start out like write mode")
	}
}

func TestAppendCorrupt(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), "garbage.tbin")
	if err := os.WriteFile(path, []byte("junk"), 0644); err != nil {
		Te.Fatal(err)
	}
	_, err := Open(path, chemfiles.Append, scanTest)
	if err == nil {
		Te.Fatal("appending to an undecodable file did not fail")
	}
	if !errors.Is(err, chemfiles.ErrFile) {
		Te.Errorf("got %v, want a FileError", err)
	}
}

func TestAppendValid(Te *testing.T) {
	path := writeTestFile(Te, Te.TempDir(), 2)
	tf, err := Open(path, chemfiles.Append, scanTest)
	if err != nil {
		Te.Fatal(err)
	}
	defer tf.Close()
	if tf.NFrames() != 2 || tf.NAtoms() != 3 {
		Te.Errorf("got %d frames of %d atoms, want 2 of 3", tf.NFrames(), tf.NAtoms())
	}
	pos, err := tf.Seek(0, io.SeekCurrent)
	if err != nil {
		Te.Fatal(err)
	}
	if pos != 5+2*3 {
		Te.Errorf("handle at %d after opening for append, want the file end", pos)
	}
	//appending one more frame extends the table
	if _, err := tf.Write([]byte{9, 9, 9}); err != nil {
		Te.Fatal(err)
	}
	tf.RecordOffset(pos)
	if tf.NFrames() != 3 {
		Te.Errorf("got %d frames after appending, want 3", tf.NFrames())
	}
}

func TestWriteMode(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), "out.tbin")
	tf, err := Open(path, chemfiles.Write, scanTest)
	if err != nil {
		Te.Fatal(err)
	}
	defer tf.Close()
	if tf.NFrames() != 0 {
		Te.Error("a write-mode file should start with no frames")
	}
	tf.SetNAtoms(7)
	if tf.NAtoms() != 7 {
		Te.Error("SetNAtoms did not take")
	}
	tf.RecordOffset(5)
	tf.RecordOffset(12)
	if tf.NFrames() != 2 || tf.Offset(1) != 12 {
		Te.Error("recorded offsets were lost")
	}
}

func TestOffsetRange(Te *testing.T) {
	path := writeTestFile(Te, Te.TempDir(), 1)
	tf, err := Open(path, chemfiles.Read, scanTest)
	if err != nil {
		Te.Fatal(err)
	}
	defer tf.Close()
	defer func() {
		if recover() == nil {
			Te.Error("an out-of-range step did not panic")
		}
	}()
	tf.Offset(99)
}

func TestScannerOffsetsValidated(Te *testing.T) {
	path := writeTestFile(Te, Te.TempDir(), 1)
	backwards := func(r io.ReadSeeker) (int, []int64, error) {
		return 3, []int64{20, 10}, nil
	}
	_, err := Open(path, chemfiles.Read, backwards)
	if err == nil || !errors.Is(err, chemfiles.ErrFile) {
		Te.Errorf("a decreasing offset table was accepted: %v", err)
	}
}
