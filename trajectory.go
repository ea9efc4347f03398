/*
 * trajectory.go, part of chemfiles.
 *
 * Copyright 2024 Y. Naimi <ynaimi{at}protonDOTme>
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

package chemfiles

import (
	"bytes"
	"path/filepath"
	"strings"
)

//Trajectory reads and writes frames through whatever format the
//registry resolves for a path or a name. It is a single-owner object:
//a caller sharing one across goroutines must serialize access itself.
type Trajectory struct {
	format Format
	mode   Mode
	path   string
	buf    *bytes.Buffer //only for memory writers
}

//Open opens the trajectory file at path. With no explicit format name
//the format is resolved from the path extension, after peeling off a
//recognized compression suffix: "frames.xyz.gz" selects the format
//claiming ".xyz" and gzip decompression.
func Open(path string, mode Mode, format ...string) (*Trajectory, error) {
	stripped, compression := splitCompressionSuffix(path)
	var creator Creator
	var err error
	if len(format) > 0 && format[0] != "" {
		creator, err = Default().ByName(format[0])
	} else {
		ext := filepath.Ext(stripped)
		if ext == "" {
			return nil, FormatErrorf("the file at '%s' does not have an extension, provide a format name to open it", path)
		}
		creator, err = Default().ByExtension(ext)
	}
	if err != nil {
		return nil, err
	}
	f, err := creator(path, mode, compression)
	if err != nil {
		return nil, err
	}
	return &Trajectory{format: f, mode: mode, path: path}, nil
}

//MemoryReader reads frames of the named format from an in-memory
//document instead of a file. It fails with a FormatError if the format
//does not support in-memory IO.
func MemoryReader(data []byte, format string) (*Trajectory, error) {
	memory, err := Default().MemoryStream(format)
	if err != nil {
		return nil, err
	}
	buf := bytes.NewBuffer(data)
	f, err := memory(buf, Read, NoCompression)
	if err != nil {
		return nil, err
	}
	return &Trajectory{format: f, mode: Read, path: "<memory>"}, nil
}

//MemoryWriter writes frames of the named format to an in-memory buffer
//instead of a file. The document written so far is available through
//Buffer. It fails with a FormatError if the format does not support
//in-memory IO.
func MemoryWriter(format string) (*Trajectory, error) {
	memory, err := Default().MemoryStream(format)
	if err != nil {
		return nil, err
	}
	buf := new(bytes.Buffer)
	f, err := memory(buf, Write, NoCompression)
	if err != nil {
		return nil, err
	}
	return &Trajectory{format: f, mode: Write, path: "<memory>", buf: buf}, nil
}

//Path returns the path the trajectory was opened with, or "<memory>".
func (T *Trajectory) Path() string {
	return T.path
}

//Read fills frame with the next step of the trajectory. It returns
//io.EOF past the last step.
func (T *Trajectory) Read(frame *Frame) error {
	if T.mode != Read {
		return FileErrorf("the file at '%s' was not opened in read mode", T.path)
	}
	return T.format.Read(frame)
}

//ReadStep fills frame with the given step, without decoding the steps
//before it. It fails with a FormatError if the underlying format can
//not address steps directly.
func (T *Trajectory) ReadStep(step int, frame *Frame) error {
	if T.mode != Read {
		return FileErrorf("the file at '%s' was not opened in read mode", T.path)
	}
	stepper, ok := T.format.(StepReader)
	if !ok {
		return FormatErrorf("direct step access is not supported for the file at '%s'", T.path)
	}
	return stepper.ReadStep(step, frame)
}

//NSteps returns the number of steps in the trajectory. It fails with a
//FormatError if the underlying format can not count steps without
//decoding the whole file.
func (T *Trajectory) NSteps() (int, error) {
	stepper, ok := T.format.(StepReader)
	if !ok {
		return 0, FormatErrorf("direct step access is not supported for the file at '%s'", T.path)
	}
	return stepper.Nsteps(), nil
}

//Write appends one frame to the trajectory.
func (T *Trajectory) Write(frame *Frame) error {
	if T.mode == Read {
		return FileErrorf("the file at '%s' was opened in read mode and can not be written", T.path)
	}
	return T.format.Write(frame)
}

//Buffer returns the document written so far by a trajectory opened with
//MemoryWriter, and nil for every other trajectory. Formats may buffer:
//the document is only complete after Close.
func (T *Trajectory) Buffer() []byte {
	if T.buf == nil {
		return nil
	}
	return T.buf.Bytes()
}

//Close flushes and releases the underlying format. The trajectory can
//not be used afterwards.
func (T *Trajectory) Close() error {
	return T.format.Close()
}

//splitCompressionSuffix peels a recognized compression extension off a
//path, returning the shortened path and the matching compression.
func splitCompressionSuffix(path string) (string, Compression) {
	switch filepath.Ext(path) {
	case ".gz":
		return strings.TrimSuffix(path, ".gz"), GzipCompression
	case ".zst":
		return strings.TrimSuffix(path, ".zst"), ZstdCompression
	case ".lzw":
		return strings.TrimSuffix(path, ".lzw"), LzwCompression
	case ".flate":
		return strings.TrimSuffix(path, ".flate"), FlateCompression
	}
	return path, NoCompression
}
