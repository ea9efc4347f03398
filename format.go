/*
 * format.go, part of chemfiles.
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

package chemfiles

import "bytes"

//Mode selects what a trajectory or stream is opened for.
type Mode byte

const (
	Read   Mode = 'r'
	Write  Mode = 'w'
	Append Mode = 'a'
)

func (m Mode) String() string {
	switch m {
	case Read:
		return "read"
	case Write:
		return "write"
	case Append:
		return "append"
	}
	return "invalid mode"
}

//Compression selects the compression layer under a format, for the
//formats that support one.
type Compression int

const (
	NoCompression Compression = iota
	GzipCompression
	ZstdCompression
	LzwCompression
	FlateCompression
)

func (c Compression) String() string {
	switch c {
	case NoCompression:
		return "none"
	case GzipCompression:
		return "gzip"
	case ZstdCompression:
		return "zstd"
	case LzwCompression:
		return "lzw"
	case FlateCompression:
		return "flate"
	}
	return "invalid compression"
}

//Format is the capability every concrete codec implements. Read fills
//the frame with the next step and returns io.EOF past the last one.
//Write appends one frame. Close flushes and releases the underlying
//file or buffer; no call is valid after it.
type Format interface {
	Read(frame *Frame) error
	Write(frame *Frame) error
	Close() error
}

//StepReader is implemented by the formats able to decode any step
//directly, without reading the steps before it.
type StepReader interface {
	Format
	ReadStep(step int, frame *Frame) error
	Nsteps() int
}

//Creator opens a format over the file at path.
type Creator func(path string, mode Mode, compression Compression) (Format, error)

//MemoryCreator opens a format over an in-memory buffer instead of a
//file. In read mode the buffer holds the document to decode; in write
//mode the format fills it.
type MemoryCreator func(buf *bytes.Buffer, mode Mode, compression Compression) (Format, error)

//FormatInfo identifies a registered format.
type FormatInfo struct {
	//Name of the format, unique and non-empty.
	Name string
	//Extension claimed by the format for detection from a file path,
	//with the leading dot. Unique when non-empty.
	Extension string
	//Description is a one-line human-readable summary.
	Description string
}
