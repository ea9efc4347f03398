/*
 * zfile.go, part of chemfiles.
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

//Package zfile presents a plain read/write/seek surface over a file
//whose bytes are compressed. The codec state is driven incrementally:
//reads pull compressed bytes through a staging buffer as needed, writes
//drain the encoder to the file as output becomes ready, and the
//terminal block is flushed on Close.
package zfile

import (
	"bufio"
	"compress/lzw"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/ynaimi/chemfiles"
)

//Method selects the compression algorithm of a file.
type Method int

const (
	None Method = iota
	Gzip
	Zstd
	Lzw
	Flate
)

func (m Method) String() string {
	switch m {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case Lzw:
		return "lzw"
	case Flate:
		return "flate"
	}
	return "invalid method"
}

const lzwLitWidth = 8

//FromCompression maps the library-level compression selector to a
//method.
func FromCompression(c chemfiles.Compression) Method {
	switch c {
	case chemfiles.GzipCompression:
		return Gzip
	case chemfiles.ZstdCompression:
		return Zstd
	case chemfiles.LzwCompression:
		return Lzw
	case chemfiles.FlateCompression:
		return Flate
	}
	return None
}

//MethodFromPath guesses the method from the path extension, None when
//the extension is not a recognized compression suffix.
func MethodFromPath(path string) Method {
	switch filepath.Ext(path) {
	case ".gz":
		return Gzip
	case ".zst":
		return Zstd
	case ".lzw":
		return Lzw
	case ".flate":
		return Flate
	}
	return None
}

//File is a compressed stream over a file. It is opened for either
//reading or writing, never both, and owns its codec state exclusively.
type File struct {
	f      *os.File
	path   string
	method Method
	mode   chemfiles.Mode
	level  int
	pos    int64 //logical, decompressed position

	intermediate *bufio.Reader //staging buffer between the file and the decoder
	dec          io.ReadCloser
	enc          io.WriteCloser
}

//Open opens the compressed file at path for reading.
func Open(path string, method Method) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, chemfiles.FileErrorf("could not open the file at %s: %v", path, err)
	}
	zf := &File{f: f, path: path, method: method, mode: chemfiles.Read}
	if err := zf.resetReader(); err != nil {
		f.Close()
		return nil, err
	}
	return zf, nil
}

//Create opens the file at path for writing through the given method,
//truncating it if it exists. The optional argument sets the compression
//level for the methods with one.
func Create(path string, method Method, level ...int) (*File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, chemfiles.FileErrorf("could not create the file at %s: %v", path, err)
	}
	lv := gzip.BestCompression
	if len(level) > 0 {
		lv = level[0]
	}
	enc, err := newEncoder(f, method, lv)
	if err != nil {
		f.Close()
		return nil, chemfiles.FileErrorf("could not start the %v encoder for the file at %s: %v", method, path, err)
	}
	return &File{f: f, path: path, method: method, mode: chemfiles.Write, level: lv, enc: enc}, nil
}

//Path returns the path the file was opened with.
func (zf *File) Path() string {
	return zf.path
}

//Tell returns the logical position: decompressed bytes read so far, or
//uncompressed bytes written so far.
func (zf *File) Tell() int64 {
	return zf.pos
}

//Read decompresses up to len(p) bytes into p, pulling more compressed
//input from the file as needed. It returns fewer bytes than requested
//only at the end of the stream, and (0, io.EOF) past it.
func (zf *File) Read(p []byte) (int, error) {
	if zf.mode != chemfiles.Read {
		return 0, chemfiles.FileErrorf("the file at %s is opened for writing and can not be read", zf.path)
	}
	if zf.dec == nil {
		return 0, chemfiles.FileErrorf("the file at %s is closed", zf.path)
	}
	n, err := io.ReadFull(zf.dec, p)
	zf.pos += int64(n)
	switch {
	case err == nil:
		return n, nil
	case errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF):
		if n > 0 {
			return n, nil
		}
		return 0, io.EOF
	}
	return n, chemfiles.FileErrorf("error inflating the file at %s: %v", zf.path, err)
}

//Write feeds p to the encoder, which writes whatever compressed output
//is ready to the underlying file. The stream is only terminated by
//Close.
func (zf *File) Write(p []byte) (int, error) {
	if zf.mode != chemfiles.Write {
		return 0, chemfiles.FileErrorf("the file at %s is opened for reading and can not be written", zf.path)
	}
	if zf.enc == nil {
		return 0, chemfiles.FileErrorf("the file at %s is closed", zf.path)
	}
	n, err := zf.enc.Write(p)
	zf.pos += int64(n)
	if err != nil {
		return n, chemfiles.FileErrorf("error deflating to the file at %s: %v", zf.path, err)
	}
	return n, nil
}

//Seek moves the logical position to pos bytes from the start of the
//decompressed stream. Compressed streams are not randomly addressable:
//seeking backwards resets the codec and re-decodes forward, an O(pos)
//operation. Seeking is only possible on files opened for reading.
func (zf *File) Seek(pos int64) error {
	if zf.mode != chemfiles.Read {
		return chemfiles.FileErrorf("can not seek the file at %s, it is opened for writing", zf.path)
	}
	if pos < 0 {
		return chemfiles.FileErrorf("can not seek the file at %s to the negative position %d", zf.path, pos)
	}
	if pos < zf.pos {
		if err := zf.resetReader(); err != nil {
			return err
		}
	}
	skipped, err := io.CopyN(io.Discard, zf.dec, pos-zf.pos)
	zf.pos += skipped
	if err != nil && err != io.EOF {
		return chemfiles.FileErrorf("error inflating the file at %s: %v", zf.path, err)
	}
	if zf.pos != pos {
		return chemfiles.FileErrorf("can not seek the file at %s to position %d: the stream ends at %d", zf.path, pos, zf.pos)
	}
	return nil
}

//Clear rewinds the stream to its start, discarding any end-of-stream
//state. Like Seek, it is only possible on files opened for reading.
func (zf *File) Clear() error {
	if zf.mode != chemfiles.Read {
		return chemfiles.FileErrorf("can not rewind the file at %s, it is opened for writing", zf.path)
	}
	return zf.resetReader()
}

//Close terminates the stream (flushing the encoder's trailing block in
//write mode) and releases the codec state and the file, in every case.
func (zf *File) Close() error {
	var codecErr error
	if zf.enc != nil {
		codecErr = zf.enc.Close()
		zf.enc = nil
	}
	if zf.dec != nil {
		if err := zf.dec.Close(); err != nil && codecErr == nil {
			codecErr = err
		}
		zf.dec = nil
	}
	fileErr := zf.f.Close()
	if codecErr != nil {
		return chemfiles.FileErrorf("error closing the codec for the file at %s: %v", zf.path, codecErr)
	}
	if fileErr != nil {
		return chemfiles.FileErrorf("error closing the file at %s: %v", zf.path, fileErr)
	}
	return nil
}

//resetReader rewinds the file and restarts the decoder from byte zero.
func (zf *File) resetReader() error {
	if zf.dec != nil {
		zf.dec.Close()
		zf.dec = nil
	}
	if _, err := zf.f.Seek(0, io.SeekStart); err != nil {
		return chemfiles.FileErrorf("could not rewind the file at %s: %v", zf.path, err)
	}
	zf.intermediate = bufio.NewReader(zf.f)
	dec, err := newDecoder(zf.intermediate, zf.method)
	if err != nil {
		return chemfiles.FileErrorf("could not start the %v decoder for the file at %s: %v", zf.method, zf.path, err)
	}
	zf.dec = dec
	zf.pos = 0
	return nil
}

//zstd.Decoder closes without an error; this gives it the io.ReadCloser
//shape.
type zstdShim struct {
	*zstd.Decoder
}

func (z zstdShim) Close() error {
	z.Decoder.Close()
	return nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func newDecoder(r io.Reader, method Method) (io.ReadCloser, error) {
	switch method {
	case None:
		return io.NopCloser(r), nil
	case Gzip:
		return gzip.NewReader(r)
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zstdShim{dec}, nil
	case Lzw:
		return lzw.NewReader(r, lzw.MSB, lzwLitWidth), nil
	case Flate:
		return flate.NewReader(r), nil
	}
	return nil, errors.New("invalid compression method")
}

func newEncoder(w io.Writer, method Method, level int) (io.WriteCloser, error) {
	switch method {
	case None:
		return nopWriteCloser{w}, nil
	case Gzip:
		return gzip.NewWriterLevel(w, level)
	case Zstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	case Lzw:
		return lzw.NewWriter(w, lzw.MSB, lzwLitWidth), nil
	case Flate:
		return flate.NewWriter(w, level)
	}
	return nil, errors.New("invalid compression method")
}
