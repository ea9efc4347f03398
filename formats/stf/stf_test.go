package stf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ynaimi/chemfiles"
	"github.com/ynaimi/chemfiles/zfile"
)

func testFrame(natoms int) *chemfiles.Frame {
	frame := chemfiles.NewFrame()
	for i := 0; i < natoms; i++ {
		v := float64(i)
		frame.AddAtom(chemfiles.Atom{Symbol: "C"}, [3]float64{v + 0.25, v + 0.5, v - 3.75})
	}
	return frame
}

func TestStfRoundTrip(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), "test.stf")
	traj, err := chemfiles.Open(path, chemfiles.Write)
	if err != nil {
		Te.Fatal(err)
	}
	first := testFrame(4)
	first.Cell = chemfiles.NewOrthorhombicCell(20, 21, 22)
	if err := traj.Write(first); err != nil {
		Te.Fatal(err)
	}
	if err := traj.Write(testFrame(4)); err != nil {
		Te.Fatal(err)
	}
	if err := traj.Close(); err != nil {
		Te.Fatal(err)
	}
	traj, err = chemfiles.Open(path, chemfiles.Read)
	if err != nil {
		Te.Fatal(err)
	}
	defer traj.Close()
	frame := chemfiles.NewFrame()
	if err := traj.Read(frame); err != nil {
		Te.Fatal(err)
	}
	if frame.Len() != 4 || frame.Step != 0 {
		Te.Errorf("got %d atoms at step %d", frame.Len(), frame.Step)
	}
	if frame.Cell.Shape() != chemfiles.Orthorhombic {
		Te.Errorf("expected an orthorhombic cell, got %v", frame.Cell.Shape())
	}
	a, b, c := frame.Cell.Lengths()
	if math.Abs(a-20) > 0.01 || math.Abs(b-21) > 0.01 || math.Abs(c-22) > 0.01 {
		Te.Errorf("wrong box: %f %f %f", a, b, c)
	}
	pos := frame.Positions()
	if math.Abs(pos.At(2, 0)-2.25) > 1e-9 {
		Te.Errorf("wrong x for atom 2: %f", pos.At(2, 0))
	}
	if math.Abs(pos.At(1, 2)+2.75) > 1e-9 {
		Te.Errorf("wrong z for atom 1: %f", pos.At(1, 2))
	}
	second := chemfiles.NewFrame()
	if err := traj.Read(second); err != nil {
		Te.Fatal(err)
	}
	if second.Step != 1 {
		Te.Errorf("expected step 1, got %d", second.Step)
	}
	if second.Cell.Shape() != chemfiles.Infinite {
		Te.Errorf("expected no box on the second frame")
	}
	if err := traj.Read(chemfiles.NewFrame()); err != io.EOF {
		Te.Errorf("expected io.EOF, got %v", err)
	}
}

//The stream must come out zstd when no other method is asked for.
func TestStfDefaultZstd(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), "test.stf")
	traj, err := chemfiles.Open(path, chemfiles.Write)
	if err != nil {
		Te.Fatal(err)
	}
	if err := traj.Write(testFrame(2)); err != nil {
		Te.Fatal(err)
	}
	if err := traj.Close(); err != nil {
		Te.Fatal(err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		Te.Fatal(err)
	}
	if len(raw) < 4 || !bytes.Equal(raw[:4], []byte{0x28, 0xb5, 0x2f, 0xfd}) {
		Te.Errorf("the stream does not start with the zstd magic")
	}
	if bytes.Contains(raw, []byte("prec=")) {
		Te.Errorf("the stream holds plain text")
	}
}

func TestStfGzipSuffix(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), "test.stf.gz")
	traj, err := chemfiles.Open(path, chemfiles.Write)
	if err != nil {
		Te.Fatal(err)
	}
	if err := traj.Write(testFrame(3)); err != nil {
		Te.Fatal(err)
	}
	if err := traj.Close(); err != nil {
		Te.Fatal(err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		Te.Fatal(err)
	}
	if len(raw) < 2 || raw[0] != 0x1f || raw[1] != 0x8b {
		Te.Errorf("the stream does not start with the gzip magic")
	}
	traj, err = chemfiles.Open(path, chemfiles.Read)
	if err != nil {
		Te.Fatal(err)
	}
	defer traj.Close()
	frame := chemfiles.NewFrame()
	if err := traj.Read(frame); err != nil {
		Te.Fatal(err)
	}
	if frame.Len() != 3 {
		Te.Errorf("expected 3 atoms, got %d", frame.Len())
	}
}

func TestStfPrecision(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), "test.stf")
	traj, err := chemfiles.Open(path, chemfiles.Write)
	if err != nil {
		Te.Fatal(err)
	}
	frame := chemfiles.NewFrame()
	frame.AddAtom(chemfiles.Atom{Symbol: "C"}, [3]float64{1.234567, 0.125, -0.125})
	if err := traj.Write(frame); err != nil {
		Te.Fatal(err)
	}
	if err := traj.Close(); err != nil {
		Te.Fatal(err)
	}
	traj, err = chemfiles.Open(path, chemfiles.Read)
	if err != nil {
		Te.Fatal(err)
	}
	defer traj.Close()
	got := chemfiles.NewFrame()
	if err := traj.Read(got); err != nil {
		Te.Fatal(err)
	}
	pos := got.Positions()
	if math.Abs(pos.At(0, 0)-1.23) > 1e-9 {
		Te.Errorf("expected 1.23, got %f", pos.At(0, 0))
	}
	//12.5 rounds to the even 12
	if math.Abs(pos.At(0, 1)-0.12) > 1e-9 {
		Te.Errorf("expected 0.12, got %f", pos.At(0, 1))
	}
	if math.Abs(pos.At(0, 2)+0.12) > 1e-9 {
		Te.Errorf("expected -0.12, got %f", pos.At(0, 2))
	}
}

func TestStfHeader(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), "test.stf")
	zf, err := zfile.Create(path, zfile.Zstd)
	if err != nil {
		Te.Fatal(err)
	}
	fmt.Fprintf(zf, "prec=3\ncomment=benzene run\n** 1\n1250 2500 -1250\n*\n")
	if err := zf.Close(); err != nil {
		Te.Fatal(err)
	}
	format, err := newFile(path, chemfiles.Read, chemfiles.NoCompression)
	if err != nil {
		Te.Fatal(err)
	}
	defer format.Close()
	sf := format.(*STFObj)
	if sf.Header()["comment"] != "benzene run" {
		Te.Errorf("wrong header: %v", sf.Header())
	}
	frame := chemfiles.NewFrame()
	if err := format.Read(frame); err != nil {
		Te.Fatal(err)
	}
	pos := frame.Positions()
	if math.Abs(pos.At(0, 0)-1.25) > 1e-9 || math.Abs(pos.At(0, 1)-2.5) > 1e-9 || math.Abs(pos.At(0, 2)+1.25) > 1e-9 {
		Te.Errorf("the stored precision was not honored: %v", pos.RawMatrix().Data)
	}
}

func TestStfAppend(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), "test.stf")
	_, err := chemfiles.Open(path, chemfiles.Append)
	if !errors.Is(err, chemfiles.ErrFile) {
		Te.Errorf("expected a file error, got %v", err)
	}
}

func TestStfNoMemory(Te *testing.T) {
	_, err := chemfiles.MemoryReader([]byte("** 0\n*\n"), "STF")
	if !errors.Is(err, chemfiles.ErrFormat) {
		Te.Errorf("expected a format error, got %v", err)
	}
}

func TestStfNatomsMismatch(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), "test.stf")
	traj, err := chemfiles.Open(path, chemfiles.Write)
	if err != nil {
		Te.Fatal(err)
	}
	defer traj.Close()
	if err := traj.Write(testFrame(2)); err != nil {
		Te.Fatal(err)
	}
	err = traj.Write(testFrame(3))
	if !errors.Is(err, chemfiles.ErrFormat) {
		Te.Errorf("expected a format error, got %v", err)
	}
}

func TestStfBadDocuments(Te *testing.T) {
	docs := []string{
		"nonsense\n",
		"** x\n",
		"** 1\n1 2\n*\n",
		"** 1\n1 2 3\n4 5 6\n",
		"** 1\na b c\n*\n",
	}
	dir := Te.TempDir()
	for i, doc := range docs {
		path := filepath.Join(dir, fmt.Sprintf("bad%d.stf", i))
		zf, err := zfile.Create(path, zfile.Zstd)
		if err != nil {
			Te.Fatal(err)
		}
		if _, err := zf.Write([]byte(doc)); err != nil {
			Te.Fatal(err)
		}
		if err := zf.Close(); err != nil {
			Te.Fatal(err)
		}
		traj, err := chemfiles.Open(path, chemfiles.Read)
		if err == nil {
			err = traj.Read(chemfiles.NewFrame())
			traj.Close()
		}
		if !errors.Is(err, chemfiles.ErrFormat) {
			Te.Errorf("document %d: expected a format error, got %v", i, err)
		}
	}
}

func TestStfTruncated(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), "cut.stf")
	zf, err := zfile.Create(path, zfile.Zstd)
	if err != nil {
		Te.Fatal(err)
	}
	fmt.Fprintf(zf, "** 2\n1 2 3\n")
	if err := zf.Close(); err != nil {
		Te.Fatal(err)
	}
	traj, err := chemfiles.Open(path, chemfiles.Read)
	if err != nil {
		Te.Fatal(err)
	}
	defer traj.Close()
	err = traj.Read(chemfiles.NewFrame())
	if !errors.Is(err, chemfiles.ErrFile) {
		Te.Errorf("expected a file error, got %v", err)
	}
}

//A mangled box is logged and dropped, it must not fail the read.
func TestStfBadBox(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), "box.stf")
	zf, err := zfile.Create(path, zfile.Zstd)
	if err != nil {
		Te.Fatal(err)
	}
	fmt.Fprintf(zf, "** 1\n1 2 3\n* a b c d e f g h i\n")
	if err := zf.Close(); err != nil {
		Te.Fatal(err)
	}
	traj, err := chemfiles.Open(path, chemfiles.Read)
	if err != nil {
		Te.Fatal(err)
	}
	defer traj.Close()
	frame := chemfiles.NewFrame()
	if err := traj.Read(frame); err != nil {
		Te.Fatal(err)
	}
	if frame.Cell.Shape() != chemfiles.Infinite {
		Te.Errorf("expected the infinite cell on a mangled box")
	}
}
