/*
 * cell.go, part of chemfiles.
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

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

//CellShape tells which kind of periodic boundary a unit cell describes.
type CellShape int

const (
	//Infinite is the absence of periodic boundaries.
	Infinite CellShape = iota
	//Orthorhombic cells have three perpendicular vectors.
	Orthorhombic
	//Triclinic cells have three vectors with arbitrary angles.
	Triclinic
)

//zero tolerance for the off-diagonal terms of a cell matrix, in Angstroms.
const cellEpsilon = 1e-9

//UnitCell is the periodic box of a frame, stored as a 3x3 matrix whose
//rows are the cell vectors in Angstroms. The zero value is the infinite
//cell.
type UnitCell struct {
	m *mat.Dense //nil for an infinite cell
}

//NewOrthorhombicCell builds a cell from three perpendicular vector
//lengths in Angstroms.
func NewOrthorhombicCell(a, b, c float64) UnitCell {
	m := mat.NewDense(3, 3, nil)
	m.Set(0, 0, a)
	m.Set(1, 1, b)
	m.Set(2, 2, c)
	return UnitCell{m: m}
}

//NewTriclinicCell builds a cell from three vector lengths in Angstroms
//and three angles in degrees.
func NewTriclinicCell(a, b, c, alpha, beta, gamma float64) UnitCell {
	ca := math.Cos(alpha * math.Pi / 180)
	cb := math.Cos(beta * math.Pi / 180)
	cg := math.Cos(gamma * math.Pi / 180)
	sg := math.Sin(gamma * math.Pi / 180)
	bx := b * cg
	by := b * sg
	cx := c * cb
	cy := (b*c*ca - bx*cx) / by
	cz := math.Sqrt(c*c - cx*cx - cy*cy)
	m := mat.NewDense(3, 3, []float64{
		a, 0, 0,
		bx, by, 0,
		cx, cy, cz,
	})
	return UnitCell{m: m}
}

//NewCellFromMatrix builds a cell from a 3x3 matrix whose rows are the
//cell vectors in Angstroms.
func NewCellFromMatrix(m *mat.Dense) (UnitCell, error) {
	r, c := m.Dims()
	if r != 3 || c != 3 {
		return UnitCell{}, Errorf("a unit cell matrix must be 3x3, got %dx%d", r, c)
	}
	cp := mat.NewDense(3, 3, nil)
	cp.Copy(m)
	return UnitCell{m: cp}, nil
}

//Shape returns the cell kind.
func (cell UnitCell) Shape() CellShape {
	if cell.m == nil {
		return Infinite
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if i != j && math.Abs(cell.m.At(i, j)) > cellEpsilon {
				return Triclinic
			}
		}
	}
	return Orthorhombic
}

//Lengths returns the three cell vector lengths in Angstroms.
func (cell UnitCell) Lengths() (float64, float64, float64) {
	if cell.m == nil {
		return 0, 0, 0
	}
	return rowNorm(cell.m, 0), rowNorm(cell.m, 1), rowNorm(cell.m, 2)
}

//Angles returns the three cell angles in degrees: alpha between the b
//and c vectors, beta between a and c, gamma between a and b.
func (cell UnitCell) Angles() (float64, float64, float64) {
	if cell.m == nil {
		return 90, 90, 90
	}
	alpha := rowAngle(cell.m, 1, 2)
	beta := rowAngle(cell.m, 0, 2)
	gamma := rowAngle(cell.m, 0, 1)
	return alpha, beta, gamma
}

//Volume returns the cell volume in cubic Angstroms, zero for an
//infinite cell.
func (cell UnitCell) Volume() float64 {
	if cell.m == nil {
		return 0
	}
	return math.Abs(mat.Det(cell.m))
}

//Matrix returns a copy of the 3x3 cell matrix, nil for an infinite cell.
func (cell UnitCell) Matrix() *mat.Dense {
	if cell.m == nil {
		return nil
	}
	cp := mat.NewDense(3, 3, nil)
	cp.Copy(cell.m)
	return cp
}

func rowNorm(m *mat.Dense, i int) float64 {
	return math.Hypot(math.Hypot(m.At(i, 0), m.At(i, 1)), m.At(i, 2))
}

//rowAngle returns the angle between two row vectors, in degrees.
func rowAngle(m *mat.Dense, i, j int) float64 {
	dot := m.At(i, 0)*m.At(j, 0) + m.At(i, 1)*m.At(j, 1) + m.At(i, 2)*m.At(j, 2)
	cos := dot / (rowNorm(m, i) * rowNorm(m, j))
	return math.Acos(math.Max(-1, math.Min(1, cos))) * 180 / math.Pi
}
