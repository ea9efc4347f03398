/*
 * cell_test.go, part of chemfiles.
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
	"testing"

	"gonum.org/v1/gonum/mat"
)

func closeTo(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestInfiniteCell(Te *testing.T) {
	var cell UnitCell
	if cell.Shape() != Infinite {
		Te.Error("the zero cell is not infinite")
	}
	if cell.Volume() != 0 {
		Te.Error("an infinite cell has no volume")
	}
	if cell.Matrix() != nil {
		Te.Error("an infinite cell has no matrix")
	}
	a, b, c := cell.Lengths()
	if a != 0 || b != 0 || c != 0 {
		Te.Error("an infinite cell has no lengths")
	}
}

func TestOrthorhombicCell(Te *testing.T) {
	cell := NewOrthorhombicCell(10, 20, 30)
	if cell.Shape() != Orthorhombic {
		Te.Error("wrong shape")
	}
	a, b, c := cell.Lengths()
	if !closeTo(a, 10) || !closeTo(b, 20) || !closeTo(c, 30) {
		Te.Errorf("wrong lengths: %v %v %v", a, b, c)
	}
	alpha, beta, gamma := cell.Angles()
	if !closeTo(alpha, 90) || !closeTo(beta, 90) || !closeTo(gamma, 90) {
		Te.Errorf("wrong angles: %v %v %v", alpha, beta, gamma)
	}
	if !closeTo(cell.Volume(), 6000) {
		Te.Errorf("wrong volume: %v", cell.Volume())
	}
}

func TestTriclinicCell(Te *testing.T) {
	cell := NewTriclinicCell(10, 11, 12, 80, 95, 120)
	if cell.Shape() != Triclinic {
		Te.Error("wrong shape")
	}
	a, b, c := cell.Lengths()
	if !closeTo(a, 10) || !closeTo(b, 11) || !closeTo(c, 12) {
		Te.Errorf("lengths do not round-trip: %v %v %v", a, b, c)
	}
	alpha, beta, gamma := cell.Angles()
	if !closeTo(alpha, 80) || !closeTo(beta, 95) || !closeTo(gamma, 120) {
		Te.Errorf("angles do not round-trip: %v %v %v", alpha, beta, gamma)
	}
	if cell.Volume() <= 0 {
		Te.Errorf("wrong volume: %v", cell.Volume())
	}
}

func TestCellFromMatrix(Te *testing.T) {
	m := mat.NewDense(3, 3, []float64{
		10, 0, 0,
		0, 20, 0,
		0, 0, 30,
	})
	cell, err := NewCellFromMatrix(m)
	if err != nil {
		Te.Fatal(err)
	}
	if cell.Shape() != Orthorhombic {
		Te.Error("wrong shape from matrix")
	}
	m.Set(0, 0, 999)
	if a, _, _ := cell.Lengths(); !closeTo(a, 10) {
		Te.Error("the cell aliases the caller's matrix")
	}
	if _, err := NewCellFromMatrix(mat.NewDense(2, 3, nil)); err == nil {
		Te.Error("a 2x3 matrix should not build a cell")
	}
}
