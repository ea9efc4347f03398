/*
 * frame.go, part of chemfiles.
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
	"gonum.org/v1/gonum/mat"
)

//Frame is one step of a trajectory: coordinates, optionally velocities,
//the periodic cell and the topology of the system at that step.
//Positions and velocities are n x 3 matrices in Angstroms and
//Angstroms/ps, one row per atom, in the same order as the topology.
type Frame struct {
	//Step is the simulation step this frame was taken at.
	Step       int
	Cell       UnitCell
	positions  *mat.Dense //nil while the frame is empty
	velocities *mat.Dense //nil unless velocities were added
	topology   *Topology
}

//NewFrame returns an empty frame.
func NewFrame() *Frame {
	return &Frame{topology: NewTopology()}
}

//Len returns the number of atoms in the frame.
func (F *Frame) Len() int {
	if F.positions == nil {
		return 0
	}
	r, _ := F.positions.Dims()
	return r
}

//Positions returns the live position matrix, nil for an empty frame.
//Mutating it mutates the frame.
func (F *Frame) Positions() *mat.Dense {
	return F.positions
}

//Velocities returns the live velocity matrix, or nil if the frame does
//not carry velocities.
func (F *Frame) Velocities() *mat.Dense {
	return F.velocities
}

//HasVelocities tells whether the frame carries velocities.
func (F *Frame) HasVelocities() bool {
	return F.velocities != nil
}

//AddVelocities adds a zeroed velocity matrix to the frame if it does not
//have one already.
func (F *Frame) AddVelocities() {
	if F.velocities != nil {
		return
	}
	if n := F.Len(); n > 0 {
		F.velocities = mat.NewDense(n, 3, nil)
	} else {
		F.velocities = &mat.Dense{} //materialized on the next resize
	}
}

//Topology returns the live topology of the frame.
func (F *Frame) Topology() *Topology {
	if F.topology == nil {
		F.topology = NewTopology()
	}
	return F.topology
}

//SetTopology replaces the topology of the frame. The new topology must
//describe as many atoms as the frame holds.
func (F *Frame) SetTopology(top *Topology) error {
	if top.Len() != F.Len() {
		return Errorf("the topology contains %d atoms, but the frame contains %d atoms", top.Len(), F.Len())
	}
	F.topology = top
	return nil
}

//AddAtom appends one atom and its position to the frame, and a zero
//velocity if the frame carries velocities.
func (F *Frame) AddAtom(at Atom, pos [3]float64) {
	n := F.Len()
	F.positions = resizeDense(F.positions, n+1)
	F.positions.SetRow(n, pos[:])
	if F.velocities != nil {
		F.velocities = resizeDense(F.velocities, n+1)
	}
	F.Topology().Append(at)
}

//Resize sets the number of atoms to n. Positions and velocities are
//preserved up to the lesser of the old and new sizes; new atoms start
//undefined at the origin. It fails if a bond of the topology references
//an atom index beyond the new size.
func (F *Frame) Resize(n int) error {
	if err := F.Topology().Resize(n); err != nil {
		return err
	}
	F.positions = resizeDense(F.positions, n)
	if F.velocities != nil {
		F.velocities = resizeDense(F.velocities, n)
	}
	return nil
}

//resizeDense returns an n x 3 matrix holding the first min(n, old) rows
//of m. A nil or empty m yields a zeroed matrix; n == 0 yields nil.
func resizeDense(m *mat.Dense, n int) *mat.Dense {
	if n == 0 {
		return nil
	}
	out := mat.NewDense(n, 3, nil)
	if m == nil || m.IsEmpty() {
		return out
	}
	r, _ := m.Dims()
	if r > n {
		r = n
	}
	for i := 0; i < r; i++ {
		out.SetRow(i, m.RawRowView(i))
	}
	return out
}
