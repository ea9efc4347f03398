/*
 * topology.go, part of chemfiles.
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
	"fmt"
	"sort"
)

//Bond is an unordered pair of atom indexes, stored with the smaller
//index first so that equality is plain ==.
type Bond [2]int

//NewBond returns the canonical form of the bond i-j.
func NewBond(i, j int) Bond {
	if j < i {
		i, j = j, i
	}
	return Bond{i, j}
}

//Angle is a triple of atom indexes ordered about its middle atom: the
//canonical form has the smaller outer index first.
type Angle [3]int

//NewAngle returns the canonical form of the angle i-j-k, j being the
//middle atom.
func NewAngle(i, j, k int) Angle {
	if k < i {
		i, k = k, i
	}
	return Angle{i, j, k}
}

//Dihedral is a quadruple of atom indexes along a three-bond chain. The
//canonical form reads the chain from the end with the smaller inner index.
type Dihedral [4]int

//NewDihedral returns the canonical form of the dihedral i-j-k-m.
func NewDihedral(i, j, k, m int) Dihedral {
	if k < j || (k == j && m < i) {
		i, j, k, m = m, k, j, i
	}
	return Dihedral{i, j, k, m}
}

//Topology holds an ordered sequence of atoms, where the index is the
//identity for every relation, and the set of bonds between them. Angles
//and dihedrals are derived from the bonds on every query, never stored.
type Topology struct {
	atoms []Atom
	bonds []Bond //sorted, canonical
}

//NewTopology returns an empty topology.
func NewTopology() *Topology {
	return &Topology{}
}

//Len returns the number of atoms.
func (T *Topology) Len() int {
	return len(T.atoms)
}

//Atom returns a copy of the atom at index i. It panics if i is out of
//range.
func (T *Topology) Atom(i int) Atom {
	if i < 0 || i >= len(T.atoms) {
		panic(fmt.Sprintf("chemfiles: atom index %d out of range (%d atoms)", i, len(T.atoms)))
	}
	return T.atoms[i]
}

//SetAtom replaces the atom at index i. It panics if i is out of range.
func (T *Topology) SetAtom(i int, at Atom) {
	if i < 0 || i >= len(T.atoms) {
		panic(fmt.Sprintf("chemfiles: atom index %d out of range (%d atoms)", i, len(T.atoms)))
	}
	T.atoms[i] = at
}

//Append adds one atom at the end of the topology.
func (T *Topology) Append(at Atom) {
	T.atoms = append(T.atoms, at)
}

//Reserve pre-allocates room for n atoms. Pure performance hint.
func (T *Topology) Reserve(n int) {
	if n <= cap(T.atoms) {
		return
	}
	atoms := make([]Atom, len(T.atoms), n)
	copy(atoms, T.atoms)
	T.atoms = atoms
}

//Resize sets the number of atoms to n, dropping trailing atoms when
//shrinking and filling with undefined atoms when growing. It fails if a
//bond references an atom index beyond the new size.
func (T *Topology) Resize(n int) error {
	for _, b := range T.bonds {
		if b[0] >= n || b[1] >= n {
			return Errorf("Can not resize the topology to %d as there is a bond between atoms %d-%d.", n, b[0], b[1])
		}
	}
	if n <= len(T.atoms) {
		T.atoms = T.atoms[:n]
		return nil
	}
	for len(T.atoms) < n {
		T.atoms = append(T.atoms, Atom{})
	}
	return nil
}

//Remove deletes the atom at index idx together with every bond incident
//to it. Remaining bond endpoints above idx are renumbered down by one so
//they keep naming the same atoms in the compacted sequence.
func (T *Topology) Remove(idx int) error {
	if idx < 0 || idx >= len(T.atoms) {
		return Errorf("out of bounds atomic index: we have %d atoms, but the index is %d", len(T.atoms), idx)
	}
	T.atoms = append(T.atoms[:idx], T.atoms[idx+1:]...)
	kept := T.bonds[:0]
	for _, b := range T.bonds {
		if b[0] == idx || b[1] == idx {
			continue
		}
		if b[0] > idx {
			b[0]--
		}
		if b[1] > idx {
			b[1]--
		}
		//decrementing both endpoints of the surviving bonds preserves
		//the canonical form and the sort order
		kept = append(kept, b)
	}
	T.bonds = kept
	return nil
}

//AddBond adds a bond between the atoms at indexes i and j. Adding a
//bond that already exists is a no-op.
func (T *Topology) AddBond(i, j int) error {
	if i < 0 || j < 0 || i >= len(T.atoms) || j >= len(T.atoms) {
		return Errorf("out of bounds atomic index: we have %d atoms, but the bond indexes are %d and %d", len(T.atoms), i, j)
	}
	if i == j {
		return Errorf("can not add a bond between the atom at index %d and itself", i)
	}
	b := NewBond(i, j)
	pos := sort.Search(len(T.bonds), func(n int) bool { return !bondLess(T.bonds[n], b) })
	if pos < len(T.bonds) && T.bonds[pos] == b {
		return nil
	}
	T.bonds = append(T.bonds, Bond{})
	copy(T.bonds[pos+1:], T.bonds[pos:])
	T.bonds[pos] = b
	return nil
}

//RemoveBond removes the bond between the atoms at indexes i and j, doing
//nothing if there is no such bond.
func (T *Topology) RemoveBond(i, j int) error {
	if i < 0 || j < 0 || i >= len(T.atoms) || j >= len(T.atoms) {
		return Errorf("out of bounds atomic index: we have %d atoms, but the bond indexes are %d and %d", len(T.atoms), i, j)
	}
	b := NewBond(i, j)
	pos := sort.Search(len(T.bonds), func(n int) bool { return !bondLess(T.bonds[n], b) })
	if pos < len(T.bonds) && T.bonds[pos] == b {
		T.bonds = append(T.bonds[:pos], T.bonds[pos+1:]...)
	}
	return nil
}

//Bonds returns a copy of the bond list, sorted.
func (T *Topology) Bonds() []Bond {
	bonds := make([]Bond, len(T.bonds))
	copy(bonds, T.bonds)
	return bonds
}

//Angles returns every angle implied by the bond list: one triple for
//each pair of bonds sharing exactly one atom. The result is computed on
//every call, sorted and deduplicated.
func (T *Topology) Angles() []Angle {
	var angles []Angle
	for _, central := range T.bonds {
		j, k := central[0], central[1]
		for _, b := range T.bonds {
			if b == central {
				continue
			}
			if x, ok := otherEnd(b, j); ok && x != k {
				angles = append(angles, NewAngle(x, j, k))
			}
			if x, ok := otherEnd(b, k); ok && x != j {
				angles = append(angles, NewAngle(j, k, x))
			}
		}
	}
	sort.Slice(angles, func(a, b int) bool { return angleLess(angles[a], angles[b]) })
	return dedupAngles(angles)
}

//Dihedrals returns every dihedral implied by the bond list: one
//quadruple for each three-bond chain over four distinct atoms. The
//result is computed on every call, sorted and deduplicated.
func (T *Topology) Dihedrals() []Dihedral {
	var dihedrals []Dihedral
	for _, central := range T.bonds {
		j, k := central[0], central[1]
		for _, left := range T.bonds {
			i, ok := otherEnd(left, j)
			if !ok || i == k {
				continue
			}
			for _, right := range T.bonds {
				m, ok := otherEnd(right, k)
				if !ok || m == j || m == i {
					continue
				}
				dihedrals = append(dihedrals, NewDihedral(i, j, k, m))
			}
		}
	}
	sort.Slice(dihedrals, func(a, b int) bool { return dihedralLess(dihedrals[a], dihedrals[b]) })
	return dedupDihedrals(dihedrals)
}

//HasBond tells whether the atoms at indexes i and j are bonded. The
//relation is unordered: HasBond(i,j) == HasBond(j,i).
func (T *Topology) HasBond(i, j int) bool {
	b := NewBond(i, j)
	pos := sort.Search(len(T.bonds), func(n int) bool { return !bondLess(T.bonds[n], b) })
	return pos < len(T.bonds) && T.bonds[pos] == b
}

//HasAngle tells whether i-j-k is an angle of the topology, j being the
//middle atom.
func (T *Topology) HasAngle(i, j, k int) bool {
	want := NewAngle(i, j, k)
	for _, a := range T.Angles() {
		if a == want {
			return true
		}
	}
	return false
}

//HasDihedral tells whether i-j-k-m is a dihedral of the topology.
func (T *Topology) HasDihedral(i, j, k, m int) bool {
	want := NewDihedral(i, j, k, m)
	for _, d := range T.Dihedrals() {
		if d == want {
			return true
		}
	}
	return false
}

//otherEnd returns the endpoint of b that is not i, and false if i is
//not an endpoint of b.
func otherEnd(b Bond, i int) (int, bool) {
	switch i {
	case b[0]:
		return b[1], true
	case b[1]:
		return b[0], true
	}
	return 0, false
}

func bondLess(a, b Bond) bool {
	if a[0] != b[0] {
		return a[0] < b[0]
	}
	return a[1] < b[1]
}

func angleLess(a, b Angle) bool {
	for i := 0; i < 3; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func dihedralLess(a, b Dihedral) bool {
	for i := 0; i < 4; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func dedupAngles(sorted []Angle) []Angle {
	if len(sorted) < 2 {
		return sorted
	}
	out := sorted[:1]
	for _, a := range sorted[1:] {
		if a != out[len(out)-1] {
			out = append(out, a)
		}
	}
	return out
}

func dedupDihedrals(sorted []Dihedral) []Dihedral {
	if len(sorted) < 2 {
		return sorted
	}
	out := sorted[:1]
	for _, d := range sorted[1:] {
		if d != out[len(out)-1] {
			out = append(out, d)
		}
	}
	return out
}
