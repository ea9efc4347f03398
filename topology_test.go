/*
 * topology_test.go, part of chemfiles.
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
	"strings"
	"testing"
)

func chainTopology(n int) *Topology {
	top := NewTopology()
	for i := 0; i < n; i++ {
		top.Append(Atom{Symbol: "C"})
	}
	for i := 0; i < n-1; i++ {
		if err := top.AddBond(i, i+1); err != nil {
			panic(err)
		}
	}
	return top
}

func TestTopologyDerivation(Te *testing.T) {
	top := chainTopology(4)
	angles := top.Angles()
	if len(angles) != 2 {
		Te.Errorf("got %d angles in a 4-atom chain, want 2: %v", len(angles), angles)
	}
	if !top.HasAngle(0, 1, 2) || !top.HasAngle(2, 1, 0) {
		Te.Error("angle 0-1-2 missing, or the triple is not unordered")
	}
	if !top.HasAngle(1, 2, 3) {
		Te.Error("angle 1-2-3 missing")
	}
	dihedrals := top.Dihedrals()
	if len(dihedrals) != 1 {
		Te.Fatalf("got %d dihedrals in a 4-atom chain, want 1: %v", len(dihedrals), dihedrals)
	}
	if !top.HasDihedral(0, 1, 2, 3) || !top.HasDihedral(3, 2, 1, 0) {
		Te.Error("dihedral 0-1-2-3 missing, or the quadruple is not unordered")
	}
	//every derived angle comes from two bonds sharing its middle atom,
	//every dihedral from a three-bond chain over distinct atoms
	for _, a := range angles {
		if !top.HasBond(a[0], a[1]) || !top.HasBond(a[1], a[2]) {
			Te.Errorf("angle %v is not backed by two bonds", a)
		}
	}
	for _, d := range dihedrals {
		if !top.HasBond(d[0], d[1]) || !top.HasBond(d[1], d[2]) || !top.HasBond(d[2], d[3]) {
			Te.Errorf("dihedral %v is not backed by a bond chain", d)
		}
		if d[0] == d[2] || d[0] == d[3] || d[1] == d[3] {
			Te.Errorf("dihedral %v repeats an atom", d)
		}
	}
}

func TestTopologyTriangle(Te *testing.T) {
	top := chainTopology(3)
	if err := top.AddBond(0, 2); err != nil {
		Te.Fatal(err)
	}
	if got := len(top.Angles()); got != 3 {
		Te.Errorf("got %d angles in a triangle, want 3", got)
	}
	if got := len(top.Dihedrals()); got != 0 {
		Te.Errorf("got %d dihedrals in a triangle, want 0: %v", got, top.Dihedrals())
	}
}

func TestBondSymmetry(Te *testing.T) {
	top := chainTopology(3)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if top.HasBond(i, j) != top.HasBond(j, i) {
				Te.Errorf("HasBond(%d,%d) != HasBond(%d,%d)", i, j, j, i)
			}
		}
	}
	if top.HasBond(0, 2) {
		Te.Error("0-2 should not be bonded in a 3-atom chain")
	}
}

func TestTopologyRemove(Te *testing.T) {
	top := NewTopology()
	for _, name := range []string{"A", "B", "C", "D"} {
		top.Append(Atom{Name: name})
	}
	for i := 0; i < 3; i++ {
		if err := top.AddBond(i, i+1); err != nil {
			Te.Fatal(err)
		}
	}
	if err := top.Remove(1); err != nil {
		Te.Fatal(err)
	}
	if top.Len() != 3 {
		Te.Fatalf("got %d atoms after removal, want 3", top.Len())
	}
	if top.Atom(1).Name != "C" || top.Atom(2).Name != "D" {
		Te.Error("atoms after the removed index did not shift down")
	}
	bonds := top.Bonds()
	if len(bonds) != 1 || bonds[0] != NewBond(1, 2) {
		Te.Errorf("got bonds %v after removal, want just 1-2", bonds)
	}
	//the old neighborhood of the removed atom is gone
	if top.HasBond(0, 1) {
		Te.Error("a bond incident to the removed atom survived")
	}
	if err := top.Remove(7); err == nil {
		Te.Error("removing an out-of-range atom did not fail")
	}
}

func TestTopologyResize(Te *testing.T) {
	top := chainTopology(3)
	err := top.Resize(2)
	if err == nil {
		Te.Fatal("shrinking below a bonded atom did not fail")
	}
	if !strings.Contains(err.Error(), "bond between atoms 1-2") {
		Te.Errorf("resize error does not name the offending bond: %v", err)
	}
	if err := top.Resize(5); err != nil {
		Te.Fatal(err)
	}
	if top.Len() != 5 {
		Te.Errorf("got %d atoms after growing, want 5", top.Len())
	}
	if top.Atom(4) != (Atom{}) {
		Te.Error("grown atoms should be undefined placeholders")
	}
	if err := top.Resize(3); err != nil {
		Te.Errorf("shrinking back to the last bonded atom failed: %v", err)
	}
}

func TestBondEdits(Te *testing.T) {
	top := chainTopology(3)
	if err := top.AddBond(1, 1); err == nil {
		Te.Error("bonding an atom to itself did not fail")
	}
	if err := top.AddBond(0, 9); err == nil {
		Te.Error("bonding an out-of-range atom did not fail")
	}
	n := len(top.Bonds())
	if err := top.AddBond(1, 0); err != nil { //already there, reversed
		Te.Error(err)
	}
	if len(top.Bonds()) != n {
		Te.Error("re-adding an existing bond changed the bond list")
	}
	if err := top.RemoveBond(0, 2); err != nil { //absent, silent
		Te.Error(err)
	}
	if err := top.RemoveBond(2, 1); err != nil {
		Te.Error(err)
	}
	if top.HasBond(1, 2) {
		Te.Error("removed bond still present")
	}
	if err := top.RemoveBond(0, 9); err == nil {
		Te.Error("removing a bond with an out-of-range index did not fail")
	}
}

func TestCanonicalForms(Te *testing.T) {
	if NewBond(3, 1) != (Bond{1, 3}) {
		Te.Error("bond not canonicalized")
	}
	if NewAngle(5, 1, 2) != (Angle{2, 1, 5}) {
		Te.Error("angle not canonicalized")
	}
	if NewDihedral(4, 3, 2, 1) != (Dihedral{1, 2, 3, 4}) {
		Te.Error("dihedral not canonicalized on the inner pair")
	}
	if NewDihedral(7, 2, 2, 1) != (Dihedral{1, 2, 2, 7}) {
		Te.Error("dihedral tie on the inner pair not broken on the outer one")
	}
	if NewDihedral(1, 2, 3, 4) != (Dihedral{1, 2, 3, 4}) {
		Te.Error("already-canonical dihedral was changed")
	}
}
