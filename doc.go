/*
 * doc.go, part of chemfiles.
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

/*Package chemfiles is the extensible core of a chemistry-file IO library.

It provides a registry mapping logical format names and file extensions
to codec constructors, a molecular topology deriving angles and
dihedrals from pairwise bonds, frame and unit-cell value types shared by
every format, and the plumbing binary trajectory formats are built on:
a random-access file handle indexed by a per-frame offset table
(trajfile) and a streaming compression codec (zfile).


	**Capabilities**


    Reads/writes XYZ, GRO, DCD, STF and MMTF files, through one Trajectory
	type that resolves the format from the path extension or from an
	explicit name.

    DCD trajectories are randomly addressable: any step can be decoded
	without decoding the steps before it.

    Text formats read and write through gzip, zstd, lzw or flate
	compression, selected from the file extension ("frames.xyz.gz") or
	explicitly.

    XYZ documents can also be read from and written to in-memory buffers
	instead of files.

    New formats are added by registering a constructor under a unique
	name and, optionally, a unique extension; the built-in set registers
	itself when the formats umbrella package is imported.

Coordinates are gonum mat.Dense matrices with one row per atom, in
Angstroms. End of trajectory is reported as io.EOF; every other failure
is a *chemfiles.Error tagged with its category.*/
package chemfiles
