//Package formats registers every format chemfiles ships with. Programs
//that want the full set import it for the side effect:
//
//	import _ "github.com/ynaimi/chemfiles/formats"
//
//Programs that only need some formats can import the subpackages they
//want instead, which keeps the others out of the binary.
package formats

import (
	_ "github.com/ynaimi/chemfiles/formats/dcd"
	_ "github.com/ynaimi/chemfiles/formats/gro"
	_ "github.com/ynaimi/chemfiles/formats/mmtf"
	_ "github.com/ynaimi/chemfiles/formats/stf"
	_ "github.com/ynaimi/chemfiles/formats/xyz"
)
