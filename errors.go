/*
 * errors.go, part of chemfiles.
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

import "fmt"

//Kind labels the failure categories used across the library.
type Kind int

//The error kinds. GenericError covers whatever does not fit a more
//specific category.
const (
	GenericError Kind = iota
	FileError
	MemoryError
	FormatError
	PluginError
)

func (k Kind) String() string {
	switch k {
	case FileError:
		return "file error"
	case MemoryError:
		return "memory error"
	case FormatError:
		return "format error"
	case PluginError:
		return "plugin error"
	}
	return "error"
}

//Error is the error type produced by this library. Kind selects the
//failure category; the message is a human-readable sentence embedding
//the offending name, extension or path. End of trajectory is never an
//*Error, it is reported as io.EOF.
type Error struct {
	Kind Kind
	msg  string
}

func (err *Error) Error() string { return err.msg }

//Is lets errors.Is match any *Error against the sentinel of its kind.
func (err *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	if other.msg != "" && other.msg != err.msg {
		return false
	}
	return other.Kind == err.Kind
}

//Sentinels for errors.Is. They carry no message and match every *Error
//of their kind.
var (
	ErrGeneric = &Error{Kind: GenericError}
	ErrFile    = &Error{Kind: FileError}
	ErrMemory  = &Error{Kind: MemoryError}
	ErrFormat  = &Error{Kind: FormatError}
	ErrPlugin  = &Error{Kind: PluginError}
)

//Errorf builds a GenericError with a formatted message.
func Errorf(format string, args ...interface{}) *Error {
	return &Error{Kind: GenericError, msg: fmt.Sprintf(format, args...)}
}

//FileErrorf builds a FileError: the underlying file or codec reported a
//problem opening, reading, writing or decoding a file.
func FileErrorf(format string, args ...interface{}) *Error {
	return &Error{Kind: FileError, msg: fmt.Sprintf(format, args...)}
}

//MemoryErrorf builds a MemoryError.
func MemoryErrorf(format string, args ...interface{}) *Error {
	return &Error{Kind: MemoryError, msg: fmt.Sprintf(format, args...)}
}

//FormatErrorf builds a FormatError: a request referenced an unknown or
//conflicting format, or a format lacks a capability the caller asked for.
func FormatErrorf(format string, args ...interface{}) *Error {
	return &Error{Kind: FormatError, msg: fmt.Sprintf(format, args...)}
}

//PluginErrorf builds a PluginError.
func PluginErrorf(format string, args ...interface{}) *Error {
	return &Error{Kind: PluginError, msg: fmt.Sprintf(format, args...)}
}
