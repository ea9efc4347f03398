/*
 * registry.go, part of chemfiles.
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
	"bytes"
	"fmt"
	"strings"
	"sync"
)

type registeredFormat struct {
	info    FormatInfo
	creator Creator
	memory  MemoryCreator
}

//Registry maps format names and extensions to the functions creating
//the corresponding codecs. Every method holds an exclusive lock on the
//backing store for the duration of the call, so registrations and
//lookups are atomic with respect to one another, and nothing a method
//returns aliases the store.
type Registry struct {
	mu      sync.Mutex
	formats []registeredFormat //insertion order is stable for iteration
}

//NewRegistry returns an empty registry. Most callers want Default
//instead, which the built-in formats register themselves into.
func NewRegistry() *Registry {
	return &Registry{}
}

var (
	defaultRegistry *Registry
	defaultOnce     sync.Once
)

//Default returns the process-wide registry, created on first use. The
//built-in format packages add themselves to it from their init
//functions, so a blank import of the formats umbrella package fixes the
//built-in set at build time.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

//MustRegister registers a format with the Default registry and panics
//if the registration fails. It is meant to be called from the init
//function of format packages, where a conflict is a programming error.
func MustRegister(info FormatInfo, creator Creator, memory MemoryCreator) {
	if err := Default().Register(info, creator, memory); err != nil {
		panic(err)
	}
}

//Register adds a format to the registry. Passing a nil memory creator
//installs a default one that fails, so in-memory IO is opt-in for each
//format. Registration fails with a FormatError if the name is empty or
//already registered, or if the extension is non-empty and already
//claimed by another format.
func (r *Registry) Register(info FormatInfo, creator Creator, memory MemoryCreator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if info.Name == "" {
		return FormatErrorf("can not register a format with no name")
	}
	if r.findByName(info.Name) != -1 {
		return FormatErrorf("there is already a format associated with the name '%s'", info.Name)
	}
	if info.Extension != "" {
		if idx := r.findByExtension(info.Extension); idx != -1 {
			return FormatErrorf("the extension '%s' is already associated with format '%s'",
				info.Extension, r.formats[idx].info.Name)
		}
	}
	if memory == nil {
		name := info.Name
		memory = func(*bytes.Buffer, Mode, Compression) (Format, error) {
			return nil, FormatErrorf("in-memory IO is not supported for the '%s' format", name)
		}
	}
	r.formats = append(r.formats, registeredFormat{info, creator, memory})
	return nil
}

//ByName returns the creator registered under the given name. The name
//comparison is exact; when it fails, the FormatError suggests registered
//names within edit distance 4 of the requested one.
func (r *Registry) ByName(name string) (Creator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.findByName(name)
	if idx == -1 {
		return nil, FormatErrorf("%s", r.suggestNames(name))
	}
	return r.formats[idx].creator, nil
}

//MemoryStream returns the in-memory creator registered under the given
//name, with the same suggestions as ByName when the name is unknown.
func (r *Registry) MemoryStream(name string) (MemoryCreator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.findByName(name)
	if idx == -1 {
		return nil, FormatErrorf("%s", r.suggestNames(name))
	}
	return r.formats[idx].memory, nil
}

//ByExtension returns the creator of the format claiming the given
//extension, leading dot included.
func (r *Registry) ByExtension(extension string) (Creator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.findByExtension(extension)
	if idx == -1 {
		return nil, FormatErrorf("can not find a format associated with the '%s' extension", extension)
	}
	return r.formats[idx].creator, nil
}

//Formats returns a snapshot of the registered format metadata, in
//registration order, safe to use without any further locking.
func (r *Registry) Formats() []FormatInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	metadata := make([]FormatInfo, len(r.formats))
	for i := range r.formats {
		metadata[i] = r.formats[i].info
	}
	return metadata
}

//callers hold r.mu
func (r *Registry) findByName(name string) int {
	for i := range r.formats {
		if r.formats[i].info.Name == name {
			return i
		}
	}
	return -1
}

func (r *Registry) findByExtension(extension string) int {
	for i := range r.formats {
		if r.formats[i].info.Extension == extension {
			return i
		}
	}
	return -1
}

//suggestNames builds the message for a failed name lookup, listing the
//registered names close to the requested one. Callers hold r.mu.
func (r *Registry) suggestNames(name string) string {
	var suggestions []string
	for i := range r.formats {
		if editDistance(name, r.formats[i].info.Name) < 4 {
			suggestions = append(suggestions, r.formats[i].info.Name)
		}
	}
	var msg strings.Builder
	fmt.Fprintf(&msg, "can not find a format named '%s'", name)
	if len(suggestions) > 0 {
		msg.WriteString(", did you mean")
		for i, s := range suggestions {
			if i > 0 {
				msg.WriteString(" or")
			}
			fmt.Fprintf(&msg, " '%s'", s)
		}
		msg.WriteString("?")
	}
	return msg.String()
}

//editDistance computes the Wagner-Fischer edit distance between two
//strings, comparing runes case-insensitively.
func editDistance(first, second string) int {
	a := []rune(strings.ToLower(first))
	b := []rune(strings.ToLower(second))
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1]
			} else {
				cur[j] = min3(prev[j]+1, cur[j-1]+1, prev[j-1]+1)
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
