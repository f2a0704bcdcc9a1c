package vm

import (
	"sort"
	"strings"

	"github.com/jcorbin/goforth/internal/native"
	"github.com/jcorbin/goforth/internal/parse"
)

// Entry is a defined word.
//
// Entries are never modified once they are in a dictionary: redefinition
// and marking a word immediate both install a new Entry, so a body being
// executed can never change underneath its caller, and a compiled Native
// function always corresponds to its Body.
type Entry struct {
	Name      string
	Body      []parse.Op
	Immediate bool
	Native    *native.Entry
}

func (ent *Entry) String() string {
	return parse.Op{Code: parse.Define, Name: ent.Name, Body: ent.Body}.String()
}

// Dictionary maps upper-cased word names to their definitions.
type Dictionary map[string]*Entry

// Lookup finds the named word in any case.
func (d Dictionary) Lookup(name string) (*Entry, bool) {
	ent, ok := d[strings.ToUpper(name)]
	return ent, ok
}

// Names returns all defined names in sorted order.
func (d Dictionary) Names() []string {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (d Dictionary) clone() Dictionary {
	c := make(Dictionary, len(d))
	for name, ent := range d {
		c[name] = ent
	}
	return c
}
