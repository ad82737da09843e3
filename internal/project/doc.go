// Package project models a vidforge video project on disk.
//
// A project directory holds project.json (the typed Config validated at load
// time), scenes/, audio/, work/, and output/. Layout resolves every path the
// assembly pipeline reads or writes, Init scaffolds new projects, and Lock
// serializes assemblies of the same project.
package project
