// Package library turns userlib archive filenames into comparable identities.
//
// A filename such as "org.apache.commons.commons-lang3-3.12.0.jar" is split
// into a base name and a version string, the base name is canonicalized into
// an identity key ("commons-lang3") and the version is parsed into a numeric
// triple. Everything in this package is a pure function of its input.
package library
