// Package preamble holds the Ruby code injected into the target interpreter
// and the exact statements exchanged with it.
//
// The preamble defines three methods:
//
//	__sos_repr(obj)       literal of obj in the grammar of package literal
//	__sos_listing(names)  {"bound" => [...], "exported" => [...]}
//	sos_export(*names)    registers names for pull regardless of prefix
//
// Every statement the transfer layer sends is built by a function here, and
// each has a parser so in-process targets can recognise it:
//
//	Assign(name, lit)   name = lit
//	SerializeCall(name) $stdout.write(__sos_repr(name))
//	ListingCall         $stdout.write(__sos_listing(local_variables))
//	VersionQuery        RUBY_DESCRIPTION
//	ExportCall(names)   sos_export(:a, :b)
package preamble
