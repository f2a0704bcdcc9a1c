/* Command goforth runs programs in a small FORTH-like stack language.

Programs manipulate a single stack of 64-bit integers. A number pushes
itself; every other atom names a word, which is either built in or was
defined earlier with a colon definition:

	: SQUARE dup * ;
	7 SQUARE .          \ prints 49

Words are case-insensitive. A backslash comments out the rest of its line,
and an atom starting with a parenthesis comments out everything through the
next closing parenthesis.

The built in words are:

	+ - * / mod         arithmetic; / and mod truncate toward zero
	= < >               comparison, pushing -1 for true and 0 for false
	dup drop swap over rot -rot ?dup 2dup 2drop 2swap 2over
	.                   pop and print the top of the stack
	.s                  print the stack depth and contents, bottom first

Inside a definition, two control structures are available:

	flag if ... then
	flag if ... else ... then
	limit start do ... loop

The value of i inside a loop is the current loop index. A definition
followed by immediate, or the word immediate on its own after a definition,
marks the word to run while later definitions are being compiled rather
than being compiled into them.

Input may span lines: a definition or conditional left open at the end of
a line is held until a later line completes it, with a ".. " prompt when
running interactively.

Usage:

	goforth [flags] [file ...]

With file arguments, each file is evaluated in turn. Otherwise standard
input is read: interactively with line editing and history when it is a
terminal, or line by line when it is not. With -serve, each websocket
connection to the given address gets its own session, sent program text as
messages and answering each with a JSON object holding the session id, any
output or error, whether input is pending, and the stack.

Settings are read from $XDG_CONFIG_HOME/goforth/config.yaml, or the file
named by -config; any flag given on the command line overrides the file.

When native compilation is enabled, words whose stack effect can be bounded
ahead of time are compiled to Go closures; -emit-llvm additionally records
LLVM IR for each compiled word. Compiled words behave exactly like their
interpreted bodies, including any error they raise.
*/
package main
