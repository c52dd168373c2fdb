// Package sqlfiles resolves command-line paths into SQL statements.
//
// A path is either a single .sql file or a directory whose .sql files are
// taken in lexical order. Subdirectories are not descended into. Each
// statement is labelled with its file's base name without the extension.
package sqlfiles
