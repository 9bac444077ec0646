// Package formats reads and writes mesh interchange files.
package formats
