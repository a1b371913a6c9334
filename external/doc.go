// Package external queries a remote book catalog as a last-resort source
// for titles that do not exist locally. The wire format follows the
// OpenLibrary search API.
package external
